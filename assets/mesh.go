package assets

import "github.com/andewx/meshvk"

//Quad is a unit square centred on the origin, one color per corner
func Quad() meshvk.Mesh {
	return meshvk.Mesh{
		Vertices: []meshvk.Vertex{
			{Pos: [2]float32{-0.5, -0.5}, Color: [3]float32{1, 0, 0}, TexCoord: [2]float32{1, 0}},
			{Pos: [2]float32{0.5, -0.5}, Color: [3]float32{0, 1, 0}, TexCoord: [2]float32{0, 0}},
			{Pos: [2]float32{0.5, 0.5}, Color: [3]float32{0, 0, 1}, TexCoord: [2]float32{0, 1}},
			{Pos: [2]float32{-0.5, 0.5}, Color: [3]float32{1, 1, 1}, TexCoord: [2]float32{1, 1}},
		},
		Indices: []uint16{0, 1, 2, 2, 3, 0},
	}
}
