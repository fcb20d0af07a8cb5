package meshvk

import (
	"encoding/binary"
	"math"

	vk "github.com/vulkan-go/vulkan"
)

//Vertex is one interleaved vertex: position, color, texture coordinate
type Vertex struct {
	Pos      [2]float32
	Color    [3]float32
	TexCoord [2]float32
}

const vertexStride = 7 * 4

//Mesh is an indexed triangle list
type Mesh struct {
	Vertices []Vertex
	Indices  []uint16
}

func (m Mesh) IndexCount() uint32 { return uint32(len(m.Indices)) }

//VertexBytes packs the vertices the way the vertex input layout reads them
func (m Mesh) VertexBytes() []byte {
	out := make([]byte, 0, len(m.Vertices)*vertexStride)
	for _, v := range m.Vertices {
		out = appendFloats(out, v.Pos[:]...)
		out = appendFloats(out, v.Color[:]...)
		out = appendFloats(out, v.TexCoord[:]...)
	}
	return out
}

func (m Mesh) IndexBytes() []byte {
	out := make([]byte, 2*len(m.Indices))
	for i, idx := range m.Indices {
		binary.LittleEndian.PutUint16(out[2*i:], idx)
	}
	return out
}

func appendFloats(dst []byte, fs ...float32) []byte {
	var b [4]byte
	for _, f := range fs {
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(f))
		dst = append(dst, b[:]...)
	}
	return dst
}

//MeshVertexLayout is the single interleaved binding the mesh pipeline reads
func MeshVertexLayout() VertexLayout {
	return VertexLayout{
		Stride: vertexStride,
		Attributes: []VertexAttribute{
			{Location: 0, Format: vk.FormatR32g32Sfloat, Offset: 0},
			{Location: 1, Format: vk.FormatR32g32b32Sfloat, Offset: 2 * 4},
			{Location: 2, Format: vk.FormatR32g32Sfloat, Offset: 5 * 4},
		},
	}
}
