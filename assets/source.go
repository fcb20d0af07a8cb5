//Package assets loads shader bytecode and texture images from disk.
package assets

import (
	"bufio"
	"encoding/binary"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/andewx/meshvk"
)

const spirvMagic = 0x07230203

//Source resolves asset paths against Root. Absolute paths are used as is.
type Source struct {
	Root string
	mesh meshvk.Mesh
}

var _ meshvk.AssetSource = (*Source)(nil)

//NewSource serves the quad mesh and files under root
func NewSource(root string) *Source {
	return &Source{Root: root, mesh: Quad()}
}

//WithMesh replaces the served mesh
func (s *Source) WithMesh(m meshvk.Mesh) *Source {
	s.mesh = m
	return s
}

func (s *Source) Mesh() meshvk.Mesh { return s.mesh }

func (s *Source) resolve(path string) string {
	if filepath.IsAbs(path) || s.Root == "" {
		return path
	}
	return filepath.Join(s.Root, path)
}

//LoadBytecode reads a compiled SPIR-V module. The file has to hold whole
//32-bit words and start with the SPIR-V magic number.
func (s *Source) LoadBytecode(path string) ([]byte, error) {
	full := s.resolve(path)
	code, err := os.ReadFile(full)
	if err != nil {
		return nil, errors.WithStack(&meshvk.ShaderLoadError{Path: full, Err: err})
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, errors.WithStack(&meshvk.ShaderLoadError{
			Path: full,
			Err:  errors.Errorf("bytecode length %d is not a positive multiple of 4", len(code)),
		})
	}
	if binary.LittleEndian.Uint32(code) != spirvMagic {
		return nil, errors.WithStack(&meshvk.ShaderLoadError{Path: full, Err: errors.New("missing SPIR-V magic number")})
	}
	return code, nil
}

//DecodeImage decodes png, jpeg, gif, bmp, tiff or webp into tightly packed
//RGBA8, whatever the source color model.
func (s *Source) DecodeImage(path string) ([]byte, int, int, int, error) {
	full := s.resolve(path)
	file, err := os.Open(full)
	if err != nil {
		return nil, 0, 0, 0, errors.WithStack(&meshvk.TextureLoadError{Path: full, Err: err})
	}
	defer file.Close()

	img, _, err := image.Decode(bufio.NewReader(file))
	if err != nil {
		return nil, 0, 0, 0, errors.WithStack(&meshvk.TextureLoadError{Path: full, Err: err})
	}
	rgba := ToRGBA(img)
	b := rgba.Bounds()
	return rgba.Pix, b.Dx(), b.Dy(), 4, nil
}

//ToRGBA returns img as an *image.RGBA with origin at 0,0 and no row padding
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return rgba
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
