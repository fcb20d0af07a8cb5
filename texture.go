package meshvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

const TextureFormat = vk.FormatR8g8b8a8Srgb

//Texture is an uploaded image in SHADER_READ_ONLY layout with its view and sampler
type Texture struct {
	image   *Image
	view    *ImageView
	sampler *Sampler
}

func (t *Texture) Image() *Image { return t.image }
func (t *Texture) View() *ImageView { return t.view }
func (t *Texture) Sampler() *Sampler { return t.sampler }

//NewTexture uploads RGBA pixels and creates the sampling objects for them
func NewTexture(drv Driver, xfer *CoreTransfer, pixels []byte, width, height uint32, sampler SamplerConfig) (*Texture, error) {
	img, err := xfer.UploadToImage(pixels, width, height, TextureFormat)
	if err != nil {
		return nil, errors.Wrap(err, "texture image")
	}
	tex := &Texture{image: img}

	tex.view, err = drv.CreateImageView(img)
	if err != nil {
		tex.Destroy(drv, xfer)
		return nil, resourceErr("texture image view", err)
	}
	tex.sampler, err = drv.CreateSampler(sampler)
	if err != nil {
		tex.Destroy(drv, xfer)
		return nil, resourceErr("texture sampler", err)
	}
	return tex, nil
}

func (t *Texture) Destroy(drv Driver, xfer *CoreTransfer) {
	if t.sampler != nil {
		drv.DestroySampler(t.sampler)
		t.sampler = nil
	}
	if t.view != nil {
		drv.DestroyImageView(t.view)
		t.view = nil
	}
	if t.image != nil {
		xfer.DestroyImage(t.image)
		t.image = nil
	}
}
