package meshvk

import vk "github.com/vulkan-go/vulkan"

//CreateImage creates a 2D, single mip, optimally tiled image in UNDEFINED layout
func (d *vulkanDriver) CreateImage(width, height uint32, format vk.Format, usage vk.ImageUsageFlags) (*Image, error) {
	var image vk.Image
	ret := vk.CreateImage(d.device, &vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Format:        format,
		Extent:        vk.Extent3D{Width: width, Height: height, Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &image)
	if err := NewError("create image", ret); err != nil {
		return nil, err
	}

	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.device, image, &memReqs)
	memReqs.Deref()

	return &Image{
		handle: image,
		format: format,
		width:  width,
		height: height,
		usage:  usage,
		layout: vk.ImageLayoutUndefined,
		requirements: MemoryRequirements{
			Size:     memReqs.Size,
			TypeBits: memReqs.MemoryTypeBits,
		},
		owned: true,
	}, nil
}

func (d *vulkanDriver) DestroyImage(img *Image) {
	if !img.owned {
		return
	}
	vk.DestroyImage(d.device, img.handle, nil)
}

//CreateImageView makes a 2D color view with identity swizzle over the one mip and layer
func (d *vulkanDriver) CreateImageView(img *Image) (*ImageView, error) {
	var view vk.ImageView
	ret := vk.CreateImageView(d.device, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Flags:    vk.ImageViewCreateFlags(0),
		Image:    img.handle,
		ViewType: vk.ImageViewType2d,
		Format:   img.format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &view)
	if err := NewError("create image view", ret); err != nil {
		return nil, err
	}
	return &ImageView{handle: view, image: img}, nil
}

func (d *vulkanDriver) DestroyImageView(v *ImageView) {
	vk.DestroyImageView(d.device, v.handle, nil)
}

func (d *vulkanDriver) CreateSampler(cfg SamplerConfig) (*Sampler, error) {
	anisotropy := vk.Bool32(vk.False)
	maxAnisotropy := float32(1)
	if cfg.Anisotropy {
		anisotropy = vk.True
		maxAnisotropy = cfg.MaxAnisotropy
	}
	var sampler vk.Sampler
	ret := vk.CreateSampler(d.device, &vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        anisotropy,
		MaxAnisotropy:           maxAnisotropy,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
	}, nil, &sampler)
	if err := NewError("create sampler", ret); err != nil {
		return nil, err
	}
	return &Sampler{handle: sampler}, nil
}

func (d *vulkanDriver) DestroySampler(s *Sampler) {
	vk.DestroySampler(d.device, s.handle, nil)
}
