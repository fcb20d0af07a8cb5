package meshvk

import (
	vk "github.com/vulkan-go/vulkan"
)

//CreateSwapchain creates the presentable chain on the driver's surface and
//wraps the chain images. The images are not owned by the caller.
func (d *vulkanDriver) CreateSwapchain(cfg ChainConfig) (*Chain, error) {
	info := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          d.surface,
		MinImageCount:    cfg.ImageCount,
		ImageFormat:      cfg.Format.Format,
		ImageColorSpace:  cfg.Format.ColorSpace,
		ImageExtent:      cfg.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: cfg.SharingMode,
		PreTransform:     cfg.PreTransform,
		CompositeAlpha:   cfg.CompositeAlpha,
		PresentMode:      cfg.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}
	if cfg.SharingMode == vk.SharingModeConcurrent {
		info.QueueFamilyIndexCount = uint32(len(cfg.QueueFamilies))
		info.PQueueFamilyIndices = cfg.QueueFamilies
	}

	var swapchain vk.Swapchain
	ret := vk.CreateSwapchain(d.device, &info, nil, &swapchain)
	if err := NewError("create swapchain", ret); err != nil {
		return nil, err
	}

	var imageCount uint32
	ret = vk.GetSwapchainImages(d.device, swapchain, &imageCount, nil)
	if err := NewError("get swapchain images", ret); err != nil {
		vk.DestroySwapchain(d.device, swapchain, nil)
		return nil, err
	}
	handles := make([]vk.Image, imageCount)
	ret = vk.GetSwapchainImages(d.device, swapchain, &imageCount, handles)
	if err := NewError("get swapchain images", ret); err != nil {
		vk.DestroySwapchain(d.device, swapchain, nil)
		return nil, err
	}

	chain := &Chain{handle: swapchain, images: make([]*Image, 0, imageCount)}
	for _, h := range handles[:imageCount] {
		chain.images = append(chain.images, &Image{
			handle: h,
			format: cfg.Format.Format,
			width:  cfg.Extent.Width,
			height: cfg.Extent.Height,
			usage:  vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
			layout: vk.ImageLayoutUndefined,
		})
	}
	d.log.Info.Printf("swapchain created with %d images at %dx%d", imageCount, cfg.Extent.Width, cfg.Extent.Height)
	return chain, nil
}

func (d *vulkanDriver) DestroySwapchain(c *Chain) {
	vk.DestroySwapchain(d.device, c.handle, nil)
	c.images = nil
}
