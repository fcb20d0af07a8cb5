package meshvk

import (
	vk "github.com/vulkan-go/vulkan"
)

//CreateRenderPass builds a single subpass pass over one color attachment,
//with one dependency from outside the pass into the subpass.
func (d *vulkanDriver) CreateRenderPass(cfg RenderPassConfig) (*RenderPass, error) {
	attachmentDescriptions := []vk.AttachmentDescription{
		{
			Flags:          vk.AttachmentDescriptionFlags(0),
			Format:         cfg.Format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         cfg.LoadOp,
			StoreOp:        cfg.StoreOp,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  cfg.InitialLayout,
			FinalLayout:    cfg.FinalLayout,
		},
	}

	//Setup Subpass Attachment References
	colorReferences := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpasses := []vk.SubpassDescription{{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorReferences,
	}}

	dependencies := []vk.SubpassDependency{{
		SrcSubpass:    vk.MaxUint32,
		DstSubpass:    0,
		SrcStageMask:  cfg.Dependency.SrcStage,
		DstStageMask:  cfg.Dependency.DstStage,
		SrcAccessMask: cfg.Dependency.SrcAccess,
		DstAccessMask: cfg.Dependency.DstAccess,
	}}

	var renderPass vk.RenderPass
	ret := vk.CreateRenderPass(d.device, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachmentDescriptions)),
		PAttachments:    attachmentDescriptions,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}, nil, &renderPass)
	if err := NewError("create render pass", ret); err != nil {
		return nil, err
	}
	return &RenderPass{handle: renderPass}, nil
}

func (d *vulkanDriver) DestroyRenderPass(rp *RenderPass) {
	vk.DestroyRenderPass(d.device, rp.handle, nil)
}

func (d *vulkanDriver) CreateFramebuffer(rp *RenderPass, view *ImageView, extent vk.Extent2D) (*Framebuffer, error) {
	var framebuffer vk.Framebuffer
	ret := vk.CreateFramebuffer(d.device, &vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		Flags:           vk.FramebufferCreateFlags(0),
		RenderPass:      rp.handle,
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{view.handle},
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}, nil, &framebuffer)
	if err := NewError("create framebuffer", ret); err != nil {
		return nil, err
	}
	return &Framebuffer{handle: framebuffer}, nil
}

func (d *vulkanDriver) DestroyFramebuffer(fb *Framebuffer) {
	vk.DestroyFramebuffer(d.device, fb.handle, nil)
}
