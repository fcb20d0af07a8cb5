package meshvk

import (
	vk "github.com/vulkan-go/vulkan"
)

// AllocateCommandBuffers allocates count primary command buffers from the
// device's pool. They are returned in the initial state.
func (d *vulkanDriver) AllocateCommandBuffers(count int) ([]*CommandBuffer, error) {
	if count == 0 {
		return nil, nil
	}
	handles := make([]vk.CommandBuffer, count)
	ret := vk.AllocateCommandBuffers(d.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}, handles)
	if err := NewError("allocate command buffers", ret); err != nil {
		return nil, err
	}
	cbs := make([]*CommandBuffer, count)
	for i := range handles {
		cbs[i] = &CommandBuffer{handle: handles[i]}
	}
	return cbs, nil
}

func (d *vulkanDriver) FreeCommandBuffers(cbs []*CommandBuffer) {
	if len(cbs) == 0 {
		return
	}
	handles := make([]vk.CommandBuffer, len(cbs))
	for i, cb := range cbs {
		handles[i] = cb.handle
	}
	vk.FreeCommandBuffers(d.device, d.pool, uint32(len(handles)), handles)
}

// BeginCommandBuffer starts recording. One-shot buffers are submitted once
// and freed; the others are recorded once per swapchain build.
func (d *vulkanDriver) BeginCommandBuffer(cb *CommandBuffer, oneShot bool) error {
	var flags vk.CommandBufferUsageFlags
	if oneShot {
		flags = vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	ret := vk.BeginCommandBuffer(cb.handle, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: flags,
	})
	return NewError("begin command buffer", ret)
}

func (d *vulkanDriver) EndCommandBuffer(cb *CommandBuffer) error {
	return NewError("end command buffer", vk.EndCommandBuffer(cb.handle))
}

func (d *vulkanDriver) CmdCopyBuffer(cb *CommandBuffer, src, dst *Buffer, size vk.DeviceSize) {
	vk.CmdCopyBuffer(cb.handle, src.handle, dst.handle, 1, []vk.BufferCopy{{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      size,
	}})
}

// CmdCopyBufferToImage copies tightly packed pixels over the whole image,
// which must be in TRANSFER_DST layout.
func (d *vulkanDriver) CmdCopyBufferToImage(cb *CommandBuffer, src *Buffer, dst *Image) {
	vk.CmdCopyBufferToImage(cb.handle, src.handle, dst.handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
		ImageExtent: vk.Extent3D{Width: dst.width, Height: dst.height, Depth: 1},
	}})
}

func (d *vulkanDriver) CmdImageBarrier(cb *CommandBuffer, img *Image, b ImageBarrier) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       b.SrcAccess,
		DstAccessMask:       b.DstAccess,
		OldLayout:           b.OldLayout,
		NewLayout:           b.NewLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img.handle,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	vk.CmdPipelineBarrier(cb.handle, b.SrcStage, b.DstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

// CmdMeshPass records a full frame: clear, bind, draw the indexed mesh once.
func (d *vulkanDriver) CmdMeshPass(cb *CommandBuffer, p MeshPass) {
	cmd := cb.handle
	rect := vk.Rect2D{Offset: vk.Offset2D{}, Extent: p.Extent}
	clearValues := []vk.ClearValue{
		vk.NewClearValue(p.ClearColor[:]),
	}

	vk.CmdBeginRenderPass(cmd, &vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      p.RenderPass.handle,
		Framebuffer:     p.Framebuffer.handle,
		RenderArea:      rect,
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}, vk.SubpassContentsInline)

	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, p.Pipeline.handle)
	vk.CmdBindVertexBuffers(cmd, 0, 1, []vk.Buffer{p.VertexBuffer.handle}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(cmd, p.IndexBuffer.handle, 0, vk.IndexTypeUint16)
	vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, p.Layout.handle, 0, 1,
		[]vk.DescriptorSet{p.DescriptorSet.handle}, 0, nil)
	vk.CmdDrawIndexed(cmd, p.IndexCount, 1, 0, 0, 0)

	vk.CmdEndRenderPass(cmd)
}
