package meshvk

import (
	vk "github.com/vulkan-go/vulkan"
)

//SubmitAndWait submits cb alone and blocks until the graphics queue drains
func (d *vulkanDriver) SubmitAndWait(cb *CommandBuffer) error {
	ret := vk.QueueSubmit(d.graphicsQueue, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb.handle},
	}}, vk.NullFence)
	if err := NewError("queue submit", ret); err != nil {
		return err
	}
	return NewError("queue wait idle", vk.QueueWaitIdle(d.graphicsQueue))
}

//Submit queues a frame: wait on wait at waitStage, signal signal when done
func (d *vulkanDriver) Submit(cb *CommandBuffer, wait *Semaphore, waitStage vk.PipelineStageFlags, signal *Semaphore) error {
	ret := vk.QueueSubmit(d.graphicsQueue, 1, []vk.SubmitInfo{{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{wait.handle},
		PWaitDstStageMask:    []vk.PipelineStageFlags{waitStage},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cb.handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{signal.handle},
	}}, vk.NullFence)
	return NewError("queue submit", ret)
}

func (d *vulkanDriver) AcquireNextImage(c *Chain, signal *Semaphore) (uint32, vk.Result) {
	var index uint32
	ret := vk.AcquireNextImage(d.device, c.handle, vk.MaxUint64, signal.handle, vk.NullFence, &index)
	return index, ret
}

func (d *vulkanDriver) Present(c *Chain, index uint32, wait *Semaphore) vk.Result {
	return vk.QueuePresent(d.presentQueue, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait.handle},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{c.handle},
		PImageIndices:      []uint32{index},
	})
}

func (d *vulkanDriver) CreateSemaphore() (*Semaphore, error) {
	var sem vk.Semaphore
	ret := vk.CreateSemaphore(d.device, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &sem)
	if err := NewError("create semaphore", ret); err != nil {
		return nil, err
	}
	return &Semaphore{handle: sem}, nil
}

func (d *vulkanDriver) DestroySemaphore(s *Semaphore) {
	vk.DestroySemaphore(d.device, s.handle, nil)
}
