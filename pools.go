package meshvk

import (
	vk "github.com/vulkan-go/vulkan"
)

//newCommandPool creates the pool every command buffer is allocated from.
//Buffers can be reset individually, which the frame buffers rely on when
//they are re-recorded after a rebuild.
func newCommandPool(device vk.Device, family uint32) (vk.CommandPool, error) {
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: family,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}, nil, &pool)
	if err := NewError("create command pool", ret); err != nil {
		return vk.NullCommandPool, resourceErr("command pool", err)
	}
	return pool, nil
}
