package meshvk

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

func (d *vulkanDriver) CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags) (*Buffer, error) {
	var buffer vk.Buffer
	ret := vk.CreateBuffer(d.device, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buffer)
	if err := NewError("create buffer", ret); err != nil {
		return nil, err
	}

	// Ask device about its memory requirements.
	var memReqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.device, buffer, &memReqs)
	memReqs.Deref()

	return &Buffer{
		handle: buffer,
		size:   size,
		usage:  usage,
		requirements: MemoryRequirements{
			Size:     memReqs.Size,
			TypeBits: memReqs.MemoryTypeBits,
		},
	}, nil
}

func (d *vulkanDriver) DestroyBuffer(b *Buffer) {
	vk.DestroyBuffer(d.device, b.handle, nil)
}

func (d *vulkanDriver) AllocateMemory(size vk.DeviceSize, typeIndex uint32) (*Memory, error) {
	var memory vk.DeviceMemory
	ret := vk.AllocateMemory(d.device, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  size,
		MemoryTypeIndex: typeIndex,
	}, nil, &memory)
	if err := NewError("allocate memory", ret); err != nil {
		return nil, err
	}
	return &Memory{handle: memory, size: size, typeIndex: typeIndex}, nil
}

func (d *vulkanDriver) FreeMemory(m *Memory) {
	vk.FreeMemory(d.device, m.handle, nil)
}

func (d *vulkanDriver) BindBufferMemory(b *Buffer, m *Memory) error {
	return NewError("bind buffer memory", vk.BindBufferMemory(d.device, b.handle, m.handle, 0))
}

func (d *vulkanDriver) BindImageMemory(img *Image, m *Memory) error {
	return NewError("bind image memory", vk.BindImageMemory(d.device, img.handle, m.handle, 0))
}

// WriteMemory maps the range, dumps data in there and unmaps.
func (d *vulkanDriver) WriteMemory(m *Memory, offset vk.DeviceSize, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	var pData unsafe.Pointer
	ret := vk.MapMemory(d.device, m.handle, offset, vk.DeviceSize(len(data)), 0, &pData)
	if err := NewError("map memory", ret); err != nil {
		return err
	}
	n := vk.Memcopy(pData, data)
	vk.UnmapMemory(d.device, m.handle)
	if n != len(data) {
		return errors.Errorf("failed to copy data, %d != %d", n, len(data))
	}
	return nil
}
