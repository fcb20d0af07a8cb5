package meshvk

import vk "github.com/vulkan-go/vulkan"

// GPU object wrappers. The vk handle is only touched by the driver; the rest
// of the package tracks objects by pointer.

type Memory struct {
	handle    vk.DeviceMemory
	size      vk.DeviceSize
	typeIndex uint32
}

func (m *Memory) Size() vk.DeviceSize { return m.size }

//Buffer is a buffer handle plus the memory bound to it
type Buffer struct {
	handle       vk.Buffer
	size         vk.DeviceSize
	usage        vk.BufferUsageFlags
	props        vk.MemoryPropertyFlags
	requirements MemoryRequirements
	memory       *Memory
}

func (b *Buffer) Size() vk.DeviceSize { return b.size }
func (b *Buffer) Usage() vk.BufferUsageFlags { return b.usage }
func (b *Buffer) Properties() vk.MemoryPropertyFlags { return b.props }
func (b *Buffer) Bound() bool { return b.memory != nil }

func (b *Buffer) HostVisible() bool {
	return b.props&vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) != 0
}

//Image is either a loaded texture (owned) or a presentable image owned by a chain
type Image struct {
	handle       vk.Image
	format       vk.Format
	width        uint32
	height       uint32
	usage        vk.ImageUsageFlags
	layout       vk.ImageLayout
	requirements MemoryRequirements
	memory       *Memory
	owned        bool
}

func (img *Image) Format() vk.Format { return img.format }
func (img *Image) Layout() vk.ImageLayout { return img.layout }
func (img *Image) Extent() (uint32, uint32) {
	return img.width, img.height
}

type ImageView struct {
	handle vk.ImageView
	image  *Image
}

type Sampler struct {
	handle vk.Sampler
}

type CommandBuffer struct {
	handle vk.CommandBuffer
}

type Semaphore struct {
	handle vk.Semaphore
}

//Chain is the presentable image chain. Images belong to it and are never
//destroyed individually.
type Chain struct {
	handle vk.Swapchain
	images []*Image
}

func (c *Chain) Images() []*Image { return c.images }

type RenderPass struct {
	handle vk.RenderPass
}

type DescriptorSetLayout struct {
	handle vk.DescriptorSetLayout
}

type PipelineLayout struct {
	handle vk.PipelineLayout
}

type ShaderModule struct {
	handle vk.ShaderModule
}

type Pipeline struct {
	handle vk.Pipeline
}

type Framebuffer struct {
	handle vk.Framebuffer
}

type DescriptorPool struct {
	handle vk.DescriptorPool
}

type DescriptorSet struct {
	handle vk.DescriptorSet
}
