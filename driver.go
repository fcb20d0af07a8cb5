package meshvk

import vk "github.com/vulkan-go/vulkan"

//SwapchainExtension is the one device extension every renderer needs
const SwapchainExtension = "VK_KHR_swapchain"

//Driver is the set of GPU entry points the renderer is built on. Every
//method maps onto one Vulkan object operation; the driver holds the
//instance, surface, logical device, queues and command pool, so resource
//methods take no device argument. Methods are only valid between a
//successful CreateDevice and DestroyDevice unless noted otherwise.
type Driver interface {
	//PhysicalDevices and SurfaceSupport are pure queries, valid before CreateDevice.
	PhysicalDevices() ([]PhysicalDeviceInfo, error)
	SurfaceSupport(gpu int) (SurfaceSupport, error)

	CreateDevice(req DeviceRequest) error
	DestroyDevice()
	WaitIdle() error

	CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags) (*Buffer, error)
	DestroyBuffer(b *Buffer)
	CreateImage(width, height uint32, format vk.Format, usage vk.ImageUsageFlags) (*Image, error)
	DestroyImage(img *Image)
	AllocateMemory(size vk.DeviceSize, typeIndex uint32) (*Memory, error)
	FreeMemory(m *Memory)
	BindBufferMemory(b *Buffer, m *Memory) error
	BindImageMemory(img *Image, m *Memory) error
	//WriteMemory maps m, copies data at offset and unmaps.
	WriteMemory(m *Memory, offset vk.DeviceSize, data []byte) error
	CreateImageView(img *Image) (*ImageView, error)
	DestroyImageView(v *ImageView)
	CreateSampler(cfg SamplerConfig) (*Sampler, error)
	DestroySampler(s *Sampler)

	AllocateCommandBuffers(count int) ([]*CommandBuffer, error)
	FreeCommandBuffers(cbs []*CommandBuffer)
	BeginCommandBuffer(cb *CommandBuffer, oneShot bool) error
	EndCommandBuffer(cb *CommandBuffer) error
	CmdCopyBuffer(cb *CommandBuffer, src, dst *Buffer, size vk.DeviceSize)
	CmdCopyBufferToImage(cb *CommandBuffer, src *Buffer, dst *Image)
	CmdImageBarrier(cb *CommandBuffer, img *Image, barrier ImageBarrier)
	CmdMeshPass(cb *CommandBuffer, pass MeshPass)
	//SubmitAndWait submits cb to the graphics queue and blocks until the queue is idle.
	SubmitAndWait(cb *CommandBuffer) error

	CreateSwapchain(cfg ChainConfig) (*Chain, error)
	DestroySwapchain(c *Chain)
	CreateRenderPass(cfg RenderPassConfig) (*RenderPass, error)
	DestroyRenderPass(rp *RenderPass)
	CreateDescriptorSetLayout(bindings []DescriptorBinding) (*DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(l *DescriptorSetLayout)
	CreatePipelineLayout(set *DescriptorSetLayout) (*PipelineLayout, error)
	DestroyPipelineLayout(l *PipelineLayout)
	CreateShaderModule(code []byte) (*ShaderModule, error)
	DestroyShaderModule(m *ShaderModule)
	CreateGraphicsPipeline(cfg PipelineConfig) (*Pipeline, error)
	DestroyPipeline(p *Pipeline)
	CreateFramebuffer(rp *RenderPass, view *ImageView, extent vk.Extent2D) (*Framebuffer, error)
	DestroyFramebuffer(fb *Framebuffer)

	CreateDescriptorPool(bindings []DescriptorBinding, maxSets uint32) (*DescriptorPool, error)
	DestroyDescriptorPool(p *DescriptorPool)
	AllocateDescriptorSet(pool *DescriptorPool, layout *DescriptorSetLayout) (*DescriptorSet, error)
	UpdateDescriptorSet(set *DescriptorSet, write DescriptorWrite)

	CreateSemaphore() (*Semaphore, error)
	DestroySemaphore(s *Semaphore)
	//AcquireNextImage waits without timeout and signals signal on success.
	AcquireNextImage(c *Chain, signal *Semaphore) (uint32, vk.Result)
	Submit(cb *CommandBuffer, wait *Semaphore, waitStage vk.PipelineStageFlags, signal *Semaphore) error
	Present(c *Chain, index uint32, wait *Semaphore) vk.Result

	//Close releases the surface, debug callback and instance. Valid after DestroyDevice.
	Close()
}

//PhysicalDeviceInfo is a fresh snapshot of one candidate GPU
type PhysicalDeviceInfo struct {
	Index                int
	Name                 string
	Type                 vk.PhysicalDeviceType
	GeometryShader       bool
	SamplerAnisotropy    bool
	MaxSamplerAnisotropy float32
	QueueFamilies        []QueueFamilyInfo
	Extensions           []string
	Surface              SurfaceSupport
	MemoryTypes          []MemoryType
}

type QueueFamilyInfo struct {
	Index      uint32
	Graphics   bool
	Present    bool
	QueueCount uint32
}

//SurfaceSupport is what the surface offers on a given GPU
type SurfaceSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

type MemoryType struct {
	PropertyFlags vk.MemoryPropertyFlags
	HeapIndex     uint32
}

type MemoryRequirements struct {
	Size     vk.DeviceSize
	TypeBits uint32
}

type Features struct {
	SamplerAnisotropy bool
}

//DeviceRequest asks for one queue from each family in Families.
type DeviceRequest struct {
	GPU            int
	GraphicsFamily uint32
	PresentFamily  uint32
	Families       []uint32
	Extensions     []string
	Features       Features
}

type SamplerConfig struct {
	Anisotropy    bool
	MaxAnisotropy float32
}

type ImageBarrier struct {
	OldLayout, NewLayout vk.ImageLayout
	SrcAccess, DstAccess vk.AccessFlags
	SrcStage, DstStage   vk.PipelineStageFlags
}

//MeshPass is everything a pre-recorded frame command buffer draws
type MeshPass struct {
	RenderPass    *RenderPass
	Framebuffer   *Framebuffer
	Extent        vk.Extent2D
	ClearColor    [4]float32
	Pipeline      *Pipeline
	Layout        *PipelineLayout
	DescriptorSet *DescriptorSet
	VertexBuffer  *Buffer
	IndexBuffer   *Buffer
	IndexCount    uint32
}

type ChainConfig struct {
	Format         vk.SurfaceFormat
	PresentMode    vk.PresentMode
	Extent         vk.Extent2D
	ImageCount     uint32
	PreTransform   vk.SurfaceTransformFlagBits
	CompositeAlpha vk.CompositeAlphaFlagBits
	SharingMode    vk.SharingMode
	QueueFamilies  []uint32
}

type SubpassDependency struct {
	SrcStage, DstStage   vk.PipelineStageFlags
	SrcAccess, DstAccess vk.AccessFlags
}

//RenderPassConfig is a single color attachment, single subpass render pass
type RenderPassConfig struct {
	Format        vk.Format
	LoadOp        vk.AttachmentLoadOp
	StoreOp       vk.AttachmentStoreOp
	InitialLayout vk.ImageLayout
	FinalLayout   vk.ImageLayout
	Dependency    SubpassDependency
}

type VertexAttribute struct {
	Location uint32
	Format   vk.Format
	Offset   uint32
}

type VertexLayout struct {
	Stride     uint32
	Attributes []VertexAttribute
}

type PipelineConfig struct {
	RenderPass  *RenderPass
	Layout      *PipelineLayout
	Vertex      *ShaderModule
	Fragment    *ShaderModule
	Extent      vk.Extent2D
	Input       VertexLayout
	Topology    vk.PrimitiveTopology
	PolygonMode vk.PolygonMode
	CullMode    vk.CullModeFlags
	FrontFace   vk.FrontFace
	Samples     vk.SampleCountFlagBits
	Blend       bool
}

type DescriptorBinding struct {
	Binding uint32
	Type    vk.DescriptorType
	Stages  vk.ShaderStageFlags
}

type DescriptorWrite struct {
	Uniform      *Buffer
	UniformRange vk.DeviceSize
	View         *ImageView
	Sampler      *Sampler
}
