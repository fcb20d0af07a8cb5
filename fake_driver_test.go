package meshvk

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

//fakeDriver is an in-memory Driver. It records calls, tracks every live
//object by pointer and lets tests script acquire/present results and
//creation failures.
type fakeDriver struct {
	gpus    []PhysicalDeviceInfo
	support SurfaceSupport

	calls []string
	live  map[interface{}]string
	fail  map[string]error

	acquireResults []vk.Result
	presentResults []vk.Result
	acquired       int

	device        *DeviceRequest
	liveAtDestroy int
	closed        bool

	waitIdles    int
	submits      int
	oneShots     int
	memory       map[*Memory][]byte
	barriers     []ImageBarrier
	chains       []ChainConfig
	pipelines    []PipelineConfig
	renderPasses []RenderPassConfig
	meshPasses   []MeshPass
	descriptors  []DescriptorWrite
	samplers     []SamplerConfig
	shaders      [][]byte
}

var _ Driver = (*fakeDriver)(nil)

func newFakeDriver() *fakeDriver {
	support := defaultSupport()
	gpu := defaultGPU(0, support)
	return &fakeDriver{
		gpus:    []PhysicalDeviceInfo{gpu},
		support: support,
		live:    make(map[interface{}]string),
		fail:    make(map[string]error),
		memory:  make(map[*Memory][]byte),
	}
}

func defaultSupport() SurfaceSupport {
	return SurfaceSupport{
		Capabilities: vk.SurfaceCapabilities{
			MinImageCount:           2,
			MaxImageCount:           8,
			CurrentExtent:           vk.Extent2D{Width: 800, Height: 600},
			MinImageExtent:          vk.Extent2D{Width: 1, Height: 1},
			MaxImageExtent:          vk.Extent2D{Width: 4096, Height: 4096},
			MaxImageArrayLayers:     1,
			SupportedTransforms:     vk.SurfaceTransformFlags(vk.SurfaceTransformIdentityBit),
			CurrentTransform:        vk.SurfaceTransformIdentityBit,
			SupportedCompositeAlpha: vk.CompositeAlphaFlags(vk.CompositeAlphaOpaqueBit),
		},
		Formats:      []vk.SurfaceFormat{PreferredSurfaceFormat},
		PresentModes: []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox},
	}
}

func defaultGPU(index int, support SurfaceSupport) PhysicalDeviceInfo {
	return PhysicalDeviceInfo{
		Index:                index,
		Name:                 fmt.Sprintf("fake gpu %d", index),
		Type:                 vk.PhysicalDeviceTypeDiscreteGpu,
		GeometryShader:       true,
		SamplerAnisotropy:    true,
		MaxSamplerAnisotropy: 16,
		QueueFamilies: []QueueFamilyInfo{
			{Index: 0, Graphics: true, Present: true, QueueCount: 1},
		},
		Extensions: []string{SwapchainExtension},
		Surface:    support,
		MemoryTypes: []MemoryType{
			{PropertyFlags: deviceLocal, HeapIndex: 0},
			{PropertyFlags: hostVisible, HeapIndex: 1},
		},
	}
}

func (f *fakeDriver) call(name string) error {
	f.calls = append(f.calls, name)
	return f.fail[name]
}

func (f *fakeDriver) track(obj interface{}, kind string) {
	f.live[obj] = kind
}

func (f *fakeDriver) release(obj interface{}) {
	if _, ok := f.live[obj]; !ok {
		panic(fmt.Sprintf("release of unknown or already released object %T", obj))
	}
	delete(f.live, obj)
}

func (f *fakeDriver) liveCount(kind string) int {
	n := 0
	for _, k := range f.live {
		if k == kind {
			n++
		}
	}
	return n
}

func (f *fakeDriver) liveKinds() []string {
	var kinds []string
	for _, k := range f.live {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func (f *fakeDriver) count(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeDriver) lastIndex(name string) int {
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i] == name {
			return i
		}
	}
	return -1
}

func (f *fakeDriver) PhysicalDevices() ([]PhysicalDeviceInfo, error) {
	if err := f.call("PhysicalDevices"); err != nil {
		return nil, err
	}
	return f.gpus, nil
}

func (f *fakeDriver) SurfaceSupport(gpu int) (SurfaceSupport, error) {
	if err := f.call("SurfaceSupport"); err != nil {
		return SurfaceSupport{}, err
	}
	return f.support, nil
}

func (f *fakeDriver) CreateDevice(req DeviceRequest) error {
	if err := f.call("CreateDevice"); err != nil {
		return err
	}
	f.device = &req
	return nil
}

func (f *fakeDriver) DestroyDevice() {
	f.call("DestroyDevice")
	f.liveAtDestroy = len(f.live)
	f.device = nil
}

func (f *fakeDriver) WaitIdle() error {
	f.waitIdles++
	return f.call("WaitIdle")
}

func (f *fakeDriver) CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags) (*Buffer, error) {
	if err := f.call("CreateBuffer"); err != nil {
		return nil, err
	}
	b := &Buffer{size: size, usage: usage, requirements: MemoryRequirements{Size: size, TypeBits: 0xffffffff}}
	f.track(b, "buffer")
	return b, nil
}

func (f *fakeDriver) DestroyBuffer(b *Buffer) {
	f.call("DestroyBuffer")
	f.release(b)
}

func (f *fakeDriver) CreateImage(width, height uint32, format vk.Format, usage vk.ImageUsageFlags) (*Image, error) {
	if err := f.call("CreateImage"); err != nil {
		return nil, err
	}
	img := &Image{
		format: format, width: width, height: height, usage: usage,
		requirements: MemoryRequirements{Size: vk.DeviceSize(width * height * 4), TypeBits: 0xffffffff},
		owned:        true,
	}
	f.track(img, "image")
	return img, nil
}

func (f *fakeDriver) DestroyImage(img *Image) {
	f.call("DestroyImage")
	f.release(img)
}

func (f *fakeDriver) AllocateMemory(size vk.DeviceSize, typeIndex uint32) (*Memory, error) {
	if err := f.call("AllocateMemory"); err != nil {
		return nil, err
	}
	m := &Memory{size: size, typeIndex: typeIndex}
	f.track(m, "memory")
	return m, nil
}

func (f *fakeDriver) FreeMemory(m *Memory) {
	f.call("FreeMemory")
	f.release(m)
}

func (f *fakeDriver) BindBufferMemory(b *Buffer, m *Memory) error {
	if err := f.call("BindBufferMemory"); err != nil {
		return err
	}
	if b.memory != nil {
		return errors.New("fake: buffer already bound")
	}
	return nil
}

func (f *fakeDriver) BindImageMemory(img *Image, m *Memory) error {
	return f.call("BindImageMemory")
}

func (f *fakeDriver) WriteMemory(m *Memory, offset vk.DeviceSize, data []byte) error {
	if err := f.call("WriteMemory"); err != nil {
		return err
	}
	f.memory[m] = append([]byte(nil), data...)
	return nil
}

func (f *fakeDriver) CreateImageView(img *Image) (*ImageView, error) {
	if err := f.call("CreateImageView"); err != nil {
		return nil, err
	}
	v := &ImageView{image: img}
	f.track(v, "image view")
	return v, nil
}

func (f *fakeDriver) DestroyImageView(v *ImageView) {
	f.call("DestroyImageView")
	f.release(v)
}

func (f *fakeDriver) CreateSampler(cfg SamplerConfig) (*Sampler, error) {
	if err := f.call("CreateSampler"); err != nil {
		return nil, err
	}
	f.samplers = append(f.samplers, cfg)
	s := &Sampler{}
	f.track(s, "sampler")
	return s, nil
}

func (f *fakeDriver) DestroySampler(s *Sampler) {
	f.call("DestroySampler")
	f.release(s)
}

func (f *fakeDriver) AllocateCommandBuffers(count int) ([]*CommandBuffer, error) {
	if err := f.call("AllocateCommandBuffers"); err != nil {
		return nil, err
	}
	cbs := make([]*CommandBuffer, count)
	for i := range cbs {
		cbs[i] = &CommandBuffer{}
		f.track(cbs[i], "command buffer")
	}
	return cbs, nil
}

func (f *fakeDriver) FreeCommandBuffers(cbs []*CommandBuffer) {
	f.call("FreeCommandBuffers")
	for _, cb := range cbs {
		f.release(cb)
	}
}

func (f *fakeDriver) BeginCommandBuffer(cb *CommandBuffer, oneShot bool) error {
	if oneShot {
		f.oneShots++
	}
	return f.call("BeginCommandBuffer")
}

func (f *fakeDriver) EndCommandBuffer(cb *CommandBuffer) error {
	return f.call("EndCommandBuffer")
}

func (f *fakeDriver) CmdCopyBuffer(cb *CommandBuffer, src, dst *Buffer, size vk.DeviceSize) {
	f.call("CmdCopyBuffer")
}

func (f *fakeDriver) CmdCopyBufferToImage(cb *CommandBuffer, src *Buffer, dst *Image) {
	f.call("CmdCopyBufferToImage")
}

func (f *fakeDriver) CmdImageBarrier(cb *CommandBuffer, img *Image, barrier ImageBarrier) {
	f.call("CmdImageBarrier")
	f.barriers = append(f.barriers, barrier)
}

func (f *fakeDriver) CmdMeshPass(cb *CommandBuffer, pass MeshPass) {
	f.call("CmdMeshPass")
	f.meshPasses = append(f.meshPasses, pass)
}

func (f *fakeDriver) SubmitAndWait(cb *CommandBuffer) error {
	return f.call("SubmitAndWait")
}

func (f *fakeDriver) CreateSwapchain(cfg ChainConfig) (*Chain, error) {
	if err := f.call("CreateSwapchain"); err != nil {
		return nil, err
	}
	f.chains = append(f.chains, cfg)
	c := &Chain{}
	for i := uint32(0); i < cfg.ImageCount; i++ {
		c.images = append(c.images, &Image{format: cfg.Format.Format, width: cfg.Extent.Width, height: cfg.Extent.Height})
	}
	f.track(c, "swapchain")
	return c, nil
}

func (f *fakeDriver) DestroySwapchain(c *Chain) {
	f.call("DestroySwapchain")
	f.release(c)
}

func (f *fakeDriver) CreateRenderPass(cfg RenderPassConfig) (*RenderPass, error) {
	if err := f.call("CreateRenderPass"); err != nil {
		return nil, err
	}
	f.renderPasses = append(f.renderPasses, cfg)
	rp := &RenderPass{}
	f.track(rp, "render pass")
	return rp, nil
}

func (f *fakeDriver) DestroyRenderPass(rp *RenderPass) {
	f.call("DestroyRenderPass")
	f.release(rp)
}

func (f *fakeDriver) CreateDescriptorSetLayout(bindings []DescriptorBinding) (*DescriptorSetLayout, error) {
	if err := f.call("CreateDescriptorSetLayout"); err != nil {
		return nil, err
	}
	l := &DescriptorSetLayout{}
	f.track(l, "descriptor set layout")
	return l, nil
}

func (f *fakeDriver) DestroyDescriptorSetLayout(l *DescriptorSetLayout) {
	f.call("DestroyDescriptorSetLayout")
	f.release(l)
}

func (f *fakeDriver) CreatePipelineLayout(set *DescriptorSetLayout) (*PipelineLayout, error) {
	if err := f.call("CreatePipelineLayout"); err != nil {
		return nil, err
	}
	if _, ok := f.live[set]; !ok {
		return nil, errors.New("fake: pipeline layout over a dead set layout")
	}
	l := &PipelineLayout{}
	f.track(l, "pipeline layout")
	return l, nil
}

func (f *fakeDriver) DestroyPipelineLayout(l *PipelineLayout) {
	f.call("DestroyPipelineLayout")
	f.release(l)
}

func (f *fakeDriver) CreateShaderModule(code []byte) (*ShaderModule, error) {
	if err := f.call("CreateShaderModule"); err != nil {
		return nil, err
	}
	f.shaders = append(f.shaders, code)
	m := &ShaderModule{}
	f.track(m, "shader module")
	return m, nil
}

func (f *fakeDriver) DestroyShaderModule(m *ShaderModule) {
	f.call("DestroyShaderModule")
	f.release(m)
}

func (f *fakeDriver) CreateGraphicsPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if err := f.call("CreateGraphicsPipeline"); err != nil {
		return nil, err
	}
	f.pipelines = append(f.pipelines, cfg)
	p := &Pipeline{}
	f.track(p, "pipeline")
	return p, nil
}

func (f *fakeDriver) DestroyPipeline(p *Pipeline) {
	f.call("DestroyPipeline")
	f.release(p)
}

func (f *fakeDriver) CreateFramebuffer(rp *RenderPass, view *ImageView, extent vk.Extent2D) (*Framebuffer, error) {
	if err := f.call("CreateFramebuffer"); err != nil {
		return nil, err
	}
	fb := &Framebuffer{}
	f.track(fb, "framebuffer")
	return fb, nil
}

func (f *fakeDriver) DestroyFramebuffer(fb *Framebuffer) {
	f.call("DestroyFramebuffer")
	f.release(fb)
}

func (f *fakeDriver) CreateDescriptorPool(bindings []DescriptorBinding, maxSets uint32) (*DescriptorPool, error) {
	if err := f.call("CreateDescriptorPool"); err != nil {
		return nil, err
	}
	p := &DescriptorPool{}
	f.track(p, "descriptor pool")
	return p, nil
}

func (f *fakeDriver) DestroyDescriptorPool(p *DescriptorPool) {
	f.call("DestroyDescriptorPool")
	f.release(p)
}

func (f *fakeDriver) AllocateDescriptorSet(pool *DescriptorPool, layout *DescriptorSetLayout) (*DescriptorSet, error) {
	if err := f.call("AllocateDescriptorSet"); err != nil {
		return nil, err
	}
	return &DescriptorSet{}, nil
}

func (f *fakeDriver) UpdateDescriptorSet(set *DescriptorSet, w DescriptorWrite) {
	f.call("UpdateDescriptorSet")
	f.descriptors = append(f.descriptors, w)
}

func (f *fakeDriver) CreateSemaphore() (*Semaphore, error) {
	if err := f.call("CreateSemaphore"); err != nil {
		return nil, err
	}
	s := &Semaphore{}
	f.track(s, "semaphore")
	return s, nil
}

func (f *fakeDriver) DestroySemaphore(s *Semaphore) {
	f.call("DestroySemaphore")
	f.release(s)
}

func (f *fakeDriver) AcquireNextImage(c *Chain, signal *Semaphore) (uint32, vk.Result) {
	f.call("AcquireNextImage")
	ret := vk.Success
	if len(f.acquireResults) > 0 {
		ret, f.acquireResults = f.acquireResults[0], f.acquireResults[1:]
	}
	if ret != vk.Success && ret != vk.Suboptimal {
		return 0, ret
	}
	index := uint32(f.acquired % len(c.images))
	f.acquired++
	return index, ret
}

func (f *fakeDriver) Submit(cb *CommandBuffer, wait *Semaphore, waitStage vk.PipelineStageFlags, signal *Semaphore) error {
	if err := f.call("Submit"); err != nil {
		return err
	}
	if _, ok := f.live[cb]; !ok {
		return errors.New("fake: submit of a dead command buffer")
	}
	f.submits++
	return nil
}

func (f *fakeDriver) Present(c *Chain, index uint32, wait *Semaphore) vk.Result {
	f.call("Present")
	if len(f.presentResults) > 0 {
		ret := f.presentResults[0]
		f.presentResults = f.presentResults[1:]
		return ret
	}
	return vk.Success
}

func (f *fakeDriver) Close() {
	f.call("Close")
	f.closed = true
}
