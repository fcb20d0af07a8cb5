package meshvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

//PreferredSurfaceFormat is the known-good byte order and color space pair
var PreferredSurfaceFormat = vk.SurfaceFormat{
	Format:     vk.FormatB8g8r8a8Unorm,
	ColorSpace: vk.ColorSpaceSrgbNonlinear,
}

//Scene is what every rebuilt pipeline and command buffer draws. Its objects
//outlive any single swapchain.
type Scene struct {
	SetLayout     *DescriptorSetLayout
	DescriptorSet *DescriptorSet
	Vertex        *ShaderModule
	Fragment      *ShaderModule
	VertexBuffer  *Buffer
	IndexBuffer   *Buffer
	IndexCount    uint32
	ClearColor    [4]float32
}

//CoreSwapchain owns the presentable chain and everything sized by it. It is
//either absent or fully present; Rebuild is the only way in.
type CoreSwapchain struct {
	drv    Driver
	device *CoreDevice
	scene  Scene
	log    *Logger

	chain          *Chain
	format         vk.SurfaceFormat
	presentMode    vk.PresentMode
	extent         vk.Extent2D
	views          []*ImageView
	renderPass     *RenderPass
	pipelineLayout *PipelineLayout
	pipeline       *Pipeline
	framebuffers   []*Framebuffer
	commands       []*CommandBuffer

	rebuilds int
}

func NewCoreSwapchain(drv Driver, device *CoreDevice, scene Scene, log *Logger) *CoreSwapchain {
	return &CoreSwapchain{drv: drv, device: device, scene: scene, log: log}
}

func (s *CoreSwapchain) Present() bool { return s.chain != nil }
func (s *CoreSwapchain) Chain() *Chain { return s.chain }
func (s *CoreSwapchain) Format() vk.SurfaceFormat { return s.format }
func (s *CoreSwapchain) PresentMode() vk.PresentMode { return s.presentMode }
func (s *CoreSwapchain) Extent() vk.Extent2D { return s.extent }
func (s *CoreSwapchain) ImageCount() int { return len(s.views) }

//Rebuilds counts successful Rebuild calls
func (s *CoreSwapchain) Rebuilds() int { return s.rebuilds }

//Counts returns the number of image views, framebuffers and command buffers
func (s *CoreSwapchain) Counts() (views, framebuffers, commands int) {
	return len(s.views), len(s.framebuffers), len(s.commands)
}

//Command returns the pre-recorded command buffer for a chain image index
func (s *CoreSwapchain) Command(index uint32) (*CommandBuffer, error) {
	if int(index) >= len(s.commands) {
		return nil, errors.Errorf("image index %d out of range of %d command buffers", index, len(s.commands))
	}
	return s.commands[index], nil
}

//Rebuild destroys any existing state and negotiates a new chain for a window
//of width x height pixels.
func (s *CoreSwapchain) Rebuild(width, height uint32) error {
	if err := s.Destroy(); err != nil {
		return err
	}
	support, err := s.device.SurfaceSupport()
	if err != nil {
		return err
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return errors.WithStack(&CapabilityError{Reason: "surface exposes no formats or present modes"})
	}

	caps := support.Capabilities
	s.format = chooseSurfaceFormat(support.Formats)
	s.presentMode = choosePresentMode(support.PresentModes)
	s.extent = chooseExtent(caps, width, height)
	if s.extent.Width == 0 || s.extent.Height == 0 {
		//minimized: nothing to render into until the surface grows again
		s.log.Info.Printf("swapchain: surface extent %dx%d, leaving chain absent", s.extent.Width, s.extent.Height)
		return nil
	}
	sharing, families := chooseSharing(s.device.Families())

	s.chain, err = s.drv.CreateSwapchain(ChainConfig{
		Format:         s.format,
		PresentMode:    s.presentMode,
		Extent:         s.extent,
		ImageCount:     chooseImageCount(caps),
		PreTransform:   choosePreTransform(caps),
		CompositeAlpha: chooseCompositeAlpha(caps),
		SharingMode:    sharing,
		QueueFamilies:  families,
	})
	if err != nil {
		return s.abort(resourceErr("swapchain", err))
	}

	if err := s.build(); err != nil {
		return s.abort(err)
	}
	s.rebuilds++
	s.log.Info.Printf("swapchain: %d images %dx%d format %d present mode %d",
		len(s.views), s.extent.Width, s.extent.Height, s.format.Format, s.presentMode)
	return nil
}

//build creates every chain-sized object after the chain itself
func (s *CoreSwapchain) build() error {
	var err error
	for _, img := range s.chain.Images() {
		view, err := s.drv.CreateImageView(img)
		if err != nil {
			return resourceErr("swapchain image view", err)
		}
		s.views = append(s.views, view)
	}

	if s.renderPass, err = s.drv.CreateRenderPass(colorPassConfig(s.format.Format)); err != nil {
		return resourceErr("render pass", err)
	}
	if s.pipelineLayout, err = s.drv.CreatePipelineLayout(s.scene.SetLayout); err != nil {
		return resourceErr("pipeline layout", err)
	}
	s.pipeline, err = s.drv.CreateGraphicsPipeline(meshPipelineConfig(s.renderPass, s.pipelineLayout,
		s.scene.Vertex, s.scene.Fragment, s.extent))
	if err != nil {
		return resourceErr("graphics pipeline", err)
	}

	for _, view := range s.views {
		fb, err := s.drv.CreateFramebuffer(s.renderPass, view, s.extent)
		if err != nil {
			return resourceErr("framebuffer", err)
		}
		s.framebuffers = append(s.framebuffers, fb)
	}

	if s.commands, err = s.drv.AllocateCommandBuffers(len(s.framebuffers)); err != nil {
		return resourceErr("frame command buffers", err)
	}
	for i, cb := range s.commands {
		if err := s.record(cb, s.framebuffers[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *CoreSwapchain) record(cb *CommandBuffer, fb *Framebuffer) error {
	if err := s.drv.BeginCommandBuffer(cb, false); err != nil {
		return errors.Wrap(err, "begin frame commands")
	}
	s.drv.CmdMeshPass(cb, MeshPass{
		RenderPass:    s.renderPass,
		Framebuffer:   fb,
		Extent:        s.extent,
		ClearColor:    s.scene.ClearColor,
		Pipeline:      s.pipeline,
		Layout:        s.pipelineLayout,
		DescriptorSet: s.scene.DescriptorSet,
		VertexBuffer:  s.scene.VertexBuffer,
		IndexBuffer:   s.scene.IndexBuffer,
		IndexCount:    s.scene.IndexCount,
	})
	return errors.Wrap(s.drv.EndCommandBuffer(cb), "end frame commands")
}

//abort releases whatever a failed rebuild managed to create
func (s *CoreSwapchain) abort(err error) error {
	s.teardown()
	return err
}

//Destroy waits for the device to go idle and tears the chain down. Calling it
//while absent does nothing.
func (s *CoreSwapchain) Destroy() error {
	if !s.Present() {
		return nil
	}
	if err := s.device.WaitIdle(); err != nil {
		return err
	}
	s.teardown()
	return nil
}

func (s *CoreSwapchain) teardown() {
	if len(s.commands) > 0 {
		s.drv.FreeCommandBuffers(s.commands)
	}
	s.commands = nil
	for _, fb := range s.framebuffers {
		s.drv.DestroyFramebuffer(fb)
	}
	s.framebuffers = nil
	if s.pipeline != nil {
		s.drv.DestroyPipeline(s.pipeline)
		s.pipeline = nil
	}
	if s.pipelineLayout != nil {
		s.drv.DestroyPipelineLayout(s.pipelineLayout)
		s.pipelineLayout = nil
	}
	if s.renderPass != nil {
		s.drv.DestroyRenderPass(s.renderPass)
		s.renderPass = nil
	}
	for _, view := range s.views {
		s.drv.DestroyImageView(view)
	}
	s.views = nil
	if s.chain != nil {
		s.drv.DestroySwapchain(s.chain)
		s.chain = nil
	}
}

//chooseExtent uses the surface's current extent unless the surface leaves
//it to the application, in which case the window size is clamped.
func chooseExtent(caps vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

//chooseSurfaceFormat falls back to the first supported format when the
//preferred pair is missing.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		return PreferredSurfaceFormat
	}
	for _, f := range formats {
		if f.Format == PreferredSurfaceFormat.Format && f.ColorSpace == PreferredSurfaceFormat.ColorSpace {
			return f
		}
	}
	return formats[0]
}

//choosePresentMode scans the whole list: mailbox wins wherever it appears,
//then immediate, then FIFO which is always supported.
func choosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	best := vk.PresentModeFifo
	for _, m := range modes {
		switch m {
		case vk.PresentModeMailbox:
			best = m
		case vk.PresentModeImmediate:
			if best != vk.PresentModeMailbox {
				best = m
			}
		}
	}
	return best
}

//chooseImageCount asks for one more than the minimum. A max of 0 is unbounded.
func chooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func chooseSharing(q QueueFamilyIndices) (vk.SharingMode, []uint32) {
	if q.Shared() {
		return vk.SharingModeExclusive, nil
	}
	return vk.SharingModeConcurrent, []uint32{q.Graphics, q.Present}
}

func choosePreTransform(caps vk.SurfaceCapabilities) vk.SurfaceTransformFlagBits {
	if vk.SurfaceTransformFlagBits(caps.SupportedTransforms)&vk.SurfaceTransformIdentityBit != 0 {
		return vk.SurfaceTransformIdentityBit
	}
	return caps.CurrentTransform
}

// One of these is guaranteed to be set
func chooseCompositeAlpha(caps vk.SurfaceCapabilities) vk.CompositeAlphaFlagBits {
	for _, bit := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(bit) != 0 {
			return bit
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

//colorPassConfig clears the chain image, stores it and hands it to the
//presentation engine. The subpass may not write color until the previous
//presentation read of the image is done.
func colorPassConfig(format vk.Format) RenderPassConfig {
	return RenderPassConfig{
		Format:        format,
		LoadOp:        vk.AttachmentLoadOpClear,
		StoreOp:       vk.AttachmentStoreOpStore,
		InitialLayout: vk.ImageLayoutUndefined,
		FinalLayout:   vk.ImageLayoutPresentSrc,
		Dependency: SubpassDependency{
			SrcStage:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			DstStage:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			SrcAccess: 0,
			DstAccess: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		},
	}
}

func meshPipelineConfig(rp *RenderPass, layout *PipelineLayout, vert, frag *ShaderModule, extent vk.Extent2D) PipelineConfig {
	return PipelineConfig{
		RenderPass:  rp,
		Layout:      layout,
		Vertex:      vert,
		Fragment:    frag,
		Extent:      extent,
		Input:       MeshVertexLayout(),
		Topology:    vk.PrimitiveTopologyTriangleList,
		PolygonMode: vk.PolygonModeFill,
		CullMode:    vk.CullModeFlags(vk.CullModeBackBit),
		FrontFace:   vk.FrontFaceCounterClockwise,
		Samples:     vk.SampleCount1Bit,
		Blend:       false,
	}
}
