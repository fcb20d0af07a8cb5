package meshvk

import (
	"time"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

//Window is the part of the window system the frame loop consumes
type Window interface {
	ShouldClose() bool
	PollEvents()
	DrawableSize() (width, height int)
	//SetResizeCallback replaces any previously registered callback
	SetResizeCallback(fn func(width, height int))
}

//SurfaceWindow is a Window the Vulkan driver can present to
type SurfaceWindow interface {
	Window
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}

//AssetSource loads what the renderer draws. DecodeImage returns tightly
//packed 8-bit RGBA pixels.
type AssetSource interface {
	LoadBytecode(path string) ([]byte, error)
	DecodeImage(path string) (pixels []byte, width, height, channels int, err error)
	Mesh() Mesh
}

//Renderer is the Vulkan backend: one device, one textured mesh, one chain,
//one frame in flight.
type Renderer struct {
	drv Driver
	win Window
	src AssetSource
	cfg Config
	log *Logger
	now func() time.Time

	device    *CoreDevice
	xfer      *CoreTransfer
	vertices  *Buffer
	indices   *Buffer
	texture   *Texture
	uniforms  *CoreUniform
	vert      *ShaderModule
	frag      *ShaderModule
	swapchain *CoreSwapchain

	imageAvailable *Semaphore
	renderFinished *Semaphore

	start         time.Time
	resizePending bool
	resizeWidth   uint32
	resizeHeight  uint32
	frames        uint64
	closed        bool
}

//NewRenderer registers the resize callback on win; nothing touches the GPU
//until Initialize.
func NewRenderer(drv Driver, win Window, src AssetSource, cfg Config, log *Logger) *Renderer {
	r := &Renderer{drv: drv, win: win, src: src, cfg: cfg, log: log, now: time.Now}
	win.SetResizeCallback(r.OnResize)
	return r
}

func (r *Renderer) Swapchain() *CoreSwapchain { return r.swapchain }
func (r *Renderer) Device() *CoreDevice { return r.device }
func (r *Renderer) Frames() uint64 { return r.frames }

//OnResize schedules a rebuild for the next frame. A zero dimension is not
//renderable and is dropped.
func (r *Renderer) OnResize(width, height int) {
	if width <= 0 || height <= 0 {
		r.log.Info.Printf("ignoring resize to %dx%d", width, height)
		return
	}
	r.resizePending = true
	r.resizeWidth, r.resizeHeight = uint32(width), uint32(height)
}

//Initialize creates every GPU object the frame loop needs. On failure
//nothing created here is left alive.
func (r *Renderer) Initialize(width, height int) error {
	if r.device != nil {
		return errors.New("renderer already initialized")
	}
	if width <= 0 || height <= 0 {
		return errors.Errorf("initial size must be positive, got %dx%d", width, height)
	}
	if err := r.initialize(uint32(width), uint32(height)); err != nil {
		r.release()
		return err
	}
	r.start = r.now()
	return nil
}

func (r *Renderer) initialize(width, height uint32) error {
	var err error
	if r.device, err = NewCoreDevice(r.drv, r.cfg.Requirements(), r.log); err != nil {
		return err
	}
	r.xfer = NewCoreTransfer(r.drv, r.device.MemoryTypes(), r.log)

	mesh := r.src.Mesh()
	if len(mesh.Vertices) == 0 || len(mesh.Indices) == 0 {
		return errors.New("mesh has no geometry")
	}
	if r.vertices, err = r.xfer.UploadToBuffer(mesh.VertexBytes(), vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)); err != nil {
		return errors.Wrap(err, "vertex buffer")
	}
	if r.indices, err = r.xfer.UploadToBuffer(mesh.IndexBytes(), vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit)); err != nil {
		return errors.Wrap(err, "index buffer")
	}

	if err = r.loadTexture(); err != nil {
		return err
	}
	if r.uniforms, err = NewCoreUniform(r.drv, r.xfer); err != nil {
		return err
	}
	r.uniforms.Bind(r.texture)

	if r.vert, err = r.loadShader(r.cfg.Assets.VertexShader); err != nil {
		return err
	}
	if r.frag, err = r.loadShader(r.cfg.Assets.FragmentShader); err != nil {
		return err
	}

	r.swapchain = NewCoreSwapchain(r.drv, r.device, Scene{
		SetLayout:     r.uniforms.Layout(),
		DescriptorSet: r.uniforms.Set(),
		Vertex:        r.vert,
		Fragment:      r.frag,
		VertexBuffer:  r.vertices,
		IndexBuffer:   r.indices,
		IndexCount:    mesh.IndexCount(),
		ClearColor:    r.cfg.Display.ClearColor,
	}, r.log)
	if err = r.swapchain.Rebuild(width, height); err != nil {
		return err
	}

	if r.imageAvailable, err = r.drv.CreateSemaphore(); err != nil {
		return resourceErr("image available semaphore", err)
	}
	if r.renderFinished, err = r.drv.CreateSemaphore(); err != nil {
		return resourceErr("render finished semaphore", err)
	}
	return nil
}

func (r *Renderer) loadTexture() error {
	path := r.cfg.Assets.Texture
	pixels, w, h, channels, err := r.src.DecodeImage(path)
	if err != nil {
		var tle *TextureLoadError
		if errors.As(err, &tle) {
			return err
		}
		return errors.WithStack(&TextureLoadError{Path: path, Err: err})
	}
	if channels != 4 || w <= 0 || h <= 0 {
		return errors.WithStack(&TextureLoadError{
			Path: path,
			Err:  errors.Errorf("decoded %dx%d image with %d channels, want RGBA", w, h, channels),
		})
	}

	sampler := SamplerConfig{Anisotropy: r.cfg.Device.Anisotropy, MaxAnisotropy: r.cfg.Device.MaxAnisotropy}
	if limit := r.device.Info().MaxSamplerAnisotropy; sampler.Anisotropy && limit > 0 && sampler.MaxAnisotropy > limit {
		sampler.MaxAnisotropy = limit
	}
	r.texture, err = NewTexture(r.drv, r.xfer, pixels, uint32(w), uint32(h), sampler)
	return err
}

func (r *Renderer) loadShader(path string) (*ShaderModule, error) {
	code, err := r.src.LoadBytecode(path)
	if err != nil {
		var sle *ShaderLoadError
		if errors.As(err, &sle) {
			return nil, err
		}
		return nil, errors.WithStack(&ShaderLoadError{Path: path, Err: err})
	}
	module, err := r.drv.CreateShaderModule(code)
	if err != nil {
		return nil, resourceErr("shader module "+path, err)
	}
	return module, nil
}

//RenderFrame draws one frame and returns once the device is idle again. A
//stale chain is rebuilt and the frame skipped; that is not an error.
func (r *Renderer) RenderFrame() error {
	if r.swapchain == nil {
		return errors.New("renderer is not initialized")
	}
	if r.resizePending {
		r.resizePending = false
		if err := r.swapchain.Rebuild(r.resizeWidth, r.resizeHeight); err != nil {
			return errors.Wrap(err, "rebuild after resize")
		}
	}
	if !r.swapchain.Present() {
		if err := r.rebuildFromWindow(); err != nil {
			return err
		}
		if !r.swapchain.Present() {
			return nil
		}
	}

	if err := r.uniforms.UpdatePerFrame(r.now().Sub(r.start), r.swapchain.Extent()); err != nil {
		return err
	}

	chain := r.swapchain.Chain()
	index, ret := r.drv.AcquireNextImage(chain, r.imageAvailable)
	switch classifyPresent(ret) {
	case presentOutOfDate:
		r.log.Info.Printf("acquire: swapchain out of date, rebuilding")
		return r.rebuildFromWindow()
	case presentFatal:
		return NewError("acquire next image", ret)
	}

	cb, err := r.swapchain.Command(index)
	if err != nil {
		return err
	}
	err = r.drv.Submit(cb, r.imageAvailable,
		vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit), r.renderFinished)
	if err != nil {
		return errors.Wrap(err, "submit frame")
	}

	ret = r.drv.Present(chain, index, r.renderFinished)
	switch classifyPresent(ret) {
	case presentOutOfDate:
		r.log.Info.Printf("present: swapchain out of date, rebuilding")
		if err := r.rebuildFromWindow(); err != nil {
			return err
		}
	case presentFatal:
		return NewError("queue present", ret)
	}

	r.frames++
	return r.device.WaitIdle()
}

func (r *Renderer) rebuildFromWindow() error {
	w, h := r.win.DrawableSize()
	if w <= 0 || h <= 0 {
		return nil
	}
	r.resizePending = false
	return errors.Wrap(r.swapchain.Rebuild(uint32(w), uint32(h)), "rebuild stale swapchain")
}

//Shutdown releases everything and closes the driver. Safe to call more than
//once and after a failed Initialize.
func (r *Renderer) Shutdown() error {
	if r.closed {
		return nil
	}
	r.closed = true
	var err error
	if r.device != nil {
		err = r.device.WaitIdle()
	}
	r.release()
	r.drv.Close()
	r.log.Info.Printf("renderer shut down after %d frames", r.frames)
	return err
}

//release destroys in reverse creation order, skipping what was never made
func (r *Renderer) release() {
	if r.renderFinished != nil {
		r.drv.DestroySemaphore(r.renderFinished)
		r.renderFinished = nil
	}
	if r.imageAvailable != nil {
		r.drv.DestroySemaphore(r.imageAvailable)
		r.imageAvailable = nil
	}
	if r.swapchain != nil {
		if err := r.swapchain.Destroy(); err != nil {
			r.log.Warn.Printf("swapchain teardown: %v", err)
			r.swapchain.teardown()
		}
		r.swapchain = nil
	}
	if r.frag != nil {
		r.drv.DestroyShaderModule(r.frag)
		r.frag = nil
	}
	if r.vert != nil {
		r.drv.DestroyShaderModule(r.vert)
		r.vert = nil
	}
	if r.uniforms != nil {
		r.uniforms.Destroy()
		r.uniforms = nil
	}
	if r.texture != nil {
		r.texture.Destroy(r.drv, r.xfer)
		r.texture = nil
	}
	if r.xfer != nil {
		r.xfer.DestroyBuffer(r.indices)
		r.xfer.DestroyBuffer(r.vertices)
		r.indices, r.vertices = nil, nil
	}
	if r.device != nil {
		r.device.Destroy()
		r.device = nil
	}
}
