package meshvk

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

type fakeWindow struct {
	width, height int
	polls         int
	closeAfter    int
	onResize      func(w, h int)
}

func (w *fakeWindow) ShouldClose() bool { return w.closeAfter >= 0 && w.polls >= w.closeAfter }
func (w *fakeWindow) PollEvents() { w.polls++ }
func (w *fakeWindow) DrawableSize() (int, int) { return w.width, w.height }
func (w *fakeWindow) SetResizeCallback(fn func(w, h int)) { w.onResize = fn }

//resize changes the drawable size and fires the callback the way glfw does
func (w *fakeWindow) resize(width, height int) {
	w.width, w.height = width, height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

type fakeAssets struct {
	shaderErr error
	channels  int
	mesh      Mesh
}

func (a *fakeAssets) LoadBytecode(path string) ([]byte, error) {
	if a.shaderErr != nil {
		return nil, a.shaderErr
	}
	return []byte{0x03, 0x02, 0x23, 0x07, 0, 0, 0, 0}, nil
}

func (a *fakeAssets) DecodeImage(path string) ([]byte, int, int, int, error) {
	return make([]byte, 4*4*4), 4, 4, a.channels, nil
}

func (a *fakeAssets) Mesh() Mesh { return a.mesh }

func testQuad() Mesh {
	return Mesh{
		Vertices: []Vertex{
			{Pos: [2]float32{-0.5, -0.5}, Color: [3]float32{1, 0, 0}, TexCoord: [2]float32{1, 0}},
			{Pos: [2]float32{0.5, -0.5}, Color: [3]float32{0, 1, 0}, TexCoord: [2]float32{0, 0}},
			{Pos: [2]float32{0.5, 0.5}, Color: [3]float32{0, 0, 1}, TexCoord: [2]float32{0, 1}},
			{Pos: [2]float32{-0.5, 0.5}, Color: [3]float32{1, 1, 1}, TexCoord: [2]float32{1, 1}},
		},
		Indices: []uint16{0, 1, 2, 2, 3, 0},
	}
}

type rendererFixture struct {
	drv    *fakeDriver
	win    *fakeWindow
	assets *fakeAssets
	r      *Renderer
	clock  time.Time
}

func newRendererFixture(t *testing.T) *rendererFixture {
	t.Helper()
	f := &rendererFixture{
		drv:    newFakeDriver(),
		win:    &fakeWindow{width: 800, height: 600, closeAfter: -1},
		assets: &fakeAssets{channels: 4, mesh: testQuad()},
		clock:  time.Unix(1000, 0),
	}
	f.r = NewRenderer(f.drv, f.win, f.assets, DefaultConfig(), DiscardLogger())
	f.r.now = func() time.Time { return f.clock }
	return f
}

func (f *rendererFixture) init(t *testing.T) {
	t.Helper()
	require.NoError(t, f.r.Initialize(f.win.width, f.win.height))
}

func TestInitializeBuildsEverything(t *testing.T) {
	f := newRendererFixture(t)
	f.init(t)

	sc := f.r.Swapchain()
	require.True(t, sc.Present())
	views, fbs, cmds := sc.Counts()
	assert.Equal(t, views, fbs)
	assert.Equal(t, views, cmds)

	assert.Equal(t, 2, f.drv.liveCount("semaphore"))
	assert.Equal(t, 2, f.drv.liveCount("shader module"))
	assert.Equal(t, 1, f.drv.liveCount("image"))
	assert.Equal(t, 1, f.drv.liveCount("sampler"))
	assert.Equal(t, 1, f.drv.liveCount("descriptor set layout"))
	// vertex, index and uniform buffers
	assert.Equal(t, 3, f.drv.liveCount("buffer"))

	require.Len(t, f.drv.descriptors, 1)
	assert.Equal(t, vk.DeviceSize(uniformSize), f.drv.descriptors[0].UniformRange)
	require.Len(t, f.drv.samplers, 1)
	assert.True(t, f.drv.samplers[0].Anisotropy)
	assert.Equal(t, float32(16), f.drv.samplers[0].MaxAnisotropy)

	img := f.r.texture.Image()
	w, h := img.Extent()
	assert.Equal(t, [2]uint32{4, 4}, [2]uint32{w, h})
	assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, img.Layout())
	assert.True(t, f.r.Device().Features().SamplerAnisotropy)
}

func TestInitializeTwiceFails(t *testing.T) {
	f := newRendererFixture(t)
	f.init(t)
	assert.Error(t, f.r.Initialize(800, 600))
}

func TestInitializeRejectsZeroSize(t *testing.T) {
	f := newRendererFixture(t)
	assert.Error(t, f.r.Initialize(0, 600))
	assert.Empty(t, f.drv.calls)
}

func TestInitializeShaderFailureReleasesEverything(t *testing.T) {
	f := newRendererFixture(t)
	f.assets.shaderErr = errors.New("no such file")

	err := f.r.Initialize(800, 600)
	var sle *ShaderLoadError
	require.True(t, errors.As(err, &sle))
	assert.Equal(t, "shaders/vert.spv", sle.Path)
	assert.Empty(t, f.drv.live)
	assert.Equal(t, 1, f.drv.count("DestroyDevice"))
	assert.False(t, f.drv.closed)

	require.NoError(t, f.r.Shutdown())
	assert.True(t, f.drv.closed)
}

func TestInitializeRejectsNonRGBATexture(t *testing.T) {
	f := newRendererFixture(t)
	f.assets.channels = 3
	err := f.r.Initialize(800, 600)
	var tle *TextureLoadError
	require.True(t, errors.As(err, &tle))
	assert.Empty(t, f.drv.live)
}

func TestInitializeWithoutSuitableDevice(t *testing.T) {
	f := newRendererFixture(t)
	f.drv.gpus[0].SamplerAnisotropy = false
	err := f.r.Initialize(800, 600)
	assert.True(t, IsCapabilityError(err))
	assert.Equal(t, 0, f.drv.count("CreateDevice"))
}

func TestRenderFrameBeforeInitialize(t *testing.T) {
	f := newRendererFixture(t)
	assert.Error(t, f.r.RenderFrame())
}

func TestRenderFrameSubmitsAndPresents(t *testing.T) {
	f := newRendererFixture(t)
	f.init(t)
	f.clock = f.clock.Add(time.Second)

	require.NoError(t, f.r.RenderFrame())
	assert.Equal(t, 1, f.drv.submits)
	assert.Equal(t, 1, f.drv.count("Present"))
	assert.Equal(t, uint64(1), f.r.Frames())

	// the uniform write lands before the submission that reads it
	assert.Less(t, f.drv.lastIndex("WriteMemory"), f.drv.lastIndex("Submit"))
	assert.Less(t, f.drv.lastIndex("Submit"), f.drv.lastIndex("Present"))
	// the frame ends with the device idle
	assert.Equal(t, "WaitIdle", f.drv.calls[len(f.drv.calls)-1])

	ubo := f.r.uniforms.Last()
	assert.Less(t, ubo.Proj[5], float32(0))
}

func TestRenderFrameAcquireOutOfDateRebuildsAndSkips(t *testing.T) {
	f := newRendererFixture(t)
	f.init(t)
	f.drv.acquireResults = []vk.Result{vk.ErrorOutOfDate}

	require.NoError(t, f.r.RenderFrame())
	assert.Equal(t, 2, f.r.Swapchain().Rebuilds())
	assert.Equal(t, 0, f.drv.submits)
	assert.Equal(t, 0, f.drv.count("Present"))
	assert.Equal(t, uint64(0), f.r.Frames())

	require.NoError(t, f.r.RenderFrame())
	assert.Equal(t, 1, f.drv.submits)
}

func TestRenderFramePresentOutOfDateRebuilds(t *testing.T) {
	f := newRendererFixture(t)
	f.init(t)
	f.drv.presentResults = []vk.Result{vk.ErrorOutOfDate}

	require.NoError(t, f.r.RenderFrame())
	assert.Equal(t, 1, f.drv.submits)
	assert.Equal(t, 2, f.r.Swapchain().Rebuilds())
}

func TestRenderFrameSuboptimalIsNotAnError(t *testing.T) {
	f := newRendererFixture(t)
	f.init(t)
	f.drv.acquireResults = []vk.Result{vk.Suboptimal}
	f.drv.presentResults = []vk.Result{vk.Suboptimal}

	require.NoError(t, f.r.RenderFrame())
	assert.Equal(t, 1, f.r.Swapchain().Rebuilds())
	assert.Equal(t, uint64(1), f.r.Frames())
}

func TestRenderFrameFatalAcquire(t *testing.T) {
	f := newRendererFixture(t)
	f.init(t)
	f.drv.acquireResults = []vk.Result{vk.ErrorDeviceLost}

	err := f.r.RenderFrame()
	var ve *VulkanError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, vk.ErrorDeviceLost, ve.Result)
}

func TestResizeRebuildsBeforeNextFrame(t *testing.T) {
	f := newRendererFixture(t)
	f.init(t)

	f.drv.support.Capabilities.CurrentExtent = vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32}
	f.win.resize(1024, 768)
	assert.Equal(t, 1, f.r.Swapchain().Rebuilds())

	require.NoError(t, f.r.RenderFrame())
	assert.Equal(t, 2, f.r.Swapchain().Rebuilds())
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 768}, f.r.Swapchain().Extent())
	assert.Equal(t, 1, f.drv.submits)
}

func TestResizeToZeroIsIgnored(t *testing.T) {
	f := newRendererFixture(t)
	f.init(t)

	f.win.resize(0, 0)
	require.NoError(t, f.r.RenderFrame())
	assert.Equal(t, 1, f.r.Swapchain().Rebuilds())
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, f.r.Swapchain().Extent())
}

func TestOutOfDateWhileMinimizedWaits(t *testing.T) {
	f := newRendererFixture(t)
	f.init(t)
	f.win.width, f.win.height = 0, 0
	f.drv.acquireResults = []vk.Result{vk.ErrorOutOfDate}

	require.NoError(t, f.r.RenderFrame())
	assert.Equal(t, 1, f.r.Swapchain().Rebuilds())
	assert.Equal(t, 0, f.drv.submits)
}

func TestMinimizedSurfaceSkipsFrames(t *testing.T) {
	f := newRendererFixture(t)
	f.init(t)

	f.drv.support.Capabilities.CurrentExtent = vk.Extent2D{Width: 0, Height: 0}
	f.win.resize(800, 600)
	require.NoError(t, f.r.RenderFrame())
	assert.False(t, f.r.Swapchain().Present())
	assert.Equal(t, 0, f.drv.submits)
	assert.Equal(t, 0, f.drv.count("AcquireNextImage"))

	f.drv.support.Capabilities.CurrentExtent = vk.Extent2D{Width: 800, Height: 600}
	require.NoError(t, f.r.RenderFrame())
	assert.True(t, f.r.Swapchain().Present())
	assert.Equal(t, 1, f.drv.submits)
}

func TestShutdownReleasesEverythingDeviceLast(t *testing.T) {
	f := newRendererFixture(t)
	f.init(t)
	require.NoError(t, f.r.RenderFrame())

	require.NoError(t, f.r.Shutdown())
	assert.Empty(t, f.drv.live, "leaked: %v", f.drv.liveKinds())
	assert.Zero(t, f.drv.liveAtDestroy)
	assert.True(t, f.drv.closed)
	assert.Less(t, f.drv.lastIndex("DestroyDevice"), f.drv.lastIndex("Close"))

	require.NoError(t, f.r.Shutdown())
	assert.Equal(t, 1, f.drv.count("DestroyDevice"))
	assert.Equal(t, 1, f.drv.count("Close"))
}

func TestScenarioSingleDiscreteGPU(t *testing.T) {
	f := newRendererFixture(t)
	f.drv.support.Formats = []vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		PreferredSurfaceFormat,
	}
	f.drv.support.PresentModes = []vk.PresentMode{vk.PresentModeMailbox, vk.PresentModeFifo}
	f.drv.support.Capabilities.MinImageCount = 2
	f.drv.support.Capabilities.MaxImageCount = 3
	f.drv.gpus[0].Surface = f.drv.support
	f.init(t)

	sc := f.r.Swapchain()
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, sc.Extent())
	assert.Equal(t, 3, sc.ImageCount())
	assert.Equal(t, PreferredSurfaceFormat, sc.Format())
	assert.Equal(t, vk.PresentModeMailbox, sc.PresentMode())
}

func TestScenarioNoDiscreteGPU(t *testing.T) {
	f := newRendererFixture(t)
	f.drv.gpus[0].Type = vk.PhysicalDeviceTypeIntegratedGpu
	f.drv.gpus = append(f.drv.gpus, defaultGPU(1, f.drv.support))
	f.drv.gpus[1].Type = vk.PhysicalDeviceTypeCpu

	err := f.r.Initialize(800, 600)
	var nsd *NoSuitableDeviceError
	require.True(t, errors.As(err, &nsd))
	assert.Equal(t, 2, nsd.Candidates)
	assert.Nil(t, f.drv.device)
	assert.Empty(t, f.drv.live)
	assert.Nil(t, f.r.Device())
}
