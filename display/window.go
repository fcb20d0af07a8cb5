//Package display is the glfw window the renderer presents to.
package display

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/meshvk"
)

//Options configures the window at creation
type Options struct {
	Width     int
	Height    int
	Title     string
	Resizable bool
}

//Window wraps a glfw window created without a client API. All calls must
//come from the thread that called Init (the locked main thread).
type Window struct {
	window   *glfw.Window
	onResize func(width, height int)
}

var _ meshvk.SurfaceWindow = (*Window)(nil)

//Init starts glfw and points the vulkan loader at glfw's proc address.
func Init() error {
	if err := glfw.Init(); err != nil {
		return errors.Wrap(err, "glfw init")
	}
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		glfw.Terminate()
		return errors.Wrap(err, "vulkan loader init")
	}
	return nil
}

//Terminate releases glfw. Every window has to be closed first.
func Terminate() {
	glfw.Terminate()
}

func NewWindow(opts Options) (*Window, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, errors.Errorf("window size must be positive, got %dx%d", opts.Width, opts.Height)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Visible, glfw.True)
	if opts.Resizable {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Resizable, glfw.False)
	}
	win, err := glfw.CreateWindow(opts.Width, opts.Height, opts.Title, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create window")
	}
	w := &Window{window: win}
	win.SetFramebufferSizeCallback(w.framebufferResized)
	return w, nil
}

func (w *Window) framebufferResized(_ *glfw.Window, width, height int) {
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

func (w *Window) ShouldClose() bool {
	return w.window.ShouldClose()
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

//DrawableSize is the framebuffer size in pixels, which can differ from the
//window size on high density displays.
func (w *Window) DrawableSize() (int, int) {
	return w.window.GetFramebufferSize()
}

func (w *Window) SetResizeCallback(fn func(width, height int)) {
	w.onResize = fn
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.window.GetRequiredInstanceExtensions()
}

func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := w.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "create window surface")
	}
	return vk.SurfaceFromPointer(ptr), nil
}

//Close destroys the window. Calling it twice is harmless.
func (w *Window) Close() {
	if w.window == nil {
		return
	}
	w.window.Destroy()
	w.window = nil
}
