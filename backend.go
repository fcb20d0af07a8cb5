package meshvk

import (
	"github.com/pkg/errors"
)

//Backend is the contract the application loop drives. Exactly one backend
//is chosen at startup.
type Backend interface {
	Initialize(width, height int) error
	RenderFrame() error
	Shutdown() error
}

var (
	_ Backend = (*Renderer)(nil)
	_ Backend = (*NullBackend)(nil)
)

//NullBackend accepts every call and draws nothing
type NullBackend struct {
	log         *Logger
	initialized bool
	frames      uint64
}

func NewNullBackend(log *Logger) *NullBackend {
	return &NullBackend{log: log}
}

func (n *NullBackend) Initialize(width, height int) error {
	n.initialized = true
	n.log.Info.Printf("null backend: initialized %dx%d", width, height)
	return nil
}

func (n *NullBackend) RenderFrame() error {
	n.frames++
	return nil
}

func (n *NullBackend) Shutdown() error {
	n.initialized = false
	n.log.Info.Printf("null backend: shut down after %d frames", n.frames)
	return nil
}

func (n *NullBackend) Frames() uint64 { return n.frames }

//NewBackend builds the backend named by cfg.Backend
func NewBackend(cfg Config, win SurfaceWindow, src AssetSource, log *Logger) (Backend, error) {
	switch cfg.Backend {
	case BackendNull:
		return NewNullBackend(log), nil
	case BackendVulkan:
		drv, err := NewVulkanDriver(win, cfg, log)
		if err != nil {
			return nil, err
		}
		return NewRenderer(drv, win, src, cfg, log), nil
	}
	return nil, errors.Errorf("unknown backend %q", cfg.Backend)
}

//Run polls win and renders until the window asks to close. The backend must
//already be initialized.
func Run(b Backend, win Window) error {
	for !win.ShouldClose() {
		win.PollEvents()
		if err := b.RenderFrame(); err != nil {
			return err
		}
	}
	return nil
}
