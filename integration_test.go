//go:build integration

package meshvk_test

import (
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andewx/meshvk"
	"github.com/andewx/meshvk/assets"
	"github.com/andewx/meshvk/display"
)

//TestRenderFrames opens a real window and draws a few frames. It needs a
//Vulkan capable GPU, a display and compiled shaders under MESHVK_ASSETS.
func TestRenderFrames(t *testing.T) {
	root := os.Getenv("MESHVK_ASSETS")
	if root == "" {
		t.Skip("MESHVK_ASSETS not set")
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	require.NoError(t, display.Init())
	defer display.Terminate()

	cfg := meshvk.DefaultConfig()
	cfg.Window.Width, cfg.Window.Height = 500, 500
	cfg.Vulkan.Validation = os.Getenv("MESHVK_VALIDATION") != ""
	cfg.Device.RequireDiscrete = false

	win, err := display.NewWindow(display.Options{
		Width: cfg.Window.Width, Height: cfg.Window.Height, Title: "Vulkan", Resizable: true,
	})
	require.NoError(t, err)
	defer win.Close()

	logger := meshvk.NewWriterLogger(os.Stderr)
	backend, err := meshvk.NewBackend(cfg, win, assets.NewSource(root), logger)
	require.NoError(t, err)

	w, h := win.DrawableSize()
	require.NoError(t, backend.Initialize(w, h))
	for i := 0; i < 10; i++ {
		win.PollEvents()
		require.NoError(t, backend.RenderFrame())
	}
	require.NoError(t, backend.Shutdown())
}
