package meshvk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meshvk.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, BackendVulkan, cfg.Backend)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
backend = "null"

[window]
width = 1280
title = "quad"

[vulkan]
validation = true
device_extensions = ["VK_KHR_swapchain", "VK_KHR_maintenance1"]

[display]
clear_color = [0.1, 0.2, 0.3, 1.0]
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, BackendNull, cfg.Backend)
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, "quad", cfg.Window.Title)
	assert.True(t, cfg.Vulkan.Validation)
	assert.Equal(t, []string{"VK_LAYER_KHRONOS_validation"}, cfg.Vulkan.Layers)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1.0}, cfg.Display.ClearColor)
	assert.Equal(t, "shaders/vert.spv", cfg.Assets.VertexShader)

	req := cfg.Requirements()
	assert.Equal(t, []string{SwapchainExtension, "VK_KHR_maintenance1"}, req.Extensions)
	assert.True(t, req.Discrete)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "backend = "))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, `backend = "metal"`))
	assert.ErrorContains(t, err, "unknown backend")

	_, err = LoadConfig(writeConfig(t, "[window]\nwidth = 0\n"))
	assert.ErrorContains(t, err, "window size")
}

func TestValidateAnisotropy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device.MaxAnisotropy = 0
	assert.Error(t, cfg.Validate())

	cfg.Device.Anisotropy = false
	assert.NoError(t, cfg.Validate())
}
