package meshvk

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

const (
	BackendVulkan = "vulkan"
	BackendNull   = "null"
)

//Config describes how the renderer is created. It is read from a TOML file;
//every field not present in the file keeps its DefaultConfig value.
type Config struct {
	AppName string `toml:"app_name"`
	Backend string `toml:"backend"`
	LogDir  string `toml:"log_dir"`

	Window  WindowConfig  `toml:"window"`
	Vulkan  VulkanConfig  `toml:"vulkan"`
	Device  DeviceConfig  `toml:"device"`
	Assets  AssetConfig   `toml:"assets"`
	Display DisplayConfig `toml:"display"`
}

type WindowConfig struct {
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	Title     string `toml:"title"`
	Resizable bool   `toml:"resizable"`
}

type VulkanConfig struct {
	Validation       bool     `toml:"validation"`
	Layers           []string `toml:"layers"`
	DeviceExtensions []string `toml:"device_extensions"`
}

//DeviceConfig lists what the capability prober insists on
type DeviceConfig struct {
	RequireDiscrete       bool    `toml:"require_discrete"`
	RequireGeometryShader bool    `toml:"require_geometry_shader"`
	Anisotropy            bool    `toml:"anisotropy"`
	MaxAnisotropy         float32 `toml:"max_anisotropy"`
}

type AssetConfig struct {
	VertexShader   string `toml:"vertex_shader"`
	FragmentShader string `toml:"fragment_shader"`
	Texture        string `toml:"texture"`
}

type DisplayConfig struct {
	ClearColor [4]float32 `toml:"clear_color"`
}

func DefaultConfig() Config {
	return Config{
		AppName: "meshvk",
		Backend: BackendVulkan,
		Window: WindowConfig{
			Width:     800,
			Height:    600,
			Title:     "Vulkan",
			Resizable: true,
		},
		Vulkan: VulkanConfig{
			Layers: []string{"VK_LAYER_KHRONOS_validation"},
		},
		Device: DeviceConfig{
			RequireDiscrete:       true,
			RequireGeometryShader: true,
			Anisotropy:            true,
			MaxAnisotropy:         16,
		},
		Assets: AssetConfig{
			VertexShader:   "shaders/vert.spv",
			FragmentShader: "shaders/frag.spv",
			Texture:        "textures/texture.png",
		},
		Display: DisplayConfig{
			ClearColor: [4]float32{0, 0, 0, 1},
		},
	}
}

//LoadConfig reads path over DefaultConfig. A missing file is an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	switch c.Backend {
	case BackendVulkan, BackendNull:
	default:
		return errors.Errorf("unknown backend %q", c.Backend)
	}
	if c.Device.Anisotropy && c.Device.MaxAnisotropy < 1 {
		return errors.Errorf("max_anisotropy must be >= 1 when anisotropy is enabled, got %v", c.Device.MaxAnisotropy)
	}
	return nil
}

//Requirements derives the prober's contract from the config
func (c Config) Requirements() Requirements {
	exts := append([]string{SwapchainExtension}, c.Vulkan.DeviceExtensions...)
	return Requirements{
		Discrete:          c.Device.RequireDiscrete,
		GeometryShader:    c.Device.RequireGeometryShader,
		SamplerAnisotropy: c.Device.Anisotropy,
		Extensions:        dedupe(exts),
	}
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0:0]
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
