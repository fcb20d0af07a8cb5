package meshvk

import vk "github.com/vulkan-go/vulkan"

var (
	DefaultAppVersion = vk.MakeVersion(1, 0, 0)
	DefaultAPIVersion = vk.MakeVersion(1, 1, 0)
)

const engineName = "meshvk"

//debugReportExtension is enabled alongside the validation layers
const debugReportExtension = "VK_EXT_debug_report"

//applicationInfo describes the application to the instance
func applicationInfo(cfg Config) *vk.ApplicationInfo {
	return &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(DefaultAPIVersion),
		ApplicationVersion: uint32(DefaultAppVersion),
		PApplicationName:   safeString(cfg.AppName),
		PEngineName:        safeString(engineName),
		EngineVersion:      uint32(DefaultAppVersion),
	}
}

//instanceRequest lists the instance extensions and layers a config needs.
//The window decides the surface extensions.
func instanceRequest(cfg Config, windowExtensions []string) (extensions, layers []string) {
	extensions = append(extensions, windowExtensions...)
	if cfg.Vulkan.Validation {
		extensions = append(extensions, debugReportExtension)
		layers = append(layers, cfg.Vulkan.Layers...)
	}
	return dedupe(extensions), dedupe(layers)
}
