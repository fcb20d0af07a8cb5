package meshvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

//vulkanDriver is the Driver over a live Vulkan instance. It owns the
//instance, the debug callback, the surface and, once created, the logical
//device with its queues and command pool.
type vulkanDriver struct {
	log *Logger

	instance      vk.Instance
	surface       vk.Surface
	debugCallback vk.DebugReportCallback
	layers        []string
	gpus          []vk.PhysicalDevice

	gpu            vk.PhysicalDevice
	device         vk.Device
	graphicsQueue  vk.Queue
	presentQueue   vk.Queue
	graphicsFamily uint32
	pool           vk.CommandPool
}

var _ Driver = (*vulkanDriver)(nil)

//NewVulkanDriver creates the instance and the presentation surface for win.
//The vulkan loader must already be initialized (see display.InitVulkan).
func NewVulkanDriver(win SurfaceWindow, cfg Config, log *Logger) (Driver, error) {
	d := &vulkanDriver{log: log}
	if err := d.createInstance(win, cfg); err != nil {
		d.Close()
		return nil, err
	}
	surface, err := win.CreateSurface(d.instance)
	if err != nil {
		d.Close()
		return nil, resourceErr("window surface", err)
	}
	d.surface = surface
	return d, nil
}

func (d *vulkanDriver) createInstance(win SurfaceWindow, cfg Config) error {
	extensions, layers := instanceRequest(cfg, win.RequiredInstanceExtensions())

	actualExtensions, err := InstanceExtensions()
	if err != nil {
		return err
	}
	if err := requireNames("instance extensions", actualExtensions, extensions); err != nil {
		return err
	}
	if len(layers) > 0 {
		actualLayers, err := ValidationLayers()
		if err != nil {
			return err
		}
		if err := requireNames("validation layers", actualLayers, layers); err != nil {
			return err
		}
	}
	d.log.Info.Printf("vulkan: enabling %d instance extensions, %d layers", len(extensions), len(layers))

	var instance vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        applicationInfo(cfg),
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}, nil, &instance)
	if err := NewError("create instance", ret); err != nil {
		return resourceErr("instance", err)
	}
	d.instance = instance
	d.layers = layers
	if err := vk.InitInstance(instance); err != nil {
		return errors.Wrap(err, "init instance")
	}

	if cfg.Vulkan.Validation {
		var callback vk.DebugReportCallback
		ret := vk.CreateDebugReportCallback(instance, &vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: d.debugReport,
		}, nil, &callback)
		if err := NewError("create debug report callback", ret); err != nil {
			return resourceErr("debug report callback", err)
		}
		d.debugCallback = callback
		d.log.Info.Printf("vulkan: debug report callback enabled")
	}
	return nil
}

//Close tears down the surface, debug callback and instance. The device has
//to be gone already.
func (d *vulkanDriver) Close() {
	if d.device != nil {
		d.DestroyDevice()
	}
	if d.surface != vk.NullSurface {
		vk.DestroySurface(d.instance, d.surface, nil)
		d.surface = vk.NullSurface
	}
	if d.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(d.instance, d.debugCallback, nil)
		d.debugCallback = vk.NullDebugReportCallback
	}
	if d.instance != nil {
		vk.DestroyInstance(d.instance, nil)
		d.instance = nil
	}
}
