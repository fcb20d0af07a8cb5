package meshvk

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

//debugReport routes validation layer messages to the matching log stream
func (d *vulkanDriver) debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		d.log.Error.Printf("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		d.log.Warn.Printf("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		d.log.Warn.Printf("PERFORMANCE [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		d.log.Info.Printf("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}

func (d *vulkanDriver) PhysicalDevices() ([]PhysicalDeviceInfo, error) {
	var count uint32
	ret := vk.EnumeratePhysicalDevices(d.instance, &count, nil)
	if err := NewError("enumerate physical devices", ret); err != nil {
		return nil, err
	}
	gpus := make([]vk.PhysicalDevice, count)
	ret = vk.EnumeratePhysicalDevices(d.instance, &count, gpus)
	if err := NewError("enumerate physical devices", ret); err != nil {
		return nil, err
	}
	d.gpus = gpus[:count]

	infos := make([]PhysicalDeviceInfo, 0, len(d.gpus))
	for i := range d.gpus {
		info, err := d.describe(i)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (d *vulkanDriver) describe(index int) (PhysicalDeviceInfo, error) {
	gpu := d.gpus[index]

	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(gpu, &props)
	props.Deref()
	props.Limits.Deref()

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(gpu, &features)
	features.Deref()

	info := PhysicalDeviceInfo{
		Index:                index,
		Name:                 vk.ToString(props.DeviceName[:]),
		Type:                 props.DeviceType,
		GeometryShader:       features.GeometryShader.B(),
		SamplerAnisotropy:    features.SamplerAnisotropy.B(),
		MaxSamplerAnisotropy: props.Limits.MaxSamplerAnisotropy,
	}

	var queueCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &queueCount, nil)
	queueProperties := make([]vk.QueueFamilyProperties, queueCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &queueCount, queueProperties)
	for i := uint32(0); i < queueCount; i++ {
		queueProperties[i].Deref()
		var supportsPresent vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(gpu, i, d.surface, &supportsPresent)
		info.QueueFamilies = append(info.QueueFamilies, QueueFamilyInfo{
			Index:      i,
			Graphics:   queueProperties[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
			Present:    supportsPresent.B(),
			QueueCount: queueProperties[i].QueueCount,
		})
	}

	extensions, err := DeviceExtensions(gpu)
	if err != nil {
		return info, err
	}
	info.Extensions = extensions

	if info.Surface, err = d.SurfaceSupport(index); err != nil {
		return info, err
	}

	var memory vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(gpu, &memory)
	memory.Deref()
	for i := uint32(0); i < memory.MemoryTypeCount; i++ {
		memory.MemoryTypes[i].Deref()
		info.MemoryTypes = append(info.MemoryTypes, MemoryType{
			PropertyFlags: memory.MemoryTypes[i].PropertyFlags,
			HeapIndex:     memory.MemoryTypes[i].HeapIndex,
		})
	}
	return info, nil
}

func (d *vulkanDriver) SurfaceSupport(index int) (SurfaceSupport, error) {
	var s SurfaceSupport
	if index < 0 || index >= len(d.gpus) {
		return s, errors.Errorf("no physical device %d", index)
	}
	gpu := d.gpus[index]

	ret := vk.GetPhysicalDeviceSurfaceCapabilities(gpu, d.surface, &s.Capabilities)
	if err := NewError("query surface capabilities", ret); err != nil {
		return s, err
	}
	s.Capabilities.Deref()
	s.Capabilities.CurrentExtent.Deref()
	s.Capabilities.MinImageExtent.Deref()
	s.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(gpu, d.surface, &formatCount, nil)
	s.Formats = make([]vk.SurfaceFormat, formatCount)
	vk.GetPhysicalDeviceSurfaceFormats(gpu, d.surface, &formatCount, s.Formats)
	for i := range s.Formats {
		s.Formats[i].Deref()
	}

	var modeCount uint32
	vk.GetPhysicalDeviceSurfacePresentModes(gpu, d.surface, &modeCount, nil)
	s.PresentModes = make([]vk.PresentMode, modeCount)
	vk.GetPhysicalDeviceSurfacePresentModes(gpu, d.surface, &modeCount, s.PresentModes)
	return s, nil
}

func (d *vulkanDriver) CreateDevice(req DeviceRequest) error {
	if req.GPU < 0 || req.GPU >= len(d.gpus) {
		return errors.Errorf("no physical device %d", req.GPU)
	}
	d.gpu = d.gpus[req.GPU]

	queueInfos := make([]vk.DeviceQueueCreateInfo, 0, len(req.Families))
	for _, family := range req.Families {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}
	var features vk.PhysicalDeviceFeatures
	if req.Features.SamplerAnisotropy {
		features.SamplerAnisotropy = vk.True
	}

	var device vk.Device
	ret := vk.CreateDevice(d.gpu, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(req.Extensions)),
		PpEnabledExtensionNames: safeStrings(req.Extensions),
		EnabledLayerCount:       uint32(len(d.layers)),
		PpEnabledLayerNames:     safeStrings(d.layers),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{features},
	}, nil, &device)
	if err := NewError("create device", ret); err != nil {
		return err
	}
	d.device = device
	d.graphicsFamily = req.GraphicsFamily

	vk.GetDeviceQueue(device, req.GraphicsFamily, 0, &d.graphicsQueue)
	vk.GetDeviceQueue(device, req.PresentFamily, 0, &d.presentQueue)

	pool, err := newCommandPool(device, req.GraphicsFamily)
	if err != nil {
		d.DestroyDevice()
		return err
	}
	d.pool = pool
	return nil
}

func (d *vulkanDriver) DestroyDevice() {
	if d.device == nil {
		return
	}
	if d.pool != vk.NullCommandPool {
		vk.DestroyCommandPool(d.device, d.pool, nil)
		d.pool = vk.NullCommandPool
	}
	vk.DestroyDevice(d.device, nil)
	d.device = nil
	d.graphicsQueue, d.presentQueue = nil, nil
}

func (d *vulkanDriver) WaitIdle() error {
	return NewError("device wait idle", vk.DeviceWaitIdle(d.device))
}
