package meshvk

import (
	"fmt"

	"github.com/pkg/errors"
)

//CoreDevice is the selected GPU's live logical device and its two queues.
//It lives for the whole process and is destroyed once, after everything
//created from it.
type CoreDevice struct {
	drv        Driver
	info       PhysicalDeviceInfo
	families   QueueFamilyIndices
	extensions []string
	features   Features
	destroyed  bool
}

//SelectPhysicalDevice returns the first device in enumeration order that
//passes Probe. It does not rank devices.
func SelectPhysicalDevice(infos []PhysicalDeviceInfo, req Requirements) (PhysicalDeviceInfo, QueueFamilyIndices, error) {
	var rejections []string
	for _, info := range infos {
		res := Probe(info, req)
		if res.Suitable {
			return info, res.Families, nil
		}
		for _, reason := range res.Rejections {
			rejections = append(rejections, fmt.Sprintf("%s: %s", deviceLabel(info), reason))
		}
	}
	return PhysicalDeviceInfo{}, QueueFamilyIndices{}, &NoSuitableDeviceError{
		Candidates: len(infos),
		Rejections: rejections,
	}
}

func deviceLabel(info PhysicalDeviceInfo) string {
	if info.Name == "" {
		return fmt.Sprintf("gpu %d", info.Index)
	}
	return fmt.Sprintf("gpu %d (%s)", info.Index, info.Name)
}

//NewCoreDevice enumerates GPUs, picks one and creates the logical device with
//one queue per distinct family. Nothing is left allocated on failure.
func NewCoreDevice(drv Driver, req Requirements, log *Logger) (*CoreDevice, error) {
	infos, err := drv.PhysicalDevices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}
	if len(infos) == 0 {
		return nil, &NoSuitableDeviceError{}
	}

	info, families, err := SelectPhysicalDevice(infos, req)
	if err != nil {
		return nil, err
	}
	log.Info.Printf("selected %s, graphics family %d, present family %d",
		deviceLabel(info), families.Graphics, families.Present)

	d := &CoreDevice{
		drv:        drv,
		info:       info,
		families:   families,
		extensions: req.Extensions,
		features:   Features{SamplerAnisotropy: req.SamplerAnisotropy},
	}
	err = drv.CreateDevice(DeviceRequest{
		GPU:            info.Index,
		GraphicsFamily: families.Graphics,
		PresentFamily:  families.Present,
		Families:       families.Unique(),
		Extensions:     d.extensions,
		Features:       d.features,
	})
	if err != nil {
		return nil, resourceErr("logical device", err)
	}
	log.Info.Printf("vulkan: enabling %d device extensions", len(d.extensions))
	return d, nil
}

func (d *CoreDevice) Info() PhysicalDeviceInfo { return d.info }
func (d *CoreDevice) Families() QueueFamilyIndices { return d.families }
func (d *CoreDevice) MemoryTypes() []MemoryType { return d.info.MemoryTypes }
func (d *CoreDevice) Features() Features { return d.features }

//SurfaceSupport re-queries the surface, which changes on resize
func (d *CoreDevice) SurfaceSupport() (SurfaceSupport, error) {
	s, err := d.drv.SurfaceSupport(d.info.Index)
	return s, errors.Wrap(err, "query surface support")
}

func (d *CoreDevice) WaitIdle() error {
	return errors.Wrap(d.drv.WaitIdle(), "wait device idle")
}

//Destroy is a no-op after the first call
func (d *CoreDevice) Destroy() {
	if d.destroyed {
		return
	}
	d.drv.DestroyDevice()
	d.destroyed = true
}
