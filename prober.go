package meshvk

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

//Requirements is the contract a candidate GPU has to meet
type Requirements struct {
	Discrete          bool
	GeometryShader    bool
	SamplerAnisotropy bool
	Extensions        []string
}

//QueueFamilyIndices holds the resolved graphics and present families. They
//may be the same family.
type QueueFamilyIndices struct {
	Graphics    uint32
	Present     uint32
	hasGraphics bool
	hasPresent  bool
}

func (q QueueFamilyIndices) Complete() bool {
	return q.hasGraphics && q.hasPresent
}

//Shared is true when one family does both graphics and presentation
func (q QueueFamilyIndices) Shared() bool {
	return q.Complete() && q.Graphics == q.Present
}

//Unique lists each distinct family once, graphics first
func (q QueueFamilyIndices) Unique() []uint32 {
	if q.Shared() {
		return []uint32{q.Graphics}
	}
	return []uint32{q.Graphics, q.Present}
}

//FindQueueFamilies picks the first graphics-capable family and, independently,
//the first family that can present to the surface.
func FindQueueFamilies(families []QueueFamilyInfo) QueueFamilyIndices {
	var q QueueFamilyIndices
	for _, f := range families {
		if f.QueueCount == 0 {
			continue
		}
		if f.Graphics && !q.hasGraphics {
			q.Graphics = f.Index
			q.hasGraphics = true
		}
		if f.Present && !q.hasPresent {
			q.Present = f.Index
			q.hasPresent = true
		}
		if q.Complete() {
			break
		}
	}
	return q
}

//ProbeResult is the outcome of checking one device. Rejections is empty
//exactly when Suitable is true.
type ProbeResult struct {
	Suitable   bool
	Families   QueueFamilyIndices
	Rejections []string
}

//Probe checks info against req. It reads info only.
func Probe(info PhysicalDeviceInfo, req Requirements) ProbeResult {
	var r ProbeResult
	reject := func(format string, args ...interface{}) {
		r.Rejections = append(r.Rejections, fmt.Sprintf(format, args...))
	}

	if req.Discrete && info.Type != vk.PhysicalDeviceTypeDiscreteGpu {
		reject("not a discrete GPU")
	}
	if req.GeometryShader && !info.GeometryShader {
		reject("no geometry shader support")
	}
	if req.SamplerAnisotropy && !info.SamplerAnisotropy {
		reject("no sampler anisotropy support")
	}

	r.Families = FindQueueFamilies(info.QueueFamilies)
	if !r.Families.hasGraphics {
		reject("no graphics queue family")
	}
	if !r.Families.hasPresent {
		reject("no queue family can present to the surface")
	}

	if missing := missingNames(info.Extensions, req.Extensions); len(missing) > 0 {
		reject("missing device extensions %v", missing)
	}

	if len(info.Surface.Formats) == 0 {
		reject("surface exposes no formats")
	}
	if len(info.Surface.PresentModes) == 0 {
		reject("surface exposes no present modes")
	}

	r.Suitable = len(r.Rejections) == 0
	return r
}

//missingNames returns the entries of wanted absent from actual
func missingNames(actual, wanted []string) []string {
	have := make(map[string]bool, len(actual))
	for _, a := range actual {
		have[a] = true
	}
	var missing []string
	for _, w := range wanted {
		if !have[w] {
			missing = append(missing, w)
		}
	}
	return missing
}
