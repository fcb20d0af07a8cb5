package meshvk

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// InstanceExtensions gets a list of instance extensions available on the platform.
func InstanceExtensions() (names []string, err error) {
	var count uint32
	ret := vk.EnumerateInstanceExtensionProperties("", &count, nil)
	if err := NewError("enumerate instance extensions", ret); err != nil {
		return nil, err
	}
	list := make([]vk.ExtensionProperties, count)
	ret = vk.EnumerateInstanceExtensionProperties("", &count, list)
	if err := NewError("enumerate instance extensions", ret); err != nil {
		return nil, err
	}
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// DeviceExtensions gets a list of extensions available on the provided physical device.
func DeviceExtensions(gpu vk.PhysicalDevice) (names []string, err error) {
	var count uint32
	ret := vk.EnumerateDeviceExtensionProperties(gpu, "", &count, nil)
	if err := NewError("enumerate device extensions", ret); err != nil {
		return nil, err
	}
	list := make([]vk.ExtensionProperties, count)
	ret = vk.EnumerateDeviceExtensionProperties(gpu, "", &count, list)
	if err := NewError("enumerate device extensions", ret); err != nil {
		return nil, err
	}
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// ValidationLayers gets a list of validation layers available on the platform.
func ValidationLayers() (names []string, err error) {
	var count uint32
	ret := vk.EnumerateInstanceLayerProperties(&count, nil)
	if err := NewError("enumerate instance layers", ret); err != nil {
		return nil, err
	}
	list := make([]vk.LayerProperties, count)
	ret = vk.EnumerateInstanceLayerProperties(&count, list)
	if err := NewError("enumerate instance layers", ret); err != nil {
		return nil, err
	}
	for _, layer := range list {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}

//requireNames fails with a capability error naming everything in required
//that actual lacks.
func requireNames(kind string, actual, required []string) error {
	if missing := missingNames(actual, required); len(missing) > 0 {
		return errors.WithStack(&CapabilityError{
			Reason: fmt.Sprintf("missing %s %v", kind, missing),
		})
	}
	return nil
}

const end = "\x00"

func safeString(s string) string {
	if len(s) == 0 {
		return end
	}
	if s[len(s)-1] != end[0] {
		return s + end
	}
	return s
}

//safeStrings terminates a copy of list; callers keep their plain names
func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = safeString(list[i])
	}
	return out
}

//sliceUint32 reinterprets SPIR-V bytecode as the words Vulkan expects
func sliceUint32(data []byte) []uint32 {
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[4*i:])
	}
	return words
}
