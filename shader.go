package meshvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

//CreateShaderModule wraps SPIR-V bytecode. Vulkan expects to receive uint32
//words, so the length has to be a multiple of four.
func (d *vulkanDriver) CreateShaderModule(code []byte) (*ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, errors.Errorf("shader bytecode length %d is not a positive multiple of 4", len(code))
	}
	var module vk.ShaderModule
	ret := vk.CreateShaderModule(d.device, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    sliceUint32(code),
	}, nil, &module)
	if err := NewError("create shader module", ret); err != nil {
		return nil, err
	}
	return &ShaderModule{handle: module}, nil
}

func (d *vulkanDriver) DestroyShaderModule(m *ShaderModule) {
	vk.DestroyShaderModule(d.device, m.handle, nil)
}
