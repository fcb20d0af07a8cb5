package meshvk

import (
	vk "github.com/vulkan-go/vulkan"
)

func (d *vulkanDriver) CreateDescriptorSetLayout(bindings []DescriptorBinding) (*DescriptorSetLayout, error) {
	layoutBindings := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	for i, b := range bindings {
		layoutBindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  b.Type,
			DescriptorCount: 1,
			StageFlags:      b.Stages,
		}
	}
	var layout vk.DescriptorSetLayout
	ret := vk.CreateDescriptorSetLayout(d.device, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(layoutBindings)),
		PBindings:    layoutBindings,
	}, nil, &layout)
	if err := NewError("create descriptor set layout", ret); err != nil {
		return nil, err
	}
	return &DescriptorSetLayout{handle: layout}, nil
}

func (d *vulkanDriver) DestroyDescriptorSetLayout(l *DescriptorSetLayout) {
	vk.DestroyDescriptorSetLayout(d.device, l.handle, nil)
}

func (d *vulkanDriver) CreatePipelineLayout(set *DescriptorSetLayout) (*PipelineLayout, error) {
	var layout vk.PipelineLayout
	ret := vk.CreatePipelineLayout(d.device, &vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{set.handle},
	}, nil, &layout)
	if err := NewError("create pipeline layout", ret); err != nil {
		return nil, err
	}
	return &PipelineLayout{handle: layout}, nil
}

func (d *vulkanDriver) DestroyPipelineLayout(l *PipelineLayout) {
	vk.DestroyPipelineLayout(d.device, l.handle, nil)
}

//CreateGraphicsPipeline builds a vertex + fragment pipeline with a fixed
//viewport and scissor covering cfg.Extent.
func (d *vulkanDriver) CreateGraphicsPipeline(cfg PipelineConfig) (*Pipeline, error) {
	shaderStages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: cfg.Vertex.handle,
			PName:  safeString("main"),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: cfg.Fragment.handle,
			PName:  safeString("main"),
		},
	}

	//Vertex Info
	bindings := []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    cfg.Input.Stride,
		InputRate: vk.VertexInputRateVertex,
	}}
	attributes := make([]vk.VertexInputAttributeDescription, len(cfg.Input.Attributes))
	for i, a := range cfg.Input.Attributes {
		attributes[i] = vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  0,
			Format:   a.Format,
			Offset:   a.Offset,
		}
	}
	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindings)),
		PVertexBindingDescriptions:      bindings,
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	assembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               cfg.Topology,
		PrimitiveRestartEnable: vk.False,
	}

	viewports := []vk.Viewport{{
		X:        0,
		Y:        0,
		Width:    float32(cfg.Extent.Width),
		Height:   float32(cfg.Extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}}
	scissors := []vk.Rect2D{{Offset: vk.Offset2D{}, Extent: cfg.Extent}}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    viewports,
		ScissorCount:  1,
		PScissors:     scissors,
	}

	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             cfg.PolygonMode,
		CullMode:                cfg.CullMode,
		FrontFace:               cfg.FrontFace,
		DepthBiasEnable:         vk.False,
		LineWidth:               1.0,
	}

	multisampling := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: cfg.Samples,
		SampleShadingEnable:  vk.False,
		MinSampleShading:     1.0,
	}

	blend := vk.Bool32(vk.False)
	if cfg.Blend {
		blend = vk.True
	}
	attachments := []vk.PipelineColorBlendAttachmentState{{
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
			vk.ColorComponentBBit | vk.ColorComponentABit),
		BlendEnable:         blend,
		SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
		DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorOne,
		DstAlphaBlendFactor: vk.BlendFactorZero,
		AlphaBlendOp:        vk.BlendOpAdd,
	}}
	blendState := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    attachments,
	}

	pipelineInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(shaderStages)),
		PStages:             shaderStages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &assembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PColorBlendState:    &blendState,
		Layout:              cfg.Layout.handle,
		RenderPass:          cfg.RenderPass.handle,
		Subpass:             0,
	}

	pipelines := []vk.Pipeline{vk.NullPipeline}
	ret := vk.CreateGraphicsPipelines(d.device, nil, 1, []vk.GraphicsPipelineCreateInfo{pipelineInfo}, nil, pipelines)
	if err := NewError("create graphics pipeline", ret); err != nil {
		return nil, err
	}
	return &Pipeline{handle: pipelines[0]}, nil
}

func (d *vulkanDriver) DestroyPipeline(p *Pipeline) {
	vk.DestroyPipeline(d.device, p.handle, nil)
}

//CreateDescriptorPool sizes the pool for maxSets sets of bindings
func (d *vulkanDriver) CreateDescriptorPool(bindings []DescriptorBinding, maxSets uint32) (*DescriptorPool, error) {
	sizes := make([]vk.DescriptorPoolSize, len(bindings))
	for i, b := range bindings {
		sizes[i] = vk.DescriptorPoolSize{Type: b.Type, DescriptorCount: maxSets}
	}
	var pool vk.DescriptorPool
	ret := vk.CreateDescriptorPool(d.device, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}, nil, &pool)
	if err := NewError("create descriptor pool", ret); err != nil {
		return nil, err
	}
	return &DescriptorPool{handle: pool}, nil
}

func (d *vulkanDriver) DestroyDescriptorPool(p *DescriptorPool) {
	vk.DestroyDescriptorPool(d.device, p.handle, nil)
}

func (d *vulkanDriver) AllocateDescriptorSet(pool *DescriptorPool, layout *DescriptorSetLayout) (*DescriptorSet, error) {
	var set vk.DescriptorSet
	ret := vk.AllocateDescriptorSets(d.device, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool.handle,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout.handle},
	}, &set)
	if err := NewError("allocate descriptor set", ret); err != nil {
		return nil, err
	}
	return &DescriptorSet{handle: set}, nil
}

//UpdateDescriptorSet writes binding 0 (uniform buffer) and binding 1
//(combined image sampler) of set.
func (d *vulkanDriver) UpdateDescriptorSet(set *DescriptorSet, w DescriptorWrite) {
	writes := []vk.WriteDescriptorSet{
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set.handle,
			DstBinding:      0,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			PBufferInfo: []vk.DescriptorBufferInfo{{
				Buffer: w.Uniform.handle,
				Offset: 0,
				Range:  w.UniformRange,
			}},
		},
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set.handle,
			DstBinding:      1,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			PImageInfo: []vk.DescriptorImageInfo{{
				Sampler:     w.Sampler.handle,
				ImageView:   w.View.handle,
				ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
			}},
		},
	}
	vk.UpdateDescriptorSets(d.device, uint32(len(writes)), writes, 0, nil)
}
