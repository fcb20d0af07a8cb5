package meshvk

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

//UniformBufferObject is the transform block read by the vertex shader
type UniformBufferObject struct {
	Model mgl32.Mat4
	View  mgl32.Mat4
	Proj  mgl32.Mat4
}

const uniformSize = 3 * 16 * 4

//Bytes lays the three matrices out column-major, std140 compatible
func (u UniformBufferObject) Bytes() []byte {
	out := make([]byte, uniformSize)
	off := 0
	for _, m := range [3]*mgl32.Mat4{&u.Model, &u.View, &u.Proj} {
		for _, f := range m {
			binary.LittleEndian.PutUint32(out[off:], math.Float32bits(f))
			off += 4
		}
	}
	return out
}

//TransformsAt builds the transforms for a frame rendered elapsed after start.
//The model spins a quarter turn per second about Z.
func TransformsAt(elapsed time.Duration, extent vk.Extent2D) UniformBufferObject {
	aspect := float32(1)
	if extent.Height > 0 {
		aspect = float32(extent.Width) / float32(extent.Height)
	}
	angle := float32(elapsed.Seconds()) * mgl32.DegToRad(90)

	ubo := UniformBufferObject{
		Model: mgl32.HomogRotate3D(angle, mgl32.Vec3{0, 0, 1}),
		View:  mgl32.LookAtV(mgl32.Vec3{2, 2, 2}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}),
		Proj:  VulkanProjectionMat(mgl32.Perspective(mgl32.DegToRad(45), aspect, 0.1, 10)),
	}
	return ubo
}

//DescriptorBindings is the persistent set layout: transforms for the vertex
//stage and the texture for the fragment stage.
func DescriptorBindings() []DescriptorBinding {
	return []DescriptorBinding{
		{Binding: 0, Type: vk.DescriptorTypeUniformBuffer, Stages: vk.ShaderStageFlags(vk.ShaderStageVertexBit)},
		{Binding: 1, Type: vk.DescriptorTypeCombinedImageSampler, Stages: vk.ShaderStageFlags(vk.ShaderStageFragmentBit)},
	}
}

//CoreUniform owns the one uniform buffer and the one descriptor set that
//binds it together with the texture.
type CoreUniform struct {
	drv    Driver
	xfer   *CoreTransfer
	layout *DescriptorSetLayout
	pool   *DescriptorPool
	set    *DescriptorSet
	buffer *Buffer
	last   UniformBufferObject
}

func NewCoreUniform(drv Driver, xfer *CoreTransfer) (*CoreUniform, error) {
	var err error
	u := &CoreUniform{drv: drv, xfer: xfer}
	bindings := DescriptorBindings()

	if u.layout, err = drv.CreateDescriptorSetLayout(bindings); err != nil {
		return nil, resourceErr("descriptor set layout", err)
	}
	u.buffer, err = xfer.CreateBuffer(uniformSize, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit), hostVisible)
	if err != nil {
		u.Destroy()
		return nil, errors.Wrap(err, "uniform buffer")
	}
	if u.pool, err = drv.CreateDescriptorPool(bindings, 1); err != nil {
		u.Destroy()
		return nil, resourceErr("descriptor pool", err)
	}
	if u.set, err = drv.AllocateDescriptorSet(u.pool, u.layout); err != nil {
		u.Destroy()
		return nil, resourceErr("descriptor set", err)
	}
	return u, nil
}

func (u *CoreUniform) Layout() *DescriptorSetLayout { return u.layout }
func (u *CoreUniform) Set() *DescriptorSet { return u.set }
func (u *CoreUniform) Buffer() *Buffer { return u.buffer }
func (u *CoreUniform) Last() UniformBufferObject { return u.last }

//Bind points the descriptor set at the uniform buffer and tex
func (u *CoreUniform) Bind(tex *Texture) {
	u.drv.UpdateDescriptorSet(u.set, DescriptorWrite{
		Uniform:      u.buffer,
		UniformRange: uniformSize,
		View:         tex.View(),
		Sampler:      tex.Sampler(),
	})
}

//UpdatePerFrame rewrites the uniform buffer. It has to finish before the frame
//that reads it is submitted.
func (u *CoreUniform) UpdatePerFrame(elapsed time.Duration, extent vk.Extent2D) error {
	u.last = TransformsAt(elapsed, extent)
	return errors.Wrap(u.xfer.Write(u.buffer, u.last.Bytes()), "update uniforms")
}

func (u *CoreUniform) Destroy() {
	if u.pool != nil {
		u.drv.DestroyDescriptorPool(u.pool)
		u.pool, u.set = nil, nil
	}
	if u.buffer != nil {
		u.xfer.DestroyBuffer(u.buffer)
		u.buffer = nil
	}
	if u.layout != nil {
		u.drv.DestroyDescriptorSetLayout(u.layout)
		u.layout = nil
	}
}
