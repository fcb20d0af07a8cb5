package meshvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

const (
	hostVisible = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	deviceLocal = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
)

//CoreTransfer moves host data into GPU memory through staging buffers. Every
//transfer records its own one-shot command buffer and blocks until the queue
//is idle.
type CoreTransfer struct {
	drv         Driver
	memoryTypes []MemoryType
	log         *Logger
}

func NewCoreTransfer(drv Driver, memoryTypes []MemoryType, log *Logger) *CoreTransfer {
	return &CoreTransfer{drv: drv, memoryTypes: memoryTypes, log: log}
}

//FindMemoryType returns the first memory type allowed by typeBits whose flags
//contain every flag in want.
func FindMemoryType(types []MemoryType, typeBits uint32, want vk.MemoryPropertyFlags) (uint32, error) {
	for i := uint32(0); i < uint32(len(types)) && i < 32; i++ {
		if typeBits&(1<<i) == 0 {
			continue
		}
		if types[i].PropertyFlags&want == want {
			return i, nil
		}
	}
	return 0, errors.WithStack(&NoSuitableMemoryTypeError{TypeBits: typeBits, Properties: want})
}

func (t *CoreTransfer) allocate(req MemoryRequirements, props vk.MemoryPropertyFlags) (*Memory, error) {
	index, err := FindMemoryType(t.memoryTypes, req.TypeBits, props)
	if err != nil {
		return nil, err
	}
	mem, err := t.drv.AllocateMemory(req.Size, index)
	if err != nil {
		return nil, resourceErr("device memory", err)
	}
	return mem, nil
}

//CreateBuffer creates a buffer and binds freshly allocated memory to it
func (t *CoreTransfer) CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags, props vk.MemoryPropertyFlags) (*Buffer, error) {
	if size == 0 {
		return nil, errors.New("buffer size must be non-zero")
	}
	buf, err := t.drv.CreateBuffer(size, usage)
	if err != nil {
		return nil, resourceErr("buffer", err)
	}
	buf.props = props

	mem, err := t.allocate(buf.requirements, props)
	if err != nil {
		t.drv.DestroyBuffer(buf)
		return nil, err
	}
	if err := t.bindBuffer(buf, mem); err != nil {
		t.drv.FreeMemory(mem)
		t.drv.DestroyBuffer(buf)
		return nil, err
	}
	return buf, nil
}

//bindBuffer enforces the bind-exactly-once rule
func (t *CoreTransfer) bindBuffer(buf *Buffer, mem *Memory) error {
	if buf.memory != nil {
		return errors.New("buffer memory is already bound")
	}
	if err := t.drv.BindBufferMemory(buf, mem); err != nil {
		return errors.Wrap(err, "bind buffer memory")
	}
	buf.memory = mem
	return nil
}

//Write maps, fills and unmaps a host-visible buffer
func (t *CoreTransfer) Write(buf *Buffer, data []byte) error {
	if !buf.HostVisible() {
		return errors.New("buffer is not host visible; use a transfer command")
	}
	if vk.DeviceSize(len(data)) > buf.size {
		return errors.Errorf("write of %d bytes exceeds buffer size %d", len(data), buf.size)
	}
	return errors.Wrap(t.drv.WriteMemory(buf.memory, 0, data), "write buffer memory")
}

//DestroyBuffer releases the buffer and the memory behind it
func (t *CoreTransfer) DestroyBuffer(buf *Buffer) {
	if buf == nil {
		return
	}
	t.drv.DestroyBuffer(buf)
	if buf.memory != nil {
		t.drv.FreeMemory(buf.memory)
		buf.memory = nil
	}
}

func (t *CoreTransfer) stage(data []byte) (*Buffer, error) {
	staging, err := t.CreateBuffer(vk.DeviceSize(len(data)), vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), hostVisible)
	if err != nil {
		return nil, errors.Wrap(err, "staging buffer")
	}
	if err := t.Write(staging, data); err != nil {
		t.DestroyBuffer(staging)
		return nil, err
	}
	return staging, nil
}

//UploadToBuffer copies data into a new device-local buffer with usage plus
//transfer-destination.
func (t *CoreTransfer) UploadToBuffer(data []byte, usage vk.BufferUsageFlags) (*Buffer, error) {
	staging, err := t.stage(data)
	if err != nil {
		return nil, err
	}
	defer t.DestroyBuffer(staging)

	size := vk.DeviceSize(len(data))
	dst, err := t.CreateBuffer(size, usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit), deviceLocal)
	if err != nil {
		return nil, err
	}
	err = t.oneShot(func(cb *CommandBuffer) error {
		t.drv.CmdCopyBuffer(cb, staging, dst, size)
		return nil
	})
	if err != nil {
		t.DestroyBuffer(dst)
		return nil, errors.Wrap(err, "copy staging buffer")
	}
	return dst, nil
}

//UploadToImage creates a sampled device-local image from tightly packed
//4-byte pixels and leaves it in SHADER_READ_ONLY layout.
func (t *CoreTransfer) UploadToImage(pixels []byte, width, height uint32, format vk.Format) (*Image, error) {
	if width == 0 || height == 0 {
		return nil, errors.Errorf("image size must be non-zero, got %dx%d", width, height)
	}
	if want := int(width) * int(height) * 4; len(pixels) != want {
		return nil, errors.Errorf("pixel buffer holds %d bytes, %dx%d RGBA needs %d", len(pixels), width, height, want)
	}

	staging, err := t.stage(pixels)
	if err != nil {
		return nil, err
	}
	defer t.DestroyBuffer(staging)

	img, err := t.drv.CreateImage(width, height, format,
		vk.ImageUsageFlags(vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit))
	if err != nil {
		return nil, resourceErr("image", err)
	}
	img.layout = vk.ImageLayoutUndefined
	img.owned = true
	mem, err := t.allocate(img.requirements, deviceLocal)
	if err != nil {
		t.drv.DestroyImage(img)
		return nil, err
	}
	if err := t.drv.BindImageMemory(img, mem); err != nil {
		t.drv.FreeMemory(mem)
		t.drv.DestroyImage(img)
		return nil, errors.Wrap(err, "bind image memory")
	}
	img.memory = mem

	err = t.oneShot(func(cb *CommandBuffer) error {
		if err := t.recordTransition(cb, img, vk.ImageLayoutTransferDstOptimal); err != nil {
			return err
		}
		t.drv.CmdCopyBufferToImage(cb, staging, img)
		return t.recordTransition(cb, img, vk.ImageLayoutShaderReadOnlyOptimal)
	})
	if err != nil {
		t.DestroyImage(img)
		return nil, errors.Wrap(err, "upload image")
	}
	return img, nil
}

//TransitionImageLayout moves img to layout in its own one-shot submission.
//Only the two upload transitions are known; anything else is rejected before
//a command buffer is touched.
func (t *CoreTransfer) TransitionImageLayout(img *Image, layout vk.ImageLayout) error {
	if _, err := layoutBarrier(img.layout, layout); err != nil {
		return err
	}
	return t.oneShot(func(cb *CommandBuffer) error {
		return t.recordTransition(cb, img, layout)
	})
}

func (t *CoreTransfer) recordTransition(cb *CommandBuffer, img *Image, layout vk.ImageLayout) error {
	barrier, err := layoutBarrier(img.layout, layout)
	if err != nil {
		return err
	}
	t.drv.CmdImageBarrier(cb, img, barrier)
	img.layout = layout
	return nil
}

//DestroyImage releases an owned image and its memory
func (t *CoreTransfer) DestroyImage(img *Image) {
	if img == nil || !img.owned {
		return
	}
	t.drv.DestroyImage(img)
	if img.memory != nil {
		t.drv.FreeMemory(img.memory)
		img.memory = nil
	}
}

//oneShot allocates a command buffer, records into it, submits it and waits
func (t *CoreTransfer) oneShot(record func(cb *CommandBuffer) error) error {
	cbs, err := t.drv.AllocateCommandBuffers(1)
	if err != nil {
		return resourceErr("command buffer", err)
	}
	defer t.drv.FreeCommandBuffers(cbs)
	cb := cbs[0]

	if err := t.drv.BeginCommandBuffer(cb, true); err != nil {
		return errors.Wrap(err, "begin one-shot commands")
	}
	if err := record(cb); err != nil {
		if endErr := t.drv.EndCommandBuffer(cb); endErr != nil {
			t.log.Warn.Printf("end abandoned one-shot commands: %v", endErr)
		}
		return err
	}
	if err := t.drv.EndCommandBuffer(cb); err != nil {
		return errors.Wrap(err, "end one-shot commands")
	}
	return errors.Wrap(t.drv.SubmitAndWait(cb), "submit one-shot commands")
}

//layoutBarrier is the image layout state machine. It knows two edges:
//UNDEFINED -> TRANSFER_DST, which waits on nothing, and
//TRANSFER_DST -> SHADER_READ_ONLY, which waits for the transfer write.
func layoutBarrier(from, to vk.ImageLayout) (ImageBarrier, error) {
	switch {
	case from == vk.ImageLayoutUndefined && to == vk.ImageLayoutTransferDstOptimal:
		return ImageBarrier{
			OldLayout: from,
			NewLayout: to,
			SrcAccess: 0,
			DstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
			DstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		}, nil
	case from == vk.ImageLayoutTransferDstOptimal && to == vk.ImageLayoutShaderReadOnlyOptimal:
		return ImageBarrier{
			OldLayout: from,
			NewLayout: to,
			SrcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			DstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
			SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			DstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		}, nil
	}
	return ImageBarrier{}, errors.WithStack(&UnsupportedTransitionError{From: from, To: to})
}
