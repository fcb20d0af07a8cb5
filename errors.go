package meshvk

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

//VulkanError carries the raw result of a failed vk call
type VulkanError struct {
	Op     string
	Result vk.Result
}

func (e *VulkanError) Error() string {
	if err := vk.Error(e.Result); err != nil {
		return fmt.Sprintf("vulkan error: %s: %s (%d)", e.Op, err.Error(), e.Result)
	}
	return fmt.Sprintf("vulkan error: %s: result %d", e.Op, e.Result)
}

func isError(ret vk.Result) bool {
	return ret != vk.Success
}

//NewError returns nil on vk.Success, otherwise a stack-carrying *VulkanError for op
func NewError(op string, ret vk.Result) error {
	if !isError(ret) {
		return nil
	}
	return errors.WithStack(&VulkanError{Op: op, Result: ret})
}

//CapabilityError is a configuration-level failure: the hardware or platform
//cannot provide what the renderer needs. Never retried.
type CapabilityError struct {
	Reason string
}

func (e *CapabilityError) Error() string {
	return "capability error: " + e.Reason
}

//NoSuitableDeviceError is returned when no enumerated GPU passes the prober.
type NoSuitableDeviceError struct {
	Candidates int
	Rejections []string
}

func (e *NoSuitableDeviceError) Error() string {
	if len(e.Rejections) == 0 {
		return fmt.Sprintf("no suitable physical device among %d candidates", e.Candidates)
	}
	return fmt.Sprintf("no suitable physical device among %d candidates: %s",
		e.Candidates, strings.Join(e.Rejections, "; "))
}

//NoSuitableMemoryTypeError is returned when no memory type matches both the
//resource type bits and the requested property flags.
type NoSuitableMemoryTypeError struct {
	TypeBits   uint32
	Properties vk.MemoryPropertyFlags
}

func (e *NoSuitableMemoryTypeError) Error() string {
	return fmt.Sprintf("no suitable memory type for bits %#x with properties %#x", e.TypeBits, e.Properties)
}

//ResourceError wraps a failed GPU object creation.
type ResourceError struct {
	Object string
	Err    error
}

func (e *ResourceError) Error() string {
	return "failed to create " + e.Object + ": " + e.Err.Error()
}

func (e *ResourceError) Unwrap() error { return e.Err }

func resourceErr(object string, err error) error {
	if err == nil {
		return nil
	}
	return &ResourceError{Object: object, Err: err}
}

//UnsupportedTransitionError is returned by the image layout state machine for
//any transition it does not know.
type UnsupportedTransitionError struct {
	From, To vk.ImageLayout
}

func (e *UnsupportedTransitionError) Error() string {
	return fmt.Sprintf("unsupported image layout transition %d -> %d", e.From, e.To)
}

type ShaderLoadError struct {
	Path string
	Err  error
}

func (e *ShaderLoadError) Error() string {
	return fmt.Sprintf("failed to load shader %q: %v", e.Path, e.Err)
}

func (e *ShaderLoadError) Unwrap() error { return e.Err }

type TextureLoadError struct {
	Path string
	Err  error
}

func (e *TextureLoadError) Error() string {
	return fmt.Sprintf("failed to load texture %q: %v", e.Path, e.Err)
}

func (e *TextureLoadError) Unwrap() error { return e.Err }

//IsCapabilityError reports whether err is any of the capability failures.
func IsCapabilityError(err error) bool {
	var c *CapabilityError
	var d *NoSuitableDeviceError
	var m *NoSuitableMemoryTypeError
	return errors.As(err, &c) || errors.As(err, &d) || errors.As(err, &m)
}

type presentStatus int

const (
	presentOK presentStatus = iota
	presentSuboptimal
	presentOutOfDate
	presentFatal
)

//classifyPresent maps an acquire/present result onto the recovery taxonomy
func classifyPresent(ret vk.Result) presentStatus {
	switch ret {
	case vk.Success:
		return presentOK
	case vk.Suboptimal:
		return presentSuboptimal
	case vk.ErrorOutOfDate:
		return presentOutOfDate
	default:
		return presentFatal
	}
}

//IsOutOfDate reports whether ret means the chain no longer matches the surface
func IsOutOfDate(ret vk.Result) bool {
	return classifyPresent(ret) == presentOutOfDate
}

//Fatal runs finalizers, records err in fatal_log.txt under dir and exits.
func Fatal(dir string, err error, finalizers ...func()) {
	if err == nil {
		return
	}
	for _, fn := range finalizers {
		fn()
	}
	out := os.Stderr
	if dir != "" {
		file, ferr := os.OpenFile(filepath.Join(dir, "fatal_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if ferr == nil {
			out = file
		}
	}
	fatalLog := log.New(out, "FATAL: ", log.Ldate|log.Ltime|log.Lshortfile)
	fatalLog.Printf("%+v", err)
	os.Exit(1)
}
