package meshvk

import "github.com/go-gl/mathgl/mgl32"

// vulkanClip flips Y and maps depth from [-1, 1] to [0, 1].
var vulkanClip = mgl32.Mat4{
	1, 0, 0, 0,
	0, -1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// VulkanProjectionMat converts an OpenGL style projection matrix to Vulkan style projection matrix.
// Vulkan has a topLeft clipSpace with [0, 1] depth range instead of [-1, 1].
//
// mgl32 outputs projection matrices in GL style clipSpace,
// perform a simple fixup step to change the projection to Vulkan style.
func VulkanProjectionMat(proj mgl32.Mat4) mgl32.Mat4 {
	return vulkanClip.Mul4(proj)
}
