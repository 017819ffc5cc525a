// Package compute provides the accelerator devices that run the batched
// per-cell passes of the voxel world.
//
// A device works on a [Frame]: flat arrays of per-cell scalars where every
// loaded chunk owns a contiguous slice addressed by its ticket. The caller
// uploads the frame, dispatches passes and reads the results back; indices
// correspond 1:1 with upload order.
//
//   - OpenGL: GLSL compute shaders over shader storage buffers (build tag opengl)
//   - CPU: worker-parallel Go kernels, always available
//
// # Passes
//
//	dev := compute.AutoSelect()
//	dev.Upload(frame)
//	dev.Dispatch(compute.PassHeat, params)
//	dev.ReadTemperature(frame.Temperature)
//
// Dispatch blocks until the device barrier completes, so a read that follows
// always observes the finished pass.
package compute
