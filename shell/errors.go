package shell

import "errors"

var (
	// ErrVersionMismatch indicates the local Vulkan driver version falls outside
	// the span the compositor runtime requires. Fatal at startup; there is no
	// valid GPU/compositor pairing on this machine.
	ErrVersionMismatch = errors.New("shell: vulkan version outside compositor-required range")

	// ErrExtensionMissing indicates a native extension required by the compositor
	// or the GPU backend is not available. Fatal at startup.
	ErrExtensionMissing = errors.New("shell: required native extension missing")

	// ErrNoGraphicsQueue indicates the compositor-designated physical device
	// exposes no graphics-capable queue family. Fatal at startup.
	ErrNoGraphicsQueue = errors.New("shell: no graphics queue family on device")

	// ErrAdapterMismatch indicates the GPU backend enumerated no adapter on the
	// compositor-designated physical device. Fatal at startup; rendering on a
	// different device than the compositor samples from is never correct.
	ErrAdapterMismatch = errors.New("shell: no gpu adapter on compositor-designated device")

	// ErrViewMismatch indicates the two stereo views report differing recommended
	// resolutions, which the layered swapchain cannot represent. Fatal at startup.
	ErrViewMismatch = errors.New("shell: stereo views report differing resolutions")

	// ErrNoBlendModes indicates the runtime enumerated no environment blend modes
	// for the system. Fatal at startup.
	ErrNoBlendModes = errors.New("shell: no environment blend modes reported")

	// ErrImageAlreadyAcquired indicates Acquire was called while another swapchain
	// image was still checked out.
	ErrImageAlreadyAcquired = errors.New("shell: swapchain image already acquired")

	// ErrImageNotAcquired indicates Wait or Release was called with no image
	// checked out.
	ErrImageNotAcquired = errors.New("shell: no swapchain image acquired")
)
