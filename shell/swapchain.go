package shell

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-xr/xr"
	"github.com/cogentcore/webgpu/wgpu"
	vk "github.com/goki/vulkan"
)

// SwapchainColorFormat is the native color format requested for swapchain
// images: 8-bit sRGB RGBA, matching the wgpu render targets the shell creates.
const SwapchainColorFormat = int64(vk.FormatR8g8b8a8Srgb)

// Framebuffer is the GPU-side mirror of one swapchain image: a combined view
// binding both eye layers, plus a single-layer attachment view per eye.
// NativeImage names the compositor-owned image the mirror stands in for; the
// runtime binding resolves the mirror into it when the frame's image is
// released.
type Framebuffer struct {
	NativeImage uint64
	Color       *wgpu.TextureView
	Eyes        [2]*wgpu.TextureView
}

// Extent2D is a per-eye image resolution in pixels.
type Extent2D struct {
	Width  uint32
	Height uint32
}

// Swapchain owns the compositor-allocated image chain and encapsulates the
// acquire/wait/release protocol. At most one image is checked out for writing
// at a time; Acquire returns a token that must be waited on and released in
// order, making double-acquire and release-without-acquire detectable instead
// of undefined. Access to the underlying handle is serialized by a mutex
// because the native API is not reentrant-safe across the three call sites.
type Swapchain struct {
	mu         sync.Mutex
	handle     xr.Swapchain
	buffers    []Framebuffer
	resolution Extent2D
	acquired   *AcquiredImage
}

// newSwapchain creates the session's image chain from the compositor's
// recommended stereo view configuration and wraps every image for the GPU
// backend. Both views must report identical recommended dimensions, because a
// single layered image serves both eyes.
func newSwapchain(runtime xr.Instance, system xr.SystemID, session xr.Session, gpu GPUDevice) (*Swapchain, error) {
	views, err := runtime.EnumerateViewConfigurationViews(system, ViewType)
	if err != nil {
		return nil, fmt.Errorf("enumerating view configuration views: %w", err)
	}
	if len(views) != 2 {
		return nil, fmt.Errorf("%w: expected 2 stereo views, got %d", ErrViewMismatch, len(views))
	}
	if views[0].RecommendedImageRectWidth != views[1].RecommendedImageRectWidth ||
		views[0].RecommendedImageRectHeight != views[1].RecommendedImageRectHeight {
		return nil, fmt.Errorf("%w: %dx%d vs %dx%d", ErrViewMismatch,
			views[0].RecommendedImageRectWidth, views[0].RecommendedImageRectHeight,
			views[1].RecommendedImageRectWidth, views[1].RecommendedImageRectHeight)
	}

	resolution := Extent2D{
		Width:  views[0].RecommendedImageRectWidth,
		Height: views[0].RecommendedImageRectHeight,
	}

	handle, err := session.CreateSwapchain(&xr.SwapchainCreateInfo{
		UsageFlags:  xr.SwapchainUsageColorAttachment | xr.SwapchainUsageSampled,
		Format:      SwapchainColorFormat,
		// The render targets are not multisampled; 1 rather than the
		// recommended sample count.
		SampleCount: 1,
		Width:       resolution.Width,
		Height:      resolution.Height,
		FaceCount:   1,
		// Each swapchain element is an array-of-two: left eye, right eye.
		ArraySize: 2,
		MipCount:  1,
	})
	if err != nil {
		return nil, fmt.Errorf("creating swapchain: %w", err)
	}

	images, err := handle.EnumerateImages()
	if err != nil {
		return nil, fmt.Errorf("enumerating swapchain images: %w", err)
	}

	buffers := make([]Framebuffer, 0, len(images))
	for _, raw := range images {
		fb, err := gpu.WrapSwapchainImage(raw, resolution.Width, resolution.Height)
		if err != nil {
			return nil, err
		}
		buffers = append(buffers, fb)
	}

	return &Swapchain{
		handle:     handle,
		buffers:    buffers,
		resolution: resolution,
	}, nil
}

// Handle returns the underlying compositor swapchain, for composition layer
// sub-image references.
func (s *Swapchain) Handle() xr.Swapchain {
	return s.handle
}

// Resolution returns the per-eye image resolution.
func (s *Swapchain) Resolution() Extent2D {
	return s.resolution
}

// ImageCount returns the fixed, compositor-determined chain length.
func (s *Swapchain) ImageCount() int {
	return len(s.buffers)
}

// Acquire checks out the next image for writing. Which image is up to the
// compositor. Returns ErrImageAlreadyAcquired if a previous token has not been
// released.
//
// Returns:
//   - *AcquiredImage: the checked-out image token
//   - error: error if acquisition fails or an image is already checked out
func (s *Swapchain) Acquire() (*AcquiredImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.acquired != nil {
		return nil, ErrImageAlreadyAcquired
	}
	index, err := s.handle.AcquireImage()
	if err != nil {
		return nil, fmt.Errorf("acquiring swapchain image: %w", err)
	}
	if int(index) >= len(s.buffers) {
		return nil, fmt.Errorf("compositor returned image index %d beyond chain length %d", index, len(s.buffers))
	}
	img := &AcquiredImage{swapchain: s, index: index}
	s.acquired = img
	return img, nil
}

// AcquiredImage is the token for the single checked-out swapchain image. Wait
// must complete before rendering into the view, and Release must be called
// exactly once to return the image to the compositor.
type AcquiredImage struct {
	swapchain *Swapchain
	index     uint32
	released  bool
}

// Index returns the image's position in the chain.
func (a *AcquiredImage) Index() uint32 {
	return a.index
}

// View returns the renderable two-layer view over the image.
func (a *AcquiredImage) View() *wgpu.TextureView {
	return a.swapchain.buffers[a.index].Color
}

// Framebuffer returns the image's full set of wrapped views, including the
// per-eye attachment views.
func (a *AcquiredImage) Framebuffer() *Framebuffer {
	return &a.swapchain.buffers[a.index]
}

// Wait blocks until the compositor has finished reading the image, up to
// timeout. This is the one blocking point in the per-frame GPU path besides
// queue submission.
//
// Parameters:
//   - timeout: maximum wait; xr.InfiniteDuration blocks without a deadline
//
// Returns:
//   - error: xr.ErrTimeoutExpired on expiry, ErrImageNotAcquired if released
func (a *AcquiredImage) Wait(timeout xr.Duration) error {
	a.swapchain.mu.Lock()
	defer a.swapchain.mu.Unlock()

	if a.released || a.swapchain.acquired != a {
		return ErrImageNotAcquired
	}
	if err := a.swapchain.handle.WaitImage(timeout); err != nil {
		return fmt.Errorf("waiting for swapchain image: %w", err)
	}
	return nil
}

// Release returns the image to the compositor for presentation and consumes
// the token. Releasing twice returns ErrImageNotAcquired.
func (a *AcquiredImage) Release() error {
	a.swapchain.mu.Lock()
	defer a.swapchain.mu.Unlock()

	if a.released || a.swapchain.acquired != a {
		return ErrImageNotAcquired
	}
	a.released = true
	a.swapchain.acquired = nil
	if err := a.swapchain.handle.ReleaseImage(); err != nil {
		return fmt.Errorf("releasing swapchain image: %w", err)
	}
	return nil
}
