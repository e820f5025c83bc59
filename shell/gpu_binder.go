package shell

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// GPUDevice is the GPU backend's side of the negotiated device pairing. The
// frame loop only needs a handful of operations from it: submitting recorded
// command buffers and exposing compositor swapchain images as renderable views.
// Content code reaches the full wgpu API through Device and Queue.
type GPUDevice interface {
	// Device returns the wgpu device for resource and pipeline creation.
	Device() *wgpu.Device

	// Queue returns the single graphics queue.
	Queue() *wgpu.Queue

	// Submit hands recorded command buffers to the graphics queue. May block on
	// backend backpressure.
	//
	// Parameters:
	//   - buffers: the command buffers to submit, in execution order
	//
	// Returns:
	//   - error: error if submission is rejected
	Submit(buffers ...*wgpu.CommandBuffer) error

	// WrapSwapchainImage builds the render-target mirror of one compositor-owned
	// swapchain image: a two-layer (left eye, right eye) texture at the image's
	// resolution, with a combined array view plus one attachment view per eye
	// layer, since render passes target a single layer each. The backend does
	// not adopt the native image; content renders into the mirror, and the
	// runtime binding resolves the mirror into the native image named by
	// Framebuffer.NativeImage when the frame's image is released.
	//
	// Parameters:
	//   - rawImage: the native image handle from xr.Swapchain.EnumerateImages
	//   - width, height: per-eye image resolution
	//
	// Returns:
	//   - Framebuffer: the mirror views, carrying rawImage as NativeImage
	//   - error: error if the mirror could not be created
	WrapSwapchainImage(rawImage uint64, width, height uint32) (Framebuffer, error)

	// Release drops the backend's non-owning references to the shared device.
	Release()
}

// GPUBinder wires the GPU backend into device negotiation: it contributes the
// backend's required extension sets to the union the bridge enables, then binds
// the negotiated context into a usable GPUDevice.
type GPUBinder interface {
	// RequiredInstanceExtensions returns the Vulkan instance extensions the GPU
	// backend needs.
	RequiredInstanceExtensions() []string

	// RequiredDeviceExtensions returns the Vulkan device extensions the GPU
	// backend needs. Timeline semaphore support is forced by the bridge
	// regardless of what this returns.
	RequiredDeviceExtensions() []string

	// BindDevice wraps the negotiated native handles for the GPU backend. The
	// backend holds non-owning references; the DeviceContext stays the sole
	// owner.
	BindDevice(ctx *DeviceContext) (GPUDevice, error)
}

// wgpuBinder is the production GPUBinder on the cogentcore/webgpu bindings.
type wgpuBinder struct {
	forceFallbackAdapter bool
}

var _ GPUBinder = &wgpuBinder{}

// NewWGPUBinder returns the production GPU binder.
//
// Parameters:
//   - forceFallbackAdapter: prefer a software adapter, for debugging
//
// Returns:
//   - GPUBinder: the wgpu-backed binder
func NewWGPUBinder(forceFallbackAdapter bool) GPUBinder {
	return &wgpuBinder{forceFallbackAdapter: forceFallbackAdapter}
}

func (b *wgpuBinder) RequiredInstanceExtensions() []string {
	return []string{
		"VK_KHR_get_physical_device_properties2",
	}
}

func (b *wgpuBinder) RequiredDeviceExtensions() []string {
	return []string{
		"VK_KHR_maintenance1",
		"VK_KHR_maintenance2",
	}
}

func (b *wgpuBinder) BindDevice(ctx *DeviceContext) (GPUDevice, error) {
	instance := wgpu.CreateInstance(nil)

	adapter, err := b.selectAdapter(instance, ctx.Identity)
	if err != nil {
		instance.Release()
		return nil, err
	}

	limits := wgpu.DefaultLimits()
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "XR Shared Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("requesting wgpu device: %w", err)
	}

	return &wgpuDevice{
		instance: instance,
		adapter:  adapter,
		device:   device,
		queue:    device.GetQueue(),
	}, nil
}

// selectAdapter picks the wgpu adapter sitting on the compositor-designated
// physical device. When a software adapter is forced the match is skipped,
// since the fallback never sits on real hardware.
func (b *wgpuBinder) selectAdapter(instance *wgpu.Instance, identity DeviceIdentity) (*wgpu.Adapter, error) {
	if b.forceFallbackAdapter {
		adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
			ForceFallbackAdapter: true,
		})
		if err != nil {
			return nil, fmt.Errorf("requesting fallback adapter: %w", err)
		}
		return adapter, nil
	}

	adapters := instance.EnumerateAdapters(&wgpu.InstanceEnumerateAdapterOptons{
		Backends: wgpu.InstanceBackendVulkan,
	})
	var selected *wgpu.Adapter
	for _, adapter := range adapters {
		if selected == nil && adapterMatches(adapter.GetInfo(), identity) {
			selected = adapter
			continue
		}
		adapter.Release()
	}
	if selected == nil {
		return nil, fmt.Errorf("%w: %s (vendor 0x%04x, device 0x%04x) not among %d vulkan adapters",
			ErrAdapterMismatch, identity.Name, identity.VendorID, identity.DeviceID, len(adapters))
	}
	return selected, nil
}

// adapterMatches reports whether a wgpu adapter sits on the designated physical
// device. PCI vendor/device IDs identify a device model rather than an
// instance; on machines with identical cards the first match wins.
func adapterMatches(info wgpu.AdapterInfo, identity DeviceIdentity) bool {
	return info.VendorId == identity.VendorID && info.DeviceId == identity.DeviceID
}

// wgpuDevice implements GPUDevice on a wgpu device bound to the negotiated
// context. Swapchain images are exposed as freshly created two-layer render
// targets matching the compositor's resolution and format.
type wgpuDevice struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
}

var _ GPUDevice = &wgpuDevice{}

func (d *wgpuDevice) Device() *wgpu.Device {
	return d.device
}

func (d *wgpuDevice) Queue() *wgpu.Queue {
	return d.queue
}

func (d *wgpuDevice) Submit(buffers ...*wgpu.CommandBuffer) error {
	d.queue.Submit(buffers...)
	return nil
}

func (d *wgpuDevice) WrapSwapchainImage(rawImage uint64, width, height uint32) (Framebuffer, error) {
	texture, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "XR Swapchain Image",
		Size: wgpu.Extent3D{
			Width:  width,
			Height: height,
			// One layer per eye.
			DepthOrArrayLayers: 2,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return Framebuffer{}, fmt.Errorf("wrapping swapchain image: %w", err)
	}

	color, err := texture.CreateView(&wgpu.TextureViewDescriptor{
		Label:           "XR Swapchain View",
		Format:          wgpu.TextureFormatRGBA8UnormSrgb,
		Dimension:       wgpu.TextureViewDimension2DArray,
		Aspect:          wgpu.TextureAspectAll,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 2,
	})
	if err != nil {
		texture.Release()
		return Framebuffer{}, fmt.Errorf("creating swapchain view: %w", err)
	}

	fb := Framebuffer{NativeImage: rawImage, Color: color}
	for eye := uint32(0); eye < 2; eye++ {
		view, err := texture.CreateView(&wgpu.TextureViewDescriptor{
			Label:           "XR Eye Attachment",
			Format:          wgpu.TextureFormatRGBA8UnormSrgb,
			Dimension:       wgpu.TextureViewDimension2D,
			Aspect:          wgpu.TextureAspectAll,
			BaseMipLevel:    0,
			MipLevelCount:   1,
			BaseArrayLayer:  eye,
			ArrayLayerCount: 1,
		})
		if err != nil {
			texture.Release()
			return Framebuffer{}, fmt.Errorf("creating eye attachment view: %w", err)
		}
		fb.Eyes[eye] = view
	}
	return fb, nil
}

func (d *wgpuDevice) Release() {
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}
