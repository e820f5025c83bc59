package shell

import (
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-xr/xr"
	vk "github.com/goki/vulkan"
)

// DeviceContext is the negotiated native GPU pairing shared by the compositor
// runtime and the GPU backend: one instance, the compositor-designated physical
// device, one logical device, and a single graphics queue. The context is the
// sole owner of the native handles; the compositor and GPU layers hold
// non-owning references for their lifetime. Created once at startup and never
// recreated — there is no device-loss recovery path.
type DeviceContext struct {
	Instance         vk.Instance
	PhysicalDevice   vk.PhysicalDevice
	Device           vk.Device
	QueueFamilyIndex uint32
	QueueIndex       uint32

	// Identity names the designated physical device. The GPU backend matches
	// its adapter against it instead of picking a device independently.
	Identity DeviceIdentity

	// APIVersion is the packed Vulkan version the instance was created against.
	APIVersion uint32
	// InstanceExtensions and DeviceExtensions are the enabled extension sets:
	// the union of what the compositor mandates and what the GPU backend needs.
	InstanceExtensions []string
	DeviceExtensions   []string

	native VulkanAPI
}

// RawHandles packs the context's handles for session creation.
//
// Returns:
//   - *xr.VulkanSessionCreateInfo: the raw handle set the runtime binds to
func (c *DeviceContext) RawHandles() *xr.VulkanSessionCreateInfo {
	return &xr.VulkanSessionCreateInfo{
		Instance:         c.native.RawInstance(c.Instance),
		PhysicalDevice:   c.native.RawPhysicalDevice(c.PhysicalDevice),
		Device:           c.native.RawDevice(c.Device),
		QueueFamilyIndex: c.QueueFamilyIndex,
		QueueIndex:       c.QueueIndex,
	}
}

// Destroy tears down the logical device and instance, in that order. Must only
// be called after both the compositor session and the GPU backend have dropped
// their references.
func (c *DeviceContext) Destroy() {
	if c.Device != nil {
		c.native.DestroyDevice(c.Device)
		c.Device = nil
	}
	if c.Instance != nil {
		c.native.DestroyInstance(c.Instance)
		c.Instance = nil
	}
}

// deviceBridge negotiates one DeviceContext usable by both the compositor
// runtime and the GPU backend. Every step is fatal on failure: there is no
// degraded mode, because a failure means no valid GPU/compositor pairing exists.
type deviceBridge struct {
	native VulkanAPI
	binder GPUBinder
	logger *slog.Logger
}

// bridgeConfig carries the application identity and target API version into
// instance creation.
type bridgeConfig struct {
	appName          string
	appVersion       uint32
	targetAPIVersion uint32
}

// createContext runs the negotiation protocol in strict order. Each step feeds
// the next:
//
//  1. Gate the target Vulkan version against the compositor's floor and ceiling.
//  2. Union compositor-required and GPU-required instance extensions and create
//     one native instance, gating the driver's supported version against the
//     target.
//  3. Let the compositor designate the physical device from the new instance.
//  4. Re-check the designated device's version against the floor and record
//     its identity, so the GPU backend can bind the same device.
//  5. Union device extensions, force-enabling timeline semaphores.
//  6. Select the first graphics-capable queue family.
//  7. Create one logical device with a single queue at priority 1.0.
func (b *deviceBridge) createContext(runtime xr.Instance, system xr.SystemID, cfg bridgeConfig) (*DeviceContext, error) {
	target := cfg.targetAPIVersion
	targetXR := xr.NewVersion(versionMajor(target), versionMinor(target), versionPatch(target))

	reqs, err := runtime.GraphicsRequirements(system)
	if err != nil {
		return nil, fmt.Errorf("querying compositor graphics requirements: %w", err)
	}
	if targetXR < reqs.MinAPIVersionSupported || targetXR.Major() > reqs.MaxAPIVersionSupported.Major() {
		return nil, fmt.Errorf("%w: compositor requires >= %d.%d.%d, < %d.0.0; targeting %d.%d.%d",
			ErrVersionMismatch,
			reqs.MinAPIVersionSupported.Major(), reqs.MinAPIVersionSupported.Minor(), reqs.MinAPIVersionSupported.Patch(),
			reqs.MaxAPIVersionSupported.Major()+1,
			versionMajor(target), versionMinor(target), versionPatch(target))
	}

	driverVersion, err := b.native.InstanceVersion()
	if err != nil {
		return nil, fmt.Errorf("querying vulkan instance version: %w", err)
	}
	if driverVersion < target {
		return nil, fmt.Errorf("%w: driver supports %d.%d.%d, target is %d.%d.%d",
			ErrVersionMismatch,
			versionMajor(driverVersion), versionMinor(driverVersion), versionPatch(driverVersion),
			versionMajor(target), versionMinor(target), versionPatch(target))
	}

	xrInstanceExts, err := runtime.VulkanInstanceExtensions(system)
	if err != nil {
		return nil, fmt.Errorf("querying compositor instance extensions: %w", err)
	}
	gpuInstanceExts := b.binder.RequiredInstanceExtensions()
	instanceExts := unionExtensions(xrInstanceExts, gpuInstanceExts)
	b.logger.Info("vulkan instance extensions",
		"compositor", xrInstanceExts, "gpu", gpuInstanceExts, "enabled", instanceExts)

	available, err := b.native.InstanceExtensions()
	if err != nil {
		return nil, fmt.Errorf("enumerating available instance extensions: %w", err)
	}
	if missing := missingExtensions(instanceExts, available); len(missing) > 0 {
		return nil, fmt.Errorf("%w: instance extensions %v", ErrExtensionMissing, missing)
	}

	instance, err := b.native.CreateInstance(VulkanInstanceInfo{
		AppName:    cfg.appName,
		AppVersion: cfg.appVersion,
		APIVersion: target,
		Extensions: instanceExts,
	})
	if err != nil {
		return nil, fmt.Errorf("creating vulkan instance: %w", err)
	}

	// The compositor designates the device, not the application.
	rawPhys, err := runtime.VulkanGraphicsDevice(system, b.native.RawInstance(instance))
	if err != nil {
		b.native.DestroyInstance(instance)
		return nil, fmt.Errorf("querying compositor graphics device: %w", err)
	}
	phys := b.native.PhysicalDeviceFromRaw(rawPhys)

	deviceVersion, err := b.native.DeviceAPIVersion(phys)
	if err != nil {
		b.native.DestroyInstance(instance)
		return nil, fmt.Errorf("querying physical device version: %w", err)
	}
	if deviceVersion < target {
		// The compositor designated a device below its own floor.
		b.native.DestroyInstance(instance)
		return nil, fmt.Errorf("%w: designated device supports %d.%d.%d, target is %d.%d.%d",
			ErrVersionMismatch,
			versionMajor(deviceVersion), versionMinor(deviceVersion), versionPatch(deviceVersion),
			versionMajor(target), versionMinor(target), versionPatch(target))
	}

	identity, err := b.native.DeviceIdentity(phys)
	if err != nil {
		b.native.DestroyInstance(instance)
		return nil, fmt.Errorf("querying physical device identity: %w", err)
	}
	b.logger.Info("compositor designated device",
		"name", identity.Name, "vendorID", identity.VendorID, "deviceID", identity.DeviceID)

	xrDeviceExts, err := runtime.VulkanDeviceExtensions(system)
	if err != nil {
		b.native.DestroyInstance(instance)
		return nil, fmt.Errorf("querying compositor device extensions: %w", err)
	}
	deviceExts := unionExtensions(xrDeviceExts, b.binder.RequiredDeviceExtensions())
	deviceExts = unionExtensions(deviceExts, []string{timelineSemaphoreExtension})
	b.logger.Info("vulkan device extensions", "enabled", deviceExts)

	families, err := b.native.QueueFamilies(phys)
	if err != nil {
		b.native.DestroyInstance(instance)
		return nil, fmt.Errorf("querying queue families: %w", err)
	}
	family, ok := graphicsQueueFamily(families)
	if !ok {
		b.native.DestroyInstance(instance)
		return nil, ErrNoGraphicsQueue
	}

	device, err := b.native.CreateDevice(phys, family, deviceExts)
	if err != nil {
		b.native.DestroyInstance(instance)
		return nil, fmt.Errorf("creating vulkan device: %w", err)
	}

	return &DeviceContext{
		Instance:           instance,
		PhysicalDevice:     phys,
		Device:             device,
		QueueFamilyIndex:   family,
		QueueIndex:         0,
		Identity:           identity,
		APIVersion:         target,
		InstanceExtensions: instanceExts,
		DeviceExtensions:   deviceExts,
		native:             b.native,
	}, nil
}

// unionExtensions merges two extension sets, preserving first-seen order and
// dropping duplicates. Duplicates between the sets are expected, not an error.
func unionExtensions(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, s := range b {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// missingExtensions returns the entries of want absent from have.
func missingExtensions(want, have []string) []string {
	available := make(map[string]struct{}, len(have))
	for _, s := range have {
		available[s] = struct{}{}
	}
	var missing []string
	for _, s := range want {
		if _, ok := available[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}

// graphicsQueueFamily returns the index of the first graphics-capable family.
func graphicsQueueFamily(families []QueueFamily) (uint32, bool) {
	for _, f := range families {
		if f.Graphics {
			return f.Index, true
		}
	}
	return 0, false
}
