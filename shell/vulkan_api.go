package shell

import (
	"bytes"
	"fmt"
	"sync"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// QueueFamily summarizes the capabilities of one device queue family.
type QueueFamily struct {
	Index    uint32
	Graphics bool
	Compute  bool
	Transfer bool
}

// DeviceIdentity names a physical device by its PCI vendor and device IDs plus
// the driver-reported name. The GPU backend uses it to pair its adapter with
// the compositor-designated device rather than whichever device the backend
// would pick on its own.
type DeviceIdentity struct {
	VendorID uint32
	DeviceID uint32
	Name     string
}

// VulkanInstanceInfo carries everything needed to create the native instance.
type VulkanInstanceInfo struct {
	AppName    string
	AppVersion uint32
	// APIVersion is the packed Vulkan version the instance is created against.
	APIVersion uint32
	// Extensions is the full (already unioned) set of instance extensions.
	Extensions []string
}

// VulkanAPI abstracts the small slice of the Vulkan API the device bridge needs,
// so the negotiation protocol can be exercised without a loaded driver. The
// production implementation is NewVulkanAPI.
type VulkanAPI interface {
	// InstanceVersion returns the highest packed Vulkan version the local loader
	// and driver support.
	InstanceVersion() (uint32, error)

	// InstanceExtensions returns the names of all available instance extensions.
	InstanceExtensions() ([]string, error)

	// CreateInstance creates the one native instance shared by the compositor
	// runtime and the GPU backend.
	CreateInstance(info VulkanInstanceInfo) (vk.Instance, error)

	// PhysicalDeviceFromRaw reinterprets a raw handle designated by the
	// compositor as a physical device.
	PhysicalDeviceFromRaw(raw uint64) vk.PhysicalDevice

	// DeviceAPIVersion returns the packed Vulkan version a physical device
	// supports.
	DeviceAPIVersion(phys vk.PhysicalDevice) (uint32, error)

	// DeviceIdentity returns the vendor/device identity of a physical device,
	// for matching the GPU backend's adapter against it.
	DeviceIdentity(phys vk.PhysicalDevice) (DeviceIdentity, error)

	// QueueFamilies lists the queue families a physical device exposes, in
	// family-index order.
	QueueFamilies(phys vk.PhysicalDevice) ([]QueueFamily, error)

	// CreateDevice creates the one logical device shared by both subsystems, with
	// a single queue on queueFamily at priority 1.0.
	CreateDevice(phys vk.PhysicalDevice, queueFamily uint32, extensions []string) (vk.Device, error)

	// RawInstance returns the raw handle for an instance, for handing to the
	// compositor runtime.
	RawInstance(instance vk.Instance) uint64

	// RawPhysicalDevice returns the raw handle for a physical device.
	RawPhysicalDevice(phys vk.PhysicalDevice) uint64

	// RawDevice returns the raw handle for a logical device.
	RawDevice(device vk.Device) uint64

	// DestroyInstance tears down an instance created by CreateInstance.
	DestroyInstance(instance vk.Instance)

	// DestroyDevice tears down a device created by CreateDevice.
	DestroyDevice(device vk.Device)
}

// timelineSemaphoreExtension is force-enabled on every device because the wgpu
// backend assumes timeline semaphores unconditionally.
const timelineSemaphoreExtension = "VK_KHR_timeline_semaphore"

// gokiVulkanAPI implements VulkanAPI on the goki/vulkan loader bindings.
type gokiVulkanAPI struct {
	initOnce sync.Once
	initErr  error
}

var _ VulkanAPI = &gokiVulkanAPI{}

// NewVulkanAPI returns the production VulkanAPI backed by the system's Vulkan
// loader. The loader is initialized lazily on first use.
func NewVulkanAPI() VulkanAPI {
	return &gokiVulkanAPI{}
}

// ensureInit loads the Vulkan loader entry points once.
func (g *gokiVulkanAPI) ensureInit() error {
	g.initOnce.Do(func() {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			g.initErr = fmt.Errorf("loading vulkan loader: %w", err)
			return
		}
		if err := vk.Init(); err != nil {
			g.initErr = fmt.Errorf("initializing vulkan: %w", err)
		}
	})
	return g.initErr
}

// loaderCheckVersion is the apiVersion a throwaway instance is created with to
// learn the loader's version. Loaders from Vulkan 1.1 on accept any application
// apiVersion at instance creation, so one success clears every target up to
// this version; 1.0 loaders reject newer versions with ErrorIncompatibleDriver.
var loaderCheckVersion = vk.MakeVersion(1, 3, 0)

func (g *gokiVulkanAPI) InstanceVersion() (uint32, error) {
	if err := g.ensureInit(); err != nil {
		return 0, err
	}

	// The loader bindings expose no direct version query, so create a throwaway
	// instance and classify the result.
	appInfo := vk.ApplicationInfo{
		SType:      vk.StructureTypeApplicationInfo,
		ApiVersion: loaderCheckVersion,
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &appInfo,
	}
	var scratch vk.Instance
	res := vk.CreateInstance(&createInfo, nil, &scratch)
	if res == vk.Success {
		vk.InitInstance(scratch)
		vk.DestroyInstance(scratch, nil)
	}
	return loaderVersionFromResult(res)
}

// loaderVersionFromResult maps the throwaway instance creation result to the
// highest usable loader version.
func loaderVersionFromResult(res vk.Result) (uint32, error) {
	switch res {
	case vk.Success:
		return loaderCheckVersion, nil
	case vk.ErrorIncompatibleDriver:
		return vk.MakeVersion(1, 0, 0), nil
	default:
		return 0, fmt.Errorf("querying loader version: %s", vk.Error(res))
	}
}

func (g *gokiVulkanAPI) InstanceExtensions() ([]string, error) {
	if err := g.ensureInit(); err != nil {
		return nil, err
	}
	var count uint32
	if res := vk.EnumerateInstanceExtensionProperties("", &count, nil); res != vk.Success {
		return nil, fmt.Errorf("enumerating instance extensions: %s", vk.Error(res))
	}
	props := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateInstanceExtensionProperties("", &count, props); res != vk.Success {
		return nil, fmt.Errorf("enumerating instance extensions: %s", vk.Error(res))
	}
	names := make([]string, 0, count)
	for i := range props {
		props[i].Deref()
		names = append(names, trimNul(props[i].ExtensionName[:]))
	}
	return names, nil
}

func (g *gokiVulkanAPI) CreateInstance(info VulkanInstanceInfo) (vk.Instance, error) {
	if err := g.ensureInit(); err != nil {
		return nil, err
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   safeString(info.AppName),
		ApplicationVersion: info.AppVersion,
		PEngineName:        safeString("oxy-xr"),
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         info.APIVersion,
	}
	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(info.Extensions)),
		PpEnabledExtensionNames: safeStrings(info.Extensions),
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, nil, &instance); res != vk.Success {
		return nil, fmt.Errorf("vkCreateInstance: %s", vk.Error(res))
	}
	vk.InitInstance(instance)
	return instance, nil
}

func (g *gokiVulkanAPI) PhysicalDeviceFromRaw(raw uint64) vk.PhysicalDevice {
	return vk.PhysicalDevice(unsafe.Pointer(uintptr(raw)))
}

func (g *gokiVulkanAPI) DeviceAPIVersion(phys vk.PhysicalDevice) (uint32, error) {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(phys, &props)
	props.Deref()
	return props.ApiVersion, nil
}

func (g *gokiVulkanAPI) DeviceIdentity(phys vk.PhysicalDevice) (DeviceIdentity, error) {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(phys, &props)
	props.Deref()
	return DeviceIdentity{
		VendorID: props.VendorID,
		DeviceID: props.DeviceID,
		Name:     trimNul(props.DeviceName[:]),
	}, nil
}

func (g *gokiVulkanAPI) QueueFamilies(phys vk.PhysicalDevice) ([]QueueFamily, error) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(phys, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(phys, &count, props)

	families := make([]QueueFamily, 0, count)
	for i := range props {
		props[i].Deref()
		flags := props[i].QueueFlags
		families = append(families, QueueFamily{
			Index:    uint32(i),
			Graphics: flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
			Compute:  flags&vk.QueueFlags(vk.QueueComputeBit) != 0,
			Transfer: flags&vk.QueueFlags(vk.QueueTransferBit) != 0,
		})
	}
	return families, nil
}

func (g *gokiVulkanAPI) CreateDevice(phys vk.PhysicalDevice, queueFamily uint32, extensions []string) (vk.Device, error) {
	queueCreateInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: queueFamily,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}
	createInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    1,
		PQueueCreateInfos:       []vk.DeviceQueueCreateInfo{queueCreateInfo},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
	}

	var device vk.Device
	if res := vk.CreateDevice(phys, &createInfo, nil, &device); res != vk.Success {
		return nil, fmt.Errorf("vkCreateDevice: %s", vk.Error(res))
	}
	return device, nil
}

func (g *gokiVulkanAPI) RawInstance(instance vk.Instance) uint64 {
	return uint64(uintptr(unsafe.Pointer(instance)))
}

func (g *gokiVulkanAPI) RawPhysicalDevice(phys vk.PhysicalDevice) uint64 {
	return uint64(uintptr(unsafe.Pointer(phys)))
}

func (g *gokiVulkanAPI) RawDevice(device vk.Device) uint64 {
	return uint64(uintptr(unsafe.Pointer(device)))
}

func (g *gokiVulkanAPI) DestroyInstance(instance vk.Instance) {
	vk.DestroyInstance(instance, nil)
}

func (g *gokiVulkanAPI) DestroyDevice(device vk.Device) {
	vk.DestroyDevice(device, nil)
}

// safeString null-terminates a string for Vulkan.
func safeString(s string) string {
	return s + "\x00"
}

// safeStrings null-terminates every string in a slice for Vulkan.
func safeStrings(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = safeString(s)
	}
	return out
}

// trimNul returns the string content of a NUL-padded byte array.
func trimNul(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// versionMajor extracts the major component of a packed Vulkan version.
func versionMajor(v uint32) uint16 { return uint16(v >> 22) }

// versionMinor extracts the minor component of a packed Vulkan version.
func versionMinor(v uint32) uint16 { return uint16((v >> 12) & 0x3ff) }

// versionPatch extracts the patch component of a packed Vulkan version.
func versionPatch(v uint32) uint32 { return v & 0xfff }
