package shell

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-xr/xr"
	"github.com/cogentcore/webgpu/wgpu"
	vk "github.com/goki/vulkan"
)

// Hand-rolled mocks for the runtime, native, and GPU seams. Every behavior the
// tests depend on is injectable; unset error fields mean success.

type mockVulkanAPI struct {
	instanceVersion    uint32
	instanceVersionErr error

	availableExtensions []string

	deviceVersion    uint32
	deviceVersionErr error

	identity    DeviceIdentity
	identityErr error

	queueFamilies    []QueueFamily
	queueFamiliesErr error

	createInstanceErr error
	createDeviceErr   error

	createdInstanceInfo  VulkanInstanceInfo
	createdDeviceExts    []string
	createdDeviceFamily  uint32
	instancesDestroyed   int
	devicesDestroyed     int
	instancesCreated     int
	devicesCreated       int
}

var _ VulkanAPI = &mockVulkanAPI{}

func fakeHandle(n uintptr) unsafe.Pointer {
	return unsafe.Pointer(n) //nolint:govet // opaque sentinel, never dereferenced
}

func (m *mockVulkanAPI) InstanceVersion() (uint32, error) {
	return m.instanceVersion, m.instanceVersionErr
}

func (m *mockVulkanAPI) InstanceExtensions() ([]string, error) {
	return m.availableExtensions, nil
}

func (m *mockVulkanAPI) CreateInstance(info VulkanInstanceInfo) (vk.Instance, error) {
	if m.createInstanceErr != nil {
		return nil, m.createInstanceErr
	}
	m.createdInstanceInfo = info
	m.instancesCreated++
	return vk.Instance(fakeHandle(0x10)), nil
}

func (m *mockVulkanAPI) PhysicalDeviceFromRaw(raw uint64) vk.PhysicalDevice {
	return vk.PhysicalDevice(fakeHandle(uintptr(raw)))
}

func (m *mockVulkanAPI) DeviceAPIVersion(phys vk.PhysicalDevice) (uint32, error) {
	return m.deviceVersion, m.deviceVersionErr
}

func (m *mockVulkanAPI) DeviceIdentity(phys vk.PhysicalDevice) (DeviceIdentity, error) {
	return m.identity, m.identityErr
}

func (m *mockVulkanAPI) QueueFamilies(phys vk.PhysicalDevice) ([]QueueFamily, error) {
	return m.queueFamilies, m.queueFamiliesErr
}

func (m *mockVulkanAPI) CreateDevice(phys vk.PhysicalDevice, queueFamily uint32, extensions []string) (vk.Device, error) {
	if m.createDeviceErr != nil {
		return nil, m.createDeviceErr
	}
	m.createdDeviceFamily = queueFamily
	m.createdDeviceExts = extensions
	m.devicesCreated++
	return vk.Device(fakeHandle(0x20)), nil
}

func (m *mockVulkanAPI) RawInstance(instance vk.Instance) uint64 {
	return uint64(uintptr(unsafe.Pointer(instance)))
}

func (m *mockVulkanAPI) RawPhysicalDevice(phys vk.PhysicalDevice) uint64 {
	return uint64(uintptr(unsafe.Pointer(phys)))
}

func (m *mockVulkanAPI) RawDevice(device vk.Device) uint64 {
	return uint64(uintptr(unsafe.Pointer(device)))
}

func (m *mockVulkanAPI) DestroyInstance(instance vk.Instance) {
	m.instancesDestroyed++
}

func (m *mockVulkanAPI) DestroyDevice(device vk.Device) {
	m.devicesDestroyed++
}

// newMockVulkanAPI returns a native mock that passes negotiation for a Vulkan
// 1.1 target.
func newMockVulkanAPI() *mockVulkanAPI {
	return &mockVulkanAPI{
		instanceVersion: vk.MakeVersion(1, 3, 0),
		deviceVersion:   vk.MakeVersion(1, 3, 0),
		identity:        DeviceIdentity{VendorID: 0x10de, DeviceID: 0x2684, Name: "Mock GPU"},
		availableExtensions: []string{
			"VK_KHR_get_physical_device_properties2",
			"VK_KHR_external_memory_capabilities",
		},
		queueFamilies: []QueueFamily{
			{Index: 0, Graphics: true, Compute: true, Transfer: true},
		},
	}
}

type mockGPUDevice struct {
	submitErr     error
	submitCalls   int
	submittedLens []int
	wrapErr       error
	wrapped       int
	released      int
}

var _ GPUDevice = &mockGPUDevice{}

func (m *mockGPUDevice) Device() *wgpu.Device { return nil }
func (m *mockGPUDevice) Queue() *wgpu.Queue   { return nil }

func (m *mockGPUDevice) Submit(buffers ...*wgpu.CommandBuffer) error {
	m.submitCalls++
	m.submittedLens = append(m.submittedLens, len(buffers))
	return m.submitErr
}

func (m *mockGPUDevice) WrapSwapchainImage(rawImage uint64, width, height uint32) (Framebuffer, error) {
	if m.wrapErr != nil {
		return Framebuffer{}, m.wrapErr
	}
	m.wrapped++
	return Framebuffer{NativeImage: rawImage}, nil
}

func (m *mockGPUDevice) Release() {
	m.released++
}

type mockGPUBinder struct {
	instanceExts  []string
	deviceExts    []string
	bindErr       error
	device        *mockGPUDevice
	boundIdentity DeviceIdentity
}

var _ GPUBinder = &mockGPUBinder{}

func (m *mockGPUBinder) RequiredInstanceExtensions() []string { return m.instanceExts }
func (m *mockGPUBinder) RequiredDeviceExtensions() []string   { return m.deviceExts }

func (m *mockGPUBinder) BindDevice(ctx *DeviceContext) (GPUDevice, error) {
	if m.bindErr != nil {
		return nil, m.bindErr
	}
	m.boundIdentity = ctx.Identity
	if m.device == nil {
		m.device = &mockGPUDevice{}
	}
	return m.device, nil
}

type mockSpace struct {
	location xr.SpaceLocation
}

var _ xr.Space = &mockSpace{}

func (m *mockSpace) Locate(base xr.Space, time xr.Time) (xr.SpaceLocation, error) {
	return m.location, nil
}

type mockXRSwapchain struct {
	images []uint64

	acquireErr  error
	waitErr     error
	releaseErr  error
	nextAcquire uint32

	acquireCalls int
	waitCalls    int
	releaseCalls int
	lastTimeout  xr.Duration
}

var _ xr.Swapchain = &mockXRSwapchain{}

func (m *mockXRSwapchain) EnumerateImages() ([]uint64, error) {
	return m.images, nil
}

func (m *mockXRSwapchain) AcquireImage() (uint32, error) {
	if m.acquireErr != nil {
		return 0, m.acquireErr
	}
	index := m.nextAcquire
	m.nextAcquire = (m.nextAcquire + 1) % uint32(len(m.images))
	m.acquireCalls++
	return index, nil
}

func (m *mockXRSwapchain) WaitImage(timeout xr.Duration) error {
	m.waitCalls++
	m.lastTimeout = timeout
	return m.waitErr
}

func (m *mockXRSwapchain) ReleaseImage() error {
	m.releaseCalls++
	return m.releaseErr
}

type mockSession struct {
	beginErr error
	endErr   error
	exitErr  error

	beginCalls  int
	endCalls    int
	exitCalls   int
	beganViewTy xr.ViewConfigurationType

	swapchain    *mockXRSwapchain
	swapchainErr error
	lastCreate   *xr.SwapchainCreateInfo

	space *mockSpace

	locateFlags xr.ViewStateFlags
	locateViews []xr.View
	locateErr   error

	attachedSets []xr.ActionSet
	syncCalls    int
}

var _ xr.Session = &mockSession{}

func (m *mockSession) Begin(viewType xr.ViewConfigurationType) error {
	m.beginCalls++
	m.beganViewTy = viewType
	return m.beginErr
}

func (m *mockSession) End() error {
	m.endCalls++
	return m.endErr
}

func (m *mockSession) RequestExit() error {
	m.exitCalls++
	return m.exitErr
}

func (m *mockSession) CreateSwapchain(info *xr.SwapchainCreateInfo) (xr.Swapchain, error) {
	if m.swapchainErr != nil {
		return nil, m.swapchainErr
	}
	m.lastCreate = info
	if m.swapchain == nil {
		m.swapchain = &mockXRSwapchain{images: []uint64{0x100, 0x200}}
	}
	return m.swapchain, nil
}

func (m *mockSession) CreateReferenceSpace(spaceType xr.ReferenceSpaceType, pose xr.Posef) (xr.Space, error) {
	if m.space == nil {
		m.space = &mockSpace{}
	}
	return m.space, nil
}

func (m *mockSession) LocateViews(viewType xr.ViewConfigurationType, displayTime xr.Time, space xr.Space) (xr.ViewStateFlags, []xr.View, error) {
	return m.locateFlags, m.locateViews, m.locateErr
}

func (m *mockSession) AttachActionSets(sets []xr.ActionSet) error {
	m.attachedSets = append(m.attachedSets, sets...)
	return nil
}

func (m *mockSession) SyncActions(sets []xr.ActionSet) error {
	m.syncCalls++
	return nil
}

type mockWaiter struct {
	states []xr.FrameState
	err    error
	calls  int
}

var _ xr.FrameWaiter = &mockWaiter{}

func (m *mockWaiter) Wait() (xr.FrameState, error) {
	if m.err != nil {
		return xr.FrameState{}, m.err
	}
	state := xr.FrameState{ShouldRender: true}
	if len(m.states) > 0 {
		state = m.states[0]
		if len(m.states) > 1 {
			m.states = m.states[1:]
		}
	}
	m.calls++
	return state, nil
}

type mockStream struct {
	beginErr error
	endErr   error

	beginCalls int
	endCalls   int
	endedWith  [][]xr.CompositionLayer
	blendModes []xr.EnvironmentBlendMode
}

var _ xr.FrameStream = &mockStream{}

func (m *mockStream) Begin() error {
	m.beginCalls++
	return m.beginErr
}

func (m *mockStream) End(displayTime xr.Time, blendMode xr.EnvironmentBlendMode, layers []xr.CompositionLayer) error {
	m.endCalls++
	m.endedWith = append(m.endedWith, layers)
	m.blendModes = append(m.blendModes, blendMode)
	return m.endErr
}

type mockRuntime struct {
	props    xr.InstanceProperties
	propsErr error

	system    xr.SystemID
	systemErr error

	blendModes    []xr.EnvironmentBlendMode
	blendModesErr error

	configViews    []xr.ViewConfigurationView
	configViewsErr error

	reqs    xr.GraphicsRequirements
	reqsErr error

	instanceExts []string
	deviceExts   []string

	graphicsDevice    uint64
	graphicsDeviceErr error

	session    *mockSession
	waiter     *mockWaiter
	stream     *mockStream
	sessionErr error

	events   []xr.Event
	pollErr  error
	pollIdx  int
}

var _ xr.Instance = &mockRuntime{}

func (m *mockRuntime) Properties() (xr.InstanceProperties, error) {
	return m.props, m.propsErr
}

func (m *mockRuntime) System(formFactor xr.FormFactor) (xr.SystemID, error) {
	return m.system, m.systemErr
}

func (m *mockRuntime) EnumerateEnvironmentBlendModes(system xr.SystemID, viewType xr.ViewConfigurationType) ([]xr.EnvironmentBlendMode, error) {
	return m.blendModes, m.blendModesErr
}

func (m *mockRuntime) EnumerateViewConfigurationViews(system xr.SystemID, viewType xr.ViewConfigurationType) ([]xr.ViewConfigurationView, error) {
	return m.configViews, m.configViewsErr
}

func (m *mockRuntime) GraphicsRequirements(system xr.SystemID) (xr.GraphicsRequirements, error) {
	return m.reqs, m.reqsErr
}

func (m *mockRuntime) VulkanInstanceExtensions(system xr.SystemID) ([]string, error) {
	return m.instanceExts, nil
}

func (m *mockRuntime) VulkanDeviceExtensions(system xr.SystemID) ([]string, error) {
	return m.deviceExts, nil
}

func (m *mockRuntime) VulkanGraphicsDevice(system xr.SystemID, vkInstance uint64) (uint64, error) {
	if m.graphicsDeviceErr != nil {
		return 0, m.graphicsDeviceErr
	}
	if m.graphicsDevice == 0 {
		return 0x30, nil
	}
	return m.graphicsDevice, nil
}

func (m *mockRuntime) CreateSession(system xr.SystemID, info *xr.VulkanSessionCreateInfo) (xr.Session, xr.FrameWaiter, xr.FrameStream, error) {
	if m.sessionErr != nil {
		return nil, nil, nil, m.sessionErr
	}
	if m.session == nil {
		m.session = &mockSession{}
	}
	if m.waiter == nil {
		m.waiter = &mockWaiter{}
	}
	if m.stream == nil {
		m.stream = &mockStream{}
	}
	return m.session, m.waiter, m.stream, nil
}

func (m *mockRuntime) PollEvent() (xr.Event, error) {
	if m.pollErr != nil {
		return nil, m.pollErr
	}
	if m.pollIdx >= len(m.events) {
		return nil, nil
	}
	event := m.events[m.pollIdx]
	m.pollIdx++
	return event, nil
}

func (m *mockRuntime) StringToPath(s string) (xr.Path, error) {
	return xr.Path(len(s)), nil
}

func (m *mockRuntime) CreateActionSet(name, localizedName string, priority uint32) (xr.ActionSet, error) {
	return nil, nil
}

func (m *mockRuntime) SuggestInteractionProfileBindings(profile xr.Path, bindings []xr.Binding) error {
	return nil
}

// newMockRuntime returns a runtime mock that negotiates successfully against a
// Vulkan 1.1 target with a 1600x1600 stereo configuration.
func newMockRuntime() *mockRuntime {
	return &mockRuntime{
		props: xr.InstanceProperties{
			RuntimeName:    "Mock Compositor",
			RuntimeVersion: xr.NewVersion(1, 0, 0),
		},
		system:     xr.SystemID(7),
		blendModes: []xr.EnvironmentBlendMode{xr.EnvironmentBlendModeOpaque, xr.EnvironmentBlendModeAdditive},
		configViews: []xr.ViewConfigurationView{
			{RecommendedImageRectWidth: 1600, RecommendedImageRectHeight: 1600, RecommendedSwapchainSampleCount: 1},
			{RecommendedImageRectWidth: 1600, RecommendedImageRectHeight: 1600, RecommendedSwapchainSampleCount: 1},
		},
		reqs: xr.GraphicsRequirements{
			MinAPIVersionSupported: xr.NewVersion(1, 0, 0),
			MaxAPIVersionSupported: xr.NewVersion(1, 3, 0),
		},
		instanceExts: []string{"VK_KHR_external_memory_capabilities"},
		deviceExts:   []string{"VK_KHR_external_memory"},
	}
}

// newTestShell builds a shell over the standard mocks, forwarding the
// compositor-required instance extensions into the native mock so negotiation
// succeeds.
func newTestShell(runtime *mockRuntime, api *mockVulkanAPI, binder *mockGPUBinder) (*xrShell, error) {
	api.availableExtensions = append(api.availableExtensions, runtime.instanceExts...)
	api.availableExtensions = append(api.availableExtensions, binder.instanceExts...)
	s, err := NewShell(runtime,
		WithVulkanAPI(api),
		WithGPUBinder(binder),
	)
	if err != nil {
		return nil, err
	}
	return s.(*xrShell), nil
}
