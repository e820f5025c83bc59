package controls

import (
	"github.com/Carmen-Shannon/oxy-xr/xr"
)

// Input-focused mocks for the runtime, session, and action seams. Paths are
// interned deterministically so tests can look up the same path the scheme got.

type mockRuntime struct {
	paths    map[string]xr.Path
	nextPath xr.Path

	actionSet    *mockActionSet
	actionSetErr error
	createdSets  []string

	suggested map[xr.Path][]xr.Binding
	suggestN  int
}

var _ xr.Instance = &mockRuntime{}

func newMockRuntime() *mockRuntime {
	return &mockRuntime{
		paths:     map[string]xr.Path{},
		nextPath:  1,
		suggested: map[xr.Path][]xr.Binding{},
	}
}

func (m *mockRuntime) StringToPath(s string) (xr.Path, error) {
	if path, ok := m.paths[s]; ok {
		return path, nil
	}
	path := m.nextPath
	m.nextPath++
	m.paths[s] = path
	return path, nil
}

func (m *mockRuntime) CreateActionSet(name, localizedName string, priority uint32) (xr.ActionSet, error) {
	if m.actionSetErr != nil {
		return nil, m.actionSetErr
	}
	m.createdSets = append(m.createdSets, name)
	if m.actionSet == nil {
		m.actionSet = &mockActionSet{}
	}
	return m.actionSet, nil
}

func (m *mockRuntime) SuggestInteractionProfileBindings(profile xr.Path, bindings []xr.Binding) error {
	m.suggested[profile] = bindings
	m.suggestN++
	return nil
}

func (m *mockRuntime) Properties() (xr.InstanceProperties, error) { return xr.InstanceProperties{}, nil }
func (m *mockRuntime) System(formFactor xr.FormFactor) (xr.SystemID, error) {
	return 0, nil
}
func (m *mockRuntime) EnumerateEnvironmentBlendModes(system xr.SystemID, viewType xr.ViewConfigurationType) ([]xr.EnvironmentBlendMode, error) {
	return nil, nil
}
func (m *mockRuntime) EnumerateViewConfigurationViews(system xr.SystemID, viewType xr.ViewConfigurationType) ([]xr.ViewConfigurationView, error) {
	return nil, nil
}
func (m *mockRuntime) GraphicsRequirements(system xr.SystemID) (xr.GraphicsRequirements, error) {
	return xr.GraphicsRequirements{}, nil
}
func (m *mockRuntime) VulkanInstanceExtensions(system xr.SystemID) ([]string, error) {
	return nil, nil
}
func (m *mockRuntime) VulkanDeviceExtensions(system xr.SystemID) ([]string, error) {
	return nil, nil
}
func (m *mockRuntime) VulkanGraphicsDevice(system xr.SystemID, vkInstance uint64) (uint64, error) {
	return 0, nil
}
func (m *mockRuntime) CreateSession(system xr.SystemID, info *xr.VulkanSessionCreateInfo) (xr.Session, xr.FrameWaiter, xr.FrameStream, error) {
	return nil, nil, nil, nil
}
func (m *mockRuntime) PollEvent() (xr.Event, error) { return nil, nil }

type mockActionSet struct {
	poseActions map[string]*mockPoseAction
	boolActions map[string]*mockBoolAction
}

var _ xr.ActionSet = &mockActionSet{}

func (m *mockActionSet) CreatePoseAction(name, localizedName string, subactionPaths []xr.Path) (xr.PoseAction, error) {
	action := &mockPoseAction{
		name:     name,
		subpaths: subactionPaths,
		active:   map[xr.Path]bool{},
	}
	if m.poseActions == nil {
		m.poseActions = map[string]*mockPoseAction{}
	}
	m.poseActions[name] = action
	return action, nil
}

func (m *mockActionSet) CreateBoolAction(name, localizedName string, subactionPaths []xr.Path) (xr.BoolAction, error) {
	action := &mockBoolAction{
		name:     name,
		subpaths: subactionPaths,
		states:   map[xr.Path]xr.ActionStateBool{},
	}
	if m.boolActions == nil {
		m.boolActions = map[string]*mockBoolAction{}
	}
	m.boolActions[name] = action
	return action, nil
}

type mockPoseAction struct {
	// Embedding satisfies the sealed Action interface without a runtime binding.
	xr.Action

	name     string
	subpaths []xr.Path
	active   map[xr.Path]bool

	// spaces holds the action spaces in creation order, left then right.
	spaces []*mockActionSpace
}

var _ xr.PoseAction = &mockPoseAction{}

func (m *mockPoseAction) CreateSpace(session xr.Session, subactionPath xr.Path, pose xr.Posef) (xr.Space, error) {
	space := &mockActionSpace{subpath: subactionPath}
	m.spaces = append(m.spaces, space)
	return space, nil
}

func (m *mockPoseAction) IsActive(session xr.Session, subactionPath xr.Path) (bool, error) {
	return m.active[subactionPath], nil
}

type mockBoolAction struct {
	xr.Action

	name     string
	subpaths []xr.Path
	states   map[xr.Path]xr.ActionStateBool
}

var _ xr.BoolAction = &mockBoolAction{}

func (m *mockBoolAction) State(session xr.Session, subactionPath xr.Path) (xr.ActionStateBool, error) {
	return m.states[subactionPath], nil
}

type mockActionSpace struct {
	subpath  xr.Path
	location xr.SpaceLocation
}

var _ xr.Space = &mockActionSpace{}

func (m *mockActionSpace) Locate(base xr.Space, time xr.Time) (xr.SpaceLocation, error) {
	return m.location, nil
}

type mockSession struct {
	attached  [][]xr.ActionSet
	attachErr error
}

var _ xr.Session = &mockSession{}

func (m *mockSession) AttachActionSets(sets []xr.ActionSet) error {
	if m.attachErr != nil {
		return m.attachErr
	}
	m.attached = append(m.attached, sets)
	return nil
}

func (m *mockSession) Begin(viewType xr.ViewConfigurationType) error { return nil }
func (m *mockSession) End() error                                    { return nil }
func (m *mockSession) RequestExit() error                            { return nil }
func (m *mockSession) CreateSwapchain(info *xr.SwapchainCreateInfo) (xr.Swapchain, error) {
	return nil, nil
}
func (m *mockSession) CreateReferenceSpace(spaceType xr.ReferenceSpaceType, pose xr.Posef) (xr.Space, error) {
	return nil, nil
}
func (m *mockSession) LocateViews(viewType xr.ViewConfigurationType, displayTime xr.Time, space xr.Space) (xr.ViewStateFlags, []xr.View, error) {
	return 0, nil, nil
}
func (m *mockSession) SyncActions(sets []xr.ActionSet) error { return nil }
