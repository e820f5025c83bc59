package xr

import "errors"

var (
	// ErrSessionNotRunning is returned by Session.RequestExit when the session has
	// no running frame loop to transition out of. Callers should treat it as an
	// immediate quit signal, not a failure.
	ErrSessionNotRunning = errors.New("xr: session not running")

	// ErrTimeoutExpired is returned by Swapchain.WaitImage when the compositor did
	// not release the acquired image within the caller's timeout.
	ErrTimeoutExpired = errors.New("xr: timeout expired")

	// ErrExtensionMissing is returned by runtime constructors when a required
	// runtime extension (e.g. Vulkan enablement) is not available.
	ErrExtensionMissing = errors.New("xr: required runtime extension missing")
)

// Instance is a connection to a compositor runtime.
//
// The graphics negotiation methods (GraphicsRequirements, VulkanInstanceExtensions,
// VulkanDeviceExtensions, VulkanGraphicsDevice) exist because the runtime — not the
// application — dictates which physical GPU is used and which native extensions
// must be enabled on it. The shell's device bridge calls them in a strict order
// before CreateSession; see shell.DeviceBridge.
type Instance interface {
	// Properties returns the loaded runtime's name and version.
	Properties() (InstanceProperties, error)

	// System resolves the system matching the requested form factor.
	//
	// Parameters:
	//   - formFactor: the device class to target (e.g. head-mounted display)
	//
	// Returns:
	//   - SystemID: handle for the resolved system
	//   - error: error if no such system is connected
	System(formFactor FormFactor) (SystemID, error)

	// EnumerateEnvironmentBlendModes lists the blend modes the system supports for
	// a view configuration, in the runtime's order of preference.
	EnumerateEnvironmentBlendModes(system SystemID, viewType ViewConfigurationType) ([]EnvironmentBlendMode, error)

	// EnumerateViewConfigurationViews reports the recommended render parameters
	// for each view of the configuration; stereo yields exactly two entries.
	EnumerateViewConfigurationViews(system SystemID, viewType ViewConfigurationType) ([]ViewConfigurationView, error)

	// GraphicsRequirements reports the graphics API version span the runtime
	// requires for the system.
	GraphicsRequirements(system SystemID) (GraphicsRequirements, error)

	// VulkanInstanceExtensions returns the Vulkan instance extensions the runtime
	// requires the application to enable.
	VulkanInstanceExtensions(system SystemID) ([]string, error)

	// VulkanDeviceExtensions returns the Vulkan device extensions the runtime
	// requires the application to enable.
	VulkanDeviceExtensions(system SystemID) ([]string, error)

	// VulkanGraphicsDevice designates the physical device the runtime mandates for
	// the system, given the application's freshly created Vulkan instance handle.
	//
	// Parameters:
	//   - system: the target system
	//   - vkInstance: raw VkInstance handle the runtime should inspect
	//
	// Returns:
	//   - uint64: raw VkPhysicalDevice handle the application must use
	//   - error: error if the runtime cannot designate a device
	VulkanGraphicsDevice(system SystemID, vkInstance uint64) (uint64, error)

	// CreateSession creates a session bound to the negotiated native GPU handles.
	// The session is created in the idle state; frames may only be produced after
	// a READY state change and Session.Begin.
	CreateSession(system SystemID, info *VulkanSessionCreateInfo) (Session, FrameWaiter, FrameStream, error)

	// PollEvent pops the next pending runtime event, or returns (nil, nil) when
	// the queue is drained.
	PollEvent() (Event, error)

	// StringToPath interns a path string.
	StringToPath(s string) (Path, error)

	// CreateActionSet creates a named group of input actions.
	CreateActionSet(name, localizedName string, priority uint32) (ActionSet, error)

	// SuggestInteractionProfileBindings suggests default action bindings for one
	// interaction profile. Callable at most once per profile.
	SuggestInteractionProfileBindings(profile Path, bindings []Binding) error
}

// Session is an application's connection to a system's compositor, created once
// after device negotiation and owned for the life of the process.
type Session interface {
	// Begin starts the session's frame loop. Valid only after the runtime reports
	// SessionStateReady.
	Begin(viewType ViewConfigurationType) error

	// End stops the session's frame loop. Valid only after the runtime reports
	// SessionStateStopping.
	End() error

	// RequestExit asks the runtime for a graceful, compositor-mediated exit. The
	// runtime may run an exit transition before reporting SessionStateExiting.
	// Returns ErrSessionNotRunning when there is no running session to wind down.
	RequestExit() error

	// CreateSwapchain allocates a compositor-owned image chain for rendering.
	CreateSwapchain(info *SwapchainCreateInfo) (Swapchain, error)

	// CreateReferenceSpace creates a space of the given type, offset by pose.
	CreateReferenceSpace(spaceType ReferenceSpaceType, pose Posef) (Space, error)

	// LocateViews returns the predicted eye viewpoints for a display time,
	// expressed in the given base space. Stereo yields exactly two views.
	LocateViews(viewType ViewConfigurationType, displayTime Time, space Space) (ViewStateFlags, []View, error)

	// AttachActionSets permanently binds action sets to the session. Callable once.
	AttachActionSets(sets []ActionSet) error

	// SyncActions updates the state of all actions in the attached sets.
	SyncActions(sets []ActionSet) error
}

// FrameWaiter throttles the frame loop to compositor pacing.
type FrameWaiter interface {
	// Wait blocks until the compositor is ready to accept another frame, and
	// returns its timing prediction for that frame.
	Wait() (FrameState, error)
}

// FrameStream brackets per-frame rendering work. Every Begin must be matched by
// exactly one End before the next Begin; leaving a frame un-ended corrupts the
// timing of all subsequent frames.
type FrameStream interface {
	// Begin marks the start of frame rendering work.
	Begin() error

	// End submits the frame's composition layers for display at displayTime using
	// the given blend mode. An empty layer slice is valid and displays nothing.
	End(displayTime Time, blendMode EnvironmentBlendMode, layers []CompositionLayer) error
}

// Swapchain is a compositor-allocated rotation of GPU-visible images.
// AcquireImage, WaitImage, and ReleaseImage must be called in that order exactly
// once per rendered frame; the interface is not safe for concurrent use and the
// caller must serialize access (see shell.Swapchain).
type Swapchain interface {
	// EnumerateImages returns the raw native image handle for each buffer in the
	// chain. The handles are owned by the compositor.
	EnumerateImages() ([]uint64, error)

	// AcquireImage checks out the next image for writing and returns its index.
	AcquireImage() (uint32, error)

	// WaitImage blocks until the compositor has finished reading the acquired
	// image, up to timeout. Returns ErrTimeoutExpired on expiry.
	WaitImage(timeout Duration) error

	// ReleaseImage returns the acquired image to the compositor for presentation.
	ReleaseImage() error
}

// Space is a frame of reference content and devices can be located in.
type Space interface {
	// Locate expresses this space's pose in base at the given time.
	Locate(base Space, time Time) (SpaceLocation, error)
}

// Action is an abstract input or output endpoint (a pose source, a button, ...).
type Action interface {
	isAction()
}

// ActionSet groups actions that are enabled and synced together.
type ActionSet interface {
	// CreatePoseAction creates a pose-valued action, optionally filtered by
	// subaction paths (e.g. left and right hand).
	CreatePoseAction(name, localizedName string, subactionPaths []Path) (PoseAction, error)

	// CreateBoolAction creates a boolean-valued action, optionally filtered by
	// subaction paths.
	CreateBoolAction(name, localizedName string, subactionPaths []Path) (BoolAction, error)
}

// PoseAction is a pose-valued input action.
type PoseAction interface {
	Action

	// CreateSpace creates a space tracking this action's pose for one subaction
	// path, offset by pose.
	CreateSpace(session Session, subactionPath Path, pose Posef) (Space, error)

	// IsActive reports whether the action is currently bound and receiving input.
	IsActive(session Session, subactionPath Path) (bool, error)
}

// BoolAction is a boolean-valued input action.
type BoolAction interface {
	Action

	// State samples the action's current boolean state.
	State(session Session, subactionPath Path) (ActionStateBool, error)
}
