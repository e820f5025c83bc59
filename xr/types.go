// Package xr defines the types and interfaces through which the engine talks to a
// compositor runtime: the external system that owns per-frame timing, head-pose
// prediction, and presentation to a head-mounted display. The shell package drives
// these interfaces; a platform binding supplies the implementation and registers
// itself as a driver (see driver.go).
package xr

// Time is a compositor timestamp in nanoseconds. The origin is unspecified; values
// are only meaningful relative to other Time values from the same runtime, and the
// counter is treated as opaque and potentially wrapping.
type Time int64

// Duration is a span of compositor time in nanoseconds.
type Duration int64

// InfiniteDuration blocks without a deadline when passed as a wait timeout.
const InfiniteDuration Duration = 0x7fffffffffffffff

// Version is a compositor-packed version number (major.minor.patch).
type Version uint64

// NewVersion packs a major, minor, and patch component into a Version.
//
// Parameters:
//   - major: major version component
//   - minor: minor version component
//   - patch: patch version component
//
// Returns:
//   - Version: the packed version value
func NewVersion(major, minor uint16, patch uint32) Version {
	return Version(uint64(major)<<48 | uint64(minor)<<32 | uint64(patch))
}

// Major returns the major component of the version.
func (v Version) Major() uint16 { return uint16(v >> 48) }

// Minor returns the minor component of the version.
func (v Version) Minor() uint16 { return uint16(v >> 32) }

// Patch returns the patch component of the version.
func (v Version) Patch() uint32 { return uint32(v) }

// SystemID identifies a form-factor-specific system (e.g. the attached HMD)
// within a runtime instance.
type SystemID uint64

// Path is an interned runtime path handle (e.g. "/user/hand/left").
type Path uint64

// NullPath is the absent path; actions queried with it aggregate all subaction paths.
const NullPath Path = 0

// FormFactor selects the class of device a system should represent.
type FormFactor int

const (
	FormFactorHeadMountedDisplay FormFactor = iota + 1
	FormFactorHandheldDisplay
)

// ViewConfigurationType selects the view arrangement for a session.
type ViewConfigurationType int

const (
	// ViewConfigurationPrimaryMono renders a single view.
	ViewConfigurationPrimaryMono ViewConfigurationType = iota + 1
	// ViewConfigurationPrimaryStereo renders one view per eye.
	ViewConfigurationPrimaryStereo
)

// EnvironmentBlendMode describes how rendered pixels combine with the user's view
// of the physical environment. Values are runtime-defined; the shell treats them
// as opaque equality/hash keys.
type EnvironmentBlendMode uint32

const (
	EnvironmentBlendModeOpaque EnvironmentBlendMode = iota + 1
	EnvironmentBlendModeAdditive
	EnvironmentBlendModeAlphaBlend
)

// SessionState is the compositor-reported lifecycle state of a session.
type SessionState int

const (
	SessionStateUnknown SessionState = iota
	SessionStateIdle
	SessionStateReady
	SessionStateSynchronized
	SessionStateVisible
	SessionStateFocused
	SessionStateStopping
	SessionStateLossPending
	SessionStateExiting
)

// String returns the state name for logging.
func (s SessionState) String() string {
	switch s {
	case SessionStateIdle:
		return "IDLE"
	case SessionStateReady:
		return "READY"
	case SessionStateSynchronized:
		return "SYNCHRONIZED"
	case SessionStateVisible:
		return "VISIBLE"
	case SessionStateFocused:
		return "FOCUSED"
	case SessionStateStopping:
		return "STOPPING"
	case SessionStateLossPending:
		return "LOSS_PENDING"
	case SessionStateExiting:
		return "EXITING"
	default:
		return "UNKNOWN"
	}
}

// ReferenceSpaceType selects the reference frame content is positioned in.
type ReferenceSpaceType int

const (
	// ReferenceSpaceLocal is relative to the device's starting location.
	ReferenceSpaceLocal ReferenceSpaceType = iota + 1
	// ReferenceSpaceStage is relative to the center of the user's play-space bounds.
	ReferenceSpaceStage
	// ReferenceSpaceView is head-locked.
	ReferenceSpaceView
)

// Vector3f is a 3-component position.
type Vector3f struct {
	X, Y, Z float32
}

// Quaternionf is an orientation quaternion.
type Quaternionf struct {
	X, Y, Z, W float32
}

// IdentityQuaternion is the no-rotation orientation.
var IdentityQuaternion = Quaternionf{W: 1}

// Posef is a rigid transform: an orientation plus a position.
type Posef struct {
	Orientation Quaternionf
	Position    Vector3f
}

// IdentityPose is the origin pose with no rotation.
var IdentityPose = Posef{Orientation: IdentityQuaternion}

// Fov holds the four half-angles (radians) of an asymmetric view frustum.
// Left and down angles are typically negative.
type Fov struct {
	AngleLeft  float32
	AngleRight float32
	AngleUp    float32
	AngleDown  float32
}

// View is a single predicted eye viewpoint: where the eye will be and what it will
// see at a predicted display time.
type View struct {
	Pose Posef
	Fov  Fov
}

// ViewStateFlags qualifies the validity of located views.
type ViewStateFlags uint64

const (
	ViewStateOrientationValid ViewStateFlags = 1 << iota
	ViewStatePositionValid
	ViewStateOrientationTracked
	ViewStatePositionTracked
)

// ViewConfigurationView reports the compositor's recommended render parameters for
// one view of a view configuration.
type ViewConfigurationView struct {
	RecommendedImageRectWidth       uint32
	RecommendedImageRectHeight      uint32
	RecommendedSwapchainSampleCount uint32
}

// Offset2Di is an integer 2D offset.
type Offset2Di struct {
	X, Y int32
}

// Extent2Di is an integer 2D extent.
type Extent2Di struct {
	Width, Height int32
}

// Rect2Di is an integer sub-rectangle of an image.
type Rect2Di struct {
	Offset Offset2Di
	Extent Extent2Di
}

// FrameState is the result of waiting for the compositor to accept a new frame.
type FrameState struct {
	// PredictedDisplayTime estimates when the frame being produced will reach the
	// display. Poses should be sampled for this time.
	PredictedDisplayTime Time
	// PredictedDisplayPeriod estimates the display refresh interval.
	PredictedDisplayPeriod Duration
	// ShouldRender is false when the compositor will not use rendered content this
	// cycle (e.g. the app is occluded); the frame must still be begun and ended.
	ShouldRender bool
}

// SpaceLocationFlags qualifies the validity of a located pose.
type SpaceLocationFlags uint64

const (
	SpaceLocationOrientationValid SpaceLocationFlags = 1 << iota
	SpaceLocationPositionValid
	SpaceLocationOrientationTracked
	SpaceLocationPositionTracked
)

// SpaceLocation is the pose of one space expressed in another at a given time.
type SpaceLocation struct {
	Flags SpaceLocationFlags
	Pose  Posef
}

// ActionStateBool is the sampled state of a boolean input action.
type ActionStateBool struct {
	CurrentState bool
	IsActive     bool
}

// InstanceProperties describes the loaded runtime.
type InstanceProperties struct {
	RuntimeName    string
	RuntimeVersion Version
}

// GraphicsRequirements reports the span of graphics API versions the runtime can
// work with. A device outside [Min, Max-major] cannot be paired with the runtime.
type GraphicsRequirements struct {
	MinAPIVersionSupported Version
	MaxAPIVersionSupported Version
}

// SwapchainCreateInfo describes the image chain a session should allocate.
type SwapchainCreateInfo struct {
	UsageFlags  SwapchainUsageFlags
	Format      int64
	SampleCount uint32
	Width       uint32
	Height      uint32
	FaceCount   uint32
	// ArraySize is the number of array layers per image; 2 for layered stereo.
	ArraySize uint32
	MipCount  uint32
}

// SwapchainUsageFlags declares how swapchain images will be used.
type SwapchainUsageFlags uint64

const (
	SwapchainUsageColorAttachment SwapchainUsageFlags = 1 << iota
	SwapchainUsageDepthStencilAttachment
	SwapchainUsageUnorderedAccess
	SwapchainUsageTransferSrc
	SwapchainUsageTransferDst
	SwapchainUsageSampled
)

// VulkanSessionCreateInfo hands the negotiated native GPU handles to the runtime
// for session creation. All handles are raw (uintptr-sized) so the package stays
// independent of any particular Vulkan binding; the runtime holds non-owning
// references for the session's lifetime.
type VulkanSessionCreateInfo struct {
	Instance         uint64
	PhysicalDevice   uint64
	Device           uint64
	QueueFamilyIndex uint32
	QueueIndex       uint32
}

// Binding suggests one input source path for an action under an interaction profile.
type Binding struct {
	Action Action
	Path   Path
}
