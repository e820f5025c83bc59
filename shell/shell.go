package shell

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/xr"
	vk "github.com/goki/vulkan"
)

// ViewType is the view configuration the shell drives: one view per eye.
const ViewType = xr.ViewConfigurationPrimaryStereo

// notRunningPollInterval throttles the poll loop while the session is not
// producing frames, so an idle app doesn't grind the CPU.
const notRunningPollInterval = 100 * time.Millisecond

// SessionPhase is the shell's view of the session lifecycle.
type SessionPhase int

const (
	// PhaseIdle: session created but not begun; no frames may be submitted.
	PhaseIdle SessionPhase = iota
	// PhaseRunning: frames are being produced.
	PhaseRunning
	// PhaseExiting: the session is winding down; absorbing — no event leaves it.
	PhaseExiting
)

// Shell owns the negotiated compositor/GPU pairing for one head-mounted
// display session: the runtime connection, the shared native device, the
// layered swapchain, the frame waiter/stream pair, and the session lifecycle
// state machine.
//
// A single control-flow thread must drive PollEvents and any frame production;
// the only cross-thread entry point is RequestQuit.
type Shell interface {
	// PollEvents drains all pending compositor events, advances the session
	// state machine, and reports whether the process should quit and whether a
	// frame should be produced this cycle. When the session is not running the
	// call sleeps briefly and suppresses the frame flag.
	//
	// Returns:
	//   - PollStatus: composite QUIT / FRAME flags
	//   - error: error if event handling or a lifecycle call fails
	PollEvents() (PollStatus, error)

	// RequestQuit flags the process for a graceful, compositor-mediated exit.
	// Safe to call from any goroutine (e.g. a signal handler); observed once per
	// poll cycle.
	RequestQuit()

	// Runtime returns the compositor runtime connection.
	Runtime() xr.Instance

	// System returns the resolved HMD system.
	System() xr.SystemID

	// Session returns the compositor session.
	Session() xr.Session

	// FrameWaiter returns the frame pacing waiter.
	FrameWaiter() xr.FrameWaiter

	// FrameStream returns the begin/end frame stream.
	FrameStream() xr.FrameStream

	// GPU returns the GPU backend's side of the shared device.
	GPU() GPUDevice

	// DeviceContext returns the negotiated native device pairing.
	DeviceContext() *DeviceContext

	// Swapchain returns the layered stereo swapchain.
	Swapchain() *Swapchain

	// BlendMode returns the blend mode negotiated at startup; fixed for the
	// life of the session.
	BlendMode() xr.EnvironmentBlendMode

	// SupportedBlendModes returns every blend mode the system reported.
	SupportedBlendModes() []xr.EnvironmentBlendMode

	// Phase returns the current session lifecycle phase.
	Phase() SessionPhase

	// Destroy releases the GPU backend's references and tears down the native
	// device pairing. Call once, after the main loop exits.
	Destroy()
}

type xrShell struct {
	logger *slog.Logger

	runtime xr.Instance
	system  xr.SystemID
	session xr.Session
	waiter  xr.FrameWaiter
	stream  xr.FrameStream

	deviceCtx *DeviceContext
	gpu       GPUDevice
	swapchain *Swapchain

	blendModes       []xr.EnvironmentBlendMode
	currentBlendMode xr.EnvironmentBlendMode

	phase         SessionPhase
	quitRequested atomic.Bool

	// sleep is replaceable so tests can observe the idle throttle without
	// waiting on a real clock.
	sleep func(time.Duration)

	// Construction-time configuration, set by builder options.
	appName              string
	appVersion           uint32
	targetAPIVersion     uint32
	native               VulkanAPI
	binder               GPUBinder
	forceFallbackAdapter bool
}

var _ Shell = &xrShell{}

// NewShell negotiates a full compositor/GPU pairing against the given runtime:
// HMD system resolution, blend-mode negotiation, device bridging, session
// creation, and swapchain setup. Every failure is fatal; there is no partial
// construction.
//
// Parameters:
//   - runtime: the compositor runtime connection
//   - options: functional options for shell configuration
//
// Returns:
//   - Shell: the fully negotiated shell
//   - error: error if any negotiation step fails
func NewShell(runtime xr.Instance, options ...ShellBuilderOption) (Shell, error) {
	s := &xrShell{
		logger:  slog.Default(),
		runtime: runtime,
		phase:   PhaseIdle,
		sleep:   time.Sleep,
	}
	for _, opt := range options {
		opt(s)
	}
	s.appName = common.Coalesce(s.appName, "oxy-xr")
	s.appVersion = common.Coalesce(s.appVersion, 1)
	// Vulkan 1.1 guarantees multiview support.
	s.targetAPIVersion = common.Coalesce(s.targetAPIVersion, uint32(vk.MakeVersion(1, 1, 0)))
	if s.native == nil {
		s.native = NewVulkanAPI()
	}
	if s.binder == nil {
		s.binder = NewWGPUBinder(s.forceFallbackAdapter)
	}

	props, err := runtime.Properties()
	if err != nil {
		return nil, fmt.Errorf("querying runtime properties: %w", err)
	}
	s.logger.Info("loaded compositor runtime",
		"name", props.RuntimeName,
		"version", fmt.Sprintf("%d.%d.%d", props.RuntimeVersion.Major(), props.RuntimeVersion.Minor(), props.RuntimeVersion.Patch()))

	s.system, err = runtime.System(xr.FormFactorHeadMountedDisplay)
	if err != nil {
		return nil, fmt.Errorf("resolving head-mounted display system: %w", err)
	}

	// Blend-mode negotiation: take the first mode the runtime enumerates and
	// keep it for every end-frame call.
	s.blendModes, err = runtime.EnumerateEnvironmentBlendModes(s.system, ViewType)
	if err != nil {
		return nil, fmt.Errorf("enumerating environment blend modes: %w", err)
	}
	if len(s.blendModes) == 0 {
		return nil, ErrNoBlendModes
	}
	s.currentBlendMode = s.blendModes[0]

	// The compositor wants to ensure the app uses the right GPU, features, and
	// extensions, so the instance and device must exist before CreateSession.
	bridge := &deviceBridge{native: s.native, binder: s.binder, logger: s.logger}
	s.deviceCtx, err = bridge.createContext(runtime, s.system, bridgeConfig{
		appName:          s.appName,
		appVersion:       s.appVersion,
		targetAPIVersion: s.targetAPIVersion,
	})
	if err != nil {
		return nil, err
	}

	s.gpu, err = s.binder.BindDevice(s.deviceCtx)
	if err != nil {
		s.deviceCtx.Destroy()
		return nil, err
	}

	s.session, s.waiter, s.stream, err = runtime.CreateSession(s.system, s.deviceCtx.RawHandles())
	if err != nil {
		s.gpu.Release()
		s.deviceCtx.Destroy()
		return nil, fmt.Errorf("creating session: %w", err)
	}

	s.swapchain, err = newSwapchain(runtime, s.system, s.session, s.gpu)
	if err != nil {
		s.gpu.Release()
		s.deviceCtx.Destroy()
		return nil, err
	}

	return s, nil
}

func (s *xrShell) PollEvents() (PollStatus, error) {
	if s.quitRequested.Load() {
		s.logger.Debug("requesting session exit")
		// The runtime may want a smooth exit transition, so we can't simply
		// stop: notify it and wait for EXITING. A session that isn't running
		// has nothing to transition; quit immediately.
		switch err := s.session.RequestExit(); {
		case err == nil:
		case errors.Is(err, xr.ErrSessionNotRunning):
			return PollQuit, nil
		default:
			return 0, fmt.Errorf("requesting exit: %w", err)
		}
	}

	status := PollFrame
	for {
		event, err := s.runtime.PollEvent()
		if err != nil {
			return 0, fmt.Errorf("polling events: %w", err)
		}
		if event == nil {
			break
		}
		status, err = s.handleEvent(event, status)
		if err != nil {
			return 0, err
		}
	}

	if s.phase != PhaseRunning {
		s.sleep(notRunningPollInterval)
		status = status.without(PollFrame)
	}

	return status, nil
}

// handleEvent dispatches one drained event against the session state machine.
// Unrecognized event kinds are ignored for forward compatibility.
func (s *xrShell) handleEvent(event xr.Event, status PollStatus) (PollStatus, error) {
	switch e := event.(type) {
	case xr.SessionStateChangedEvent:
		return s.handleStateChange(e, status)
	case xr.InstanceLossPendingEvent:
		s.logger.Info("runtime instance loss pending")
		s.phase = PhaseExiting
		return status.without(PollFrame).with(PollQuit), nil
	case xr.EventsLostEvent:
		// Not an error; the state machine resynchronizes on the next change.
		s.logger.Error("compositor events lost", "count", e.LostEventCount)
		return status, nil
	default:
		return status, nil
	}
}

func (s *xrShell) handleStateChange(e xr.SessionStateChangedEvent, status PollStatus) (PollStatus, error) {
	s.logger.Info("session state changed", "state", e.State.String())

	// Exiting is absorbing: once the session is winding down, no state change
	// revives frame production.
	if s.phase == PhaseExiting {
		return status.without(PollFrame).with(PollQuit), nil
	}

	switch e.State {
	case xr.SessionStateReady:
		if s.phase == PhaseIdle {
			if err := s.session.Begin(ViewType); err != nil {
				return status, fmt.Errorf("beginning session: %w", err)
			}
			s.phase = PhaseRunning
		}
	case xr.SessionStateStopping:
		// Stopping while idle is a no-op; frames are already suppressed.
		if s.phase == PhaseRunning {
			if err := s.session.End(); err != nil {
				return status, fmt.Errorf("ending session: %w", err)
			}
			s.phase = PhaseIdle
		}
		status = status.without(PollFrame)
	case xr.SessionStateExiting, xr.SessionStateLossPending:
		s.phase = PhaseExiting
		status = status.without(PollFrame).with(PollQuit)
	}
	return status, nil
}

func (s *xrShell) RequestQuit() {
	s.quitRequested.Store(true)
}

func (s *xrShell) Runtime() xr.Instance {
	return s.runtime
}

func (s *xrShell) System() xr.SystemID {
	return s.system
}

func (s *xrShell) Session() xr.Session {
	return s.session
}

func (s *xrShell) FrameWaiter() xr.FrameWaiter {
	return s.waiter
}

func (s *xrShell) FrameStream() xr.FrameStream {
	return s.stream
}

func (s *xrShell) GPU() GPUDevice {
	return s.gpu
}

func (s *xrShell) DeviceContext() *DeviceContext {
	return s.deviceCtx
}

func (s *xrShell) Swapchain() *Swapchain {
	return s.swapchain
}

func (s *xrShell) BlendMode() xr.EnvironmentBlendMode {
	return s.currentBlendMode
}

func (s *xrShell) SupportedBlendModes() []xr.EnvironmentBlendMode {
	modes := make([]xr.EnvironmentBlendMode, len(s.blendModes))
	copy(modes, s.blendModes)
	return modes
}

func (s *xrShell) Phase() SessionPhase {
	return s.phase
}

func (s *xrShell) Destroy() {
	if s.gpu != nil {
		s.gpu.Release()
		s.gpu = nil
	}
	if s.deviceCtx != nil {
		s.deviceCtx.Destroy()
		s.deviceCtx = nil
	}
}
