package controls

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-xr/xr"
)

// simpleControllerProfile is the interaction profile every conformant runtime
// supports; richer profiles (touch controllers, hand tracking) layer on later.
const simpleControllerProfile = "/interaction_profiles/khr/simple_controller"

// PointAndClickHand is the sampled state of one tracked hand.
type PointAndClickHand struct {
	// Grip is the palm pose, suitable for holding objects.
	Grip xr.Posef

	// Point is the aim pose, suitable for ray casting.
	Point xr.Posef

	// Click reports whether the hand's primary input is pressed.
	Click bool
}

// PointAndClickInput is one frame of input for the point-and-click scheme.
// A hand is nil when its controller is not currently tracked.
type PointAndClickInput struct {
	LH         *PointAndClickHand
	RH         *PointAndClickHand
	MenuButton bool
}

// PointAndClick is a minimal control scheme: a grip pose, an aim pose, and a
// click per hand, plus one menu button shared between hands.
type PointAndClick interface {
	Controls

	// Locate samples the scheme's full input state at the given time,
	// expressing hand poses in the given base space. Call after SyncActions.
	//
	// Parameters:
	//   - session: the session the action set is attached to
	//   - space: the base space to express poses in
	//   - time: the time to locate at, usually the predicted display time
	//
	// Returns:
	//   - PointAndClickInput: the sampled input state
	//   - error: error if locating or sampling fails
	Locate(session xr.Session, space xr.Space, time xr.Time) (PointAndClickInput, error)
}

type pointAndClickControls struct {
	lhSubpath xr.Path
	rhSubpath xr.Path

	actionSet xr.ActionSet

	grip        xr.PoseAction
	lhGripSpace xr.Space
	rhGripSpace xr.Space

	point        xr.PoseAction
	lhPointSpace xr.Space
	rhPointSpace xr.Space

	click      xr.BoolAction
	menuButton xr.BoolAction
}

var _ PointAndClick = &pointAndClickControls{}

// NewPointAndClick creates the point-and-click scheme's action set, actions,
// and per-hand action spaces. The returned scheme still needs Attach before
// its actions produce input.
//
// The per-hand inputs are registered as a single action with a subaction path
// per hand, so platforms that expose rebinding (e.g. SteamVR) present them as
// one logical control.
//
// Parameters:
//   - runtime: the compositor runtime
//   - session: the session action spaces are created against
//   - actionSetName: the action set's internal name
//   - localizedName: the action set's user-facing name
//
// Returns:
//   - PointAndClick: the scheme, ready to Attach
//   - error: error if any action or space creation fails
func NewPointAndClick(runtime xr.Instance, session xr.Session, actionSetName, localizedName string) (PointAndClick, error) {
	actionSet, err := runtime.CreateActionSet(actionSetName, localizedName, 0)
	if err != nil {
		return nil, fmt.Errorf("creating action set: %w", err)
	}

	lhSubpath, err := runtime.StringToPath("/user/hand/left")
	if err != nil {
		return nil, err
	}
	rhSubpath, err := runtime.StringToPath("/user/hand/right")
	if err != nil {
		return nil, err
	}
	hands := []xr.Path{lhSubpath, rhSubpath}

	grip, err := actionSet.CreatePoseAction("grip", "Palm Orientation", hands)
	if err != nil {
		return nil, fmt.Errorf("creating grip action: %w", err)
	}
	point, err := actionSet.CreatePoseAction("point", "Pointing Direction", hands)
	if err != nil {
		return nil, fmt.Errorf("creating point action: %w", err)
	}
	click, err := actionSet.CreateBoolAction("click", "Click", hands)
	if err != nil {
		return nil, fmt.Errorf("creating click action: %w", err)
	}
	menuButton, err := actionSet.CreateBoolAction("menu_button", "Menu Button", nil)
	if err != nil {
		return nil, fmt.Errorf("creating menu button action: %w", err)
	}

	lhGripSpace, err := grip.CreateSpace(session, lhSubpath, xr.IdentityPose)
	if err != nil {
		return nil, fmt.Errorf("creating left grip space: %w", err)
	}
	rhGripSpace, err := grip.CreateSpace(session, rhSubpath, xr.IdentityPose)
	if err != nil {
		return nil, fmt.Errorf("creating right grip space: %w", err)
	}
	lhPointSpace, err := point.CreateSpace(session, lhSubpath, xr.IdentityPose)
	if err != nil {
		return nil, fmt.Errorf("creating left point space: %w", err)
	}
	rhPointSpace, err := point.CreateSpace(session, rhSubpath, xr.IdentityPose)
	if err != nil {
		return nil, fmt.Errorf("creating right point space: %w", err)
	}

	return &pointAndClickControls{
		lhSubpath: lhSubpath,
		rhSubpath: rhSubpath,

		actionSet: actionSet,

		grip:        grip,
		lhGripSpace: lhGripSpace,
		rhGripSpace: rhGripSpace,

		point:        point,
		lhPointSpace: lhPointSpace,
		rhPointSpace: rhPointSpace,

		click:      click,
		menuButton: menuButton,
	}, nil
}

func (c *pointAndClickControls) ActionSet() xr.ActionSet {
	return c.actionSet
}

func (c *pointAndClickControls) SuggestedBindings(runtime xr.Instance) ([]ProfileBindings, error) {
	type source struct {
		action xr.Action
		path   string
	}
	sources := []source{
		{c.grip, "/user/hand/left/input/grip/pose"},
		{c.grip, "/user/hand/right/input/grip/pose"},
		{c.point, "/user/hand/left/input/aim/pose"},
		{c.point, "/user/hand/right/input/aim/pose"},
		{c.click, "/user/hand/left/input/select/click"},
		{c.click, "/user/hand/right/input/select/click"},
		{c.menuButton, "/user/hand/left/input/menu/click"},
		{c.menuButton, "/user/hand/right/input/menu/click"},
	}

	bindings := make([]xr.Binding, 0, len(sources))
	for _, src := range sources {
		path, err := runtime.StringToPath(src.path)
		if err != nil {
			return nil, fmt.Errorf("interning binding path %q: %w", src.path, err)
		}
		bindings = append(bindings, xr.Binding{Action: src.action, Path: path})
	}

	return []ProfileBindings{
		{Profile: simpleControllerProfile, Bindings: bindings},
	}, nil
}

func (c *pointAndClickControls) Locate(session xr.Session, space xr.Space, time xr.Time) (PointAndClickInput, error) {
	lh, err := c.locateHand(session, space, time, c.lhSubpath, c.lhGripSpace, c.lhPointSpace)
	if err != nil {
		return PointAndClickInput{}, err
	}
	rh, err := c.locateHand(session, space, time, c.rhSubpath, c.rhGripSpace, c.rhPointSpace)
	if err != nil {
		return PointAndClickInput{}, err
	}

	menuClick, err := c.menuButton.State(session, xr.NullPath)
	if err != nil {
		return PointAndClickInput{}, fmt.Errorf("sampling menu button: %w", err)
	}

	return PointAndClickInput{
		LH:         lh,
		RH:         rh,
		MenuButton: menuClick.IsActive && menuClick.CurrentState,
	}, nil
}

// locateHand samples one hand, returning nil when the hand's controller is not
// currently tracked.
func (c *pointAndClickControls) locateHand(session xr.Session, space xr.Space, time xr.Time, subpath xr.Path, gripSpace, pointSpace xr.Space) (*PointAndClickHand, error) {
	gripLoc, err := gripSpace.Locate(space, time)
	if err != nil {
		return nil, fmt.Errorf("locating grip: %w", err)
	}
	pointLoc, err := pointSpace.Locate(space, time)
	if err != nil {
		return nil, fmt.Errorf("locating point: %w", err)
	}

	gripActive, err := c.grip.IsActive(session, subpath)
	if err != nil {
		return nil, err
	}
	pointActive, err := c.point.IsActive(session, subpath)
	if err != nil {
		return nil, err
	}
	if !gripActive || !pointActive {
		return nil, nil
	}

	clickState, err := c.click.State(session, subpath)
	if err != nil {
		return nil, fmt.Errorf("sampling click: %w", err)
	}

	return &PointAndClickHand{
		Grip:  gripLoc.Pose,
		Point: pointLoc.Pose,
		Click: clickState.CurrentState,
	}, nil
}
