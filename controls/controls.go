// Package controls captures and queries different forms of tracked input:
// simple controllers, touch controllers, hands.
package controls

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-xr/xr"
)

// ProfileBindings pairs one interaction profile path with the suggested
// bindings for it.
type ProfileBindings struct {
	// Profile is the interaction profile path string, e.g.
	// "/interaction_profiles/khr/simple_controller".
	Profile string

	// Bindings maps each action of the control scheme to an input source path
	// under that profile.
	Bindings []xr.Binding
}

// Controls is one control scheme: a set of actions plus suggested bindings for
// the interaction profiles it supports.
type Controls interface {
	// ActionSet returns the single action set holding all of this scheme's
	// actions, for attaching to the session.
	ActionSet() xr.ActionSet

	// SuggestedBindings returns the suggested bindings per interaction profile.
	// Every action exposed by ActionSet has a binding in each returned profile.
	// Bindings for multiple schemes may be combined before suggesting, since
	// the runtime accepts suggestions at most once per profile.
	//
	// Parameters:
	//   - runtime: the compositor runtime used to intern path strings
	//
	// Returns:
	//   - []ProfileBindings: bindings grouped by interaction profile
	//   - error: error if a path string cannot be interned
	SuggestedBindings(runtime xr.Instance) ([]ProfileBindings, error)
}

// Attach suggests the combined bindings of all schemes and attaches their
// action sets to the session. Bindings for the same interaction profile are
// merged across schemes before suggesting, because the runtime accepts
// suggestions at most once per profile. Call once, before the first SyncActions.
//
// Parameters:
//   - runtime: the compositor runtime
//   - session: the session to attach to
//   - schemes: the control schemes to activate
//
// Returns:
//   - error: error if suggesting or attaching fails
func Attach(runtime xr.Instance, session xr.Session, schemes ...Controls) error {
	merged := map[string][]xr.Binding{}
	var profiles []string
	for _, scheme := range schemes {
		suggestions, err := scheme.SuggestedBindings(runtime)
		if err != nil {
			return fmt.Errorf("collecting suggested bindings: %w", err)
		}
		for _, pb := range suggestions {
			if _, seen := merged[pb.Profile]; !seen {
				profiles = append(profiles, pb.Profile)
			}
			merged[pb.Profile] = append(merged[pb.Profile], pb.Bindings...)
		}
	}

	for _, profile := range profiles {
		path, err := runtime.StringToPath(profile)
		if err != nil {
			return fmt.Errorf("interning profile path %q: %w", profile, err)
		}
		if err := runtime.SuggestInteractionProfileBindings(path, merged[profile]); err != nil {
			return fmt.Errorf("suggesting bindings for %q: %w", profile, err)
		}
	}

	sets := make([]xr.ActionSet, 0, len(schemes))
	for _, scheme := range schemes {
		sets = append(sets, scheme.ActionSet())
	}
	if err := session.AttachActionSets(sets); err != nil {
		return fmt.Errorf("attaching action sets: %w", err)
	}
	return nil
}
