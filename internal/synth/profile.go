package synth

import (
	"fmt"
	"slices"
)

// Profile parameterizes a generator variant.
type Profile struct {
	Name string

	// DefaultInhibits and DefaultTokens are the toggle values used when the
	// caller does not set them.
	DefaultInhibits bool
	DefaultTokens   bool

	// EmulatorNeedsInput drops the decision emulator when neither inhibits
	// nor tokens feed it.
	EmulatorNeedsInput bool

	// StartCarriesInterval adds trigger_interval_ticks to the start payload.
	StartCarriesInterval bool

	// LabelStates stamps commands with entry and exit states.
	LabelStates bool
}

var (
	ProfileFakeApp = Profile{
		Name:               "fake-app",
		DefaultTokens:      true,
		EmulatorNeedsInput: true,
	}
	ProfileStandalone = Profile{
		Name: "standalone",
	}
	ProfileLifecycle = Profile{
		Name:                 "lifecycle",
		DefaultTokens:        true,
		StartCarriesInterval: true,
		LabelStates:          true,
	}
)

var profiles = map[string]Profile{
	ProfileFakeApp.Name:    ProfileFakeApp,
	ProfileStandalone.Name: ProfileStandalone,
	ProfileLifecycle.Name:  ProfileLifecycle,
}

// DefaultProfile is used when no profile is named.
const DefaultProfile = "fake-app"

// LookupProfile returns the profile with the given name. An empty name
// selects DefaultProfile.
func LookupProfile(name string) (Profile, error) {
	if name == "" {
		name = DefaultProfile
	}
	p, ok := profiles[name]
	if !ok {
		return Profile{}, invalidParameter("profile", "unknown profile %q (want one of %v)", name, ProfileNames())
	}
	return p, nil
}

// ProfileNames returns the known profile names, sorted.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Toggles selects the optional module/queue pairs.
type Toggles struct {
	Inhibits bool
	Tokens   bool
}

// ResolveToggles applies the profile defaults to unset toggles.
func (p Profile) ResolveToggles(inhibits, tokens *bool) Toggles {
	t := Toggles{Inhibits: p.DefaultInhibits, Tokens: p.DefaultTokens}
	if inhibits != nil {
		t.Inhibits = *inhibits
	}
	if tokens != nil {
		t.Tokens = *tokens
	}
	return t
}

// String implements fmt.Stringer.
func (t Toggles) String() string {
	return fmt.Sprintf("inhibits=%t tokens=%t", t.Inhibits, t.Tokens)
}
