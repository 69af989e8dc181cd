package ui

import "fmt"

// State is the lookup state machine: Idle → Fetching → {Displaying | ErrorShown} → Idle.
type State int

const (
	Idle State = iota
	Fetching
	Displaying
	ErrorShown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Displaying:
		return "displaying"
	case ErrorShown:
		return "error"
	}
	return "unknown"
}

// MarshalText renders the state name in JSON snapshots.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name produced by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{Idle, Fetching, Displaying, ErrorShown} {
		if string(text) == candidate.String() {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown ui state %q", text)
}
