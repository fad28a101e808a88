package session

import "fmt"

// Phase is the save-negotiation state of a session.
type Phase int

const (
	PhaseClean Phase = iota
	PhaseDirty
	PhaseSaving
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseClean:
		return "clean"
	case PhaseDirty:
		return "dirty"
	case PhaseSaving:
		return "saving"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText renders the phase name in JSON state payloads.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is the externally visible snapshot of a session.
type State struct {
	Phase       Phase               `json:"phase"`
	Dirty       bool                `json:"dirty"`
	SavedOnce   bool                `json:"savedOnce"`
	Message     string              `json:"message,omitempty"`
	FieldErrors map[string][]string `json:"fieldErrors,omitempty"`

	err error
}

// CanSave reports whether the save control should be enabled.
func (s State) CanSave() bool {
	return s.Dirty && s.Phase != PhaseSaving
}

// Err returns the typed error behind the error phase: ErrSaveNotConfigured or
// a *SaveRejectedError. It is nil in every other phase.
func (s State) Err() error {
	if s.Phase != PhaseError {
		return nil
	}
	return s.err
}

func cloneFieldErrors(src map[string][]string) map[string][]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string][]string, len(src))
	for key, messages := range src {
		out[key] = append([]string(nil), messages...)
	}
	return out
}
