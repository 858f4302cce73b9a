package session

// Phase is the coarse authentication state used for routing decisions
type Phase int

const (
	// PhaseUnknown holds from construction until the first Restore completes
	PhaseUnknown Phase = iota
	PhaseUnauthenticated
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// State is a consistent snapshot of the session. AuthToken is non-empty
// exactly when Phase is PhaseAuthenticated.
type State struct {
	Phase     Phase
	AuthToken string
	Loading   bool
}

// Authenticated reports whether a token is held
func (s State) Authenticated() bool {
	return s.Phase == PhaseAuthenticated && s.AuthToken != ""
}

func authenticated(token string) State {
	return State{Phase: PhaseAuthenticated, AuthToken: token}
}

func unauthenticated() State {
	return State{Phase: PhaseUnauthenticated}
}
