package session

import "github.com/budgetminibot/appcore/internal/models"

// Phase is the render state the hosting shell should present.
type Phase int

const (
	// PhaseLoading is the initial phase, held for the duration of the
	// bootstrap chain.
	PhaseLoading Phase = iota

	// PhaseNeedsRules asks the user to review and accept the target
	// group's rules.
	PhaseNeedsRules

	// PhaseNeedsProfile asks the user to fill in the registration form.
	PhaseNeedsProfile

	// PhaseSuccess is a transient feedback phase shown right after a
	// successful registration; it auto-advances to Ready.
	PhaseSuccess

	// PhaseReady means the main application can be shown. It is left
	// only through Logout.
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseNeedsRules:
		return "needs_rules"
	case PhaseNeedsProfile:
		return "needs_profile"
	case PhaseSuccess:
		return "success"
	case PhaseReady:
		return "ready"
	default:
		return "unknown"
	}
}

// State is the session snapshot handed to subscribers on every
// committed transition.
type State struct {
	Phase Phase

	// GroupID is the deep-link target group, 0 when none.
	GroupID int64

	// User is the cached profile, nil until a profile fetch succeeded.
	User *models.UserProfile

	// Token is the active session token, "" until authenticated.
	Token string

	// Err is the user-visible error text. It is only ever set on the
	// NeedsProfile phase, when registration itself failed.
	Err string
}
