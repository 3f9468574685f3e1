package entity

import (
	"time"

	"github.com/google/uuid"
)

// ActivityWindow is the span of known interactions with a doctor and the agent
// who owns the most recent one.
type ActivityWindow struct {
	OnboardingDate  time.Time
	LastMeeting     time.Time
	AssignedAgentID uuid.UUID
}

// Observation is one timestamped interaction attributed to an agent.
type Observation struct {
	At      time.Time
	AgentID uuid.UUID
}

// NewActivityWindow opens a window from a first observation.
func NewActivityWindow(obs Observation) ActivityWindow {
	return ActivityWindow{
		OnboardingDate:  obs.At,
		LastMeeting:     obs.At,
		AssignedAgentID: obs.AgentID,
	}
}

// Reconcile folds an observation into the window. The window only widens.
// Ownership moves to the observation's agent only when the observation is at
// or after the current last meeting; on equal timestamps the later write wins,
// so an out-of-order historical row never steals attribution.
func (w ActivityWindow) Reconcile(obs Observation) ActivityWindow {
	if w.IsZero() {
		return NewActivityWindow(obs)
	}

	out := w
	if out.OnboardingDate.IsZero() || obs.At.Before(out.OnboardingDate) {
		out.OnboardingDate = obs.At
	}
	if out.LastMeeting.IsZero() || !obs.At.Before(out.LastMeeting) {
		out.LastMeeting = obs.At
		out.AssignedAgentID = obs.AgentID
	}
	if out.LastMeeting.Before(out.OnboardingDate) {
		out.OnboardingDate = out.LastMeeting
	}
	return out
}

// IsZero reports whether the window has never seen an observation.
func (w ActivityWindow) IsZero() bool {
	return w.OnboardingDate.IsZero() && w.LastMeeting.IsZero()
}

// Equal compares windows by instant and owner.
func (w ActivityWindow) Equal(other ActivityWindow) bool {
	return w.OnboardingDate.Equal(other.OnboardingDate) &&
		w.LastMeeting.Equal(other.LastMeeting) &&
		w.AssignedAgentID == other.AssignedAgentID
}
