package entity

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("bad time %q: %v", s, err)
	}
	return ts
}

func TestNewActivityWindow(t *testing.T) {
	agent := uuid.New()
	at := mustTime(t, "2024-01-10T10:00:00Z")

	w := NewActivityWindow(Observation{At: at, AgentID: agent})
	if !w.OnboardingDate.Equal(at) || !w.LastMeeting.Equal(at) {
		t.Errorf("expected onboarding=last=%v, got %v/%v", at, w.OnboardingDate, w.LastMeeting)
	}
	if w.AssignedAgentID != agent {
		t.Errorf("expected agent %s, got %s", agent, w.AssignedAgentID)
	}
}

func TestReconcile_EarlierObservationKeepsOwner(t *testing.T) {
	agentA, agentB := uuid.New(), uuid.New()
	w := NewActivityWindow(Observation{At: mustTime(t, "2024-01-10T10:00:00Z"), AgentID: agentA})

	got := w.Reconcile(Observation{At: mustTime(t, "2024-01-05T09:00:00Z"), AgentID: agentB})

	if !got.OnboardingDate.Equal(mustTime(t, "2024-01-05T09:00:00Z")) {
		t.Errorf("expected onboarding to move earlier, got %v", got.OnboardingDate)
	}
	if !got.LastMeeting.Equal(mustTime(t, "2024-01-10T10:00:00Z")) {
		t.Errorf("expected last meeting unchanged, got %v", got.LastMeeting)
	}
	if got.AssignedAgentID != agentA {
		t.Errorf("expected owner to stay A, got %s", got.AssignedAgentID)
	}
}

func TestReconcile_LaterObservationTakesOwnership(t *testing.T) {
	agentA, agentB := uuid.New(), uuid.New()
	w := NewActivityWindow(Observation{At: mustTime(t, "2024-01-10T10:00:00Z"), AgentID: agentB})

	got := w.Reconcile(Observation{At: mustTime(t, "2024-02-01T10:00:00Z"), AgentID: agentA})

	if got.AssignedAgentID != agentA {
		t.Errorf("expected owner A, got %s", got.AssignedAgentID)
	}
	if !got.LastMeeting.Equal(mustTime(t, "2024-02-01T10:00:00Z")) {
		t.Errorf("expected last meeting to advance, got %v", got.LastMeeting)
	}
	if !got.OnboardingDate.Equal(mustTime(t, "2024-01-10T10:00:00Z")) {
		t.Errorf("expected onboarding unchanged, got %v", got.OnboardingDate)
	}
}

func TestReconcile_TieGoesToLatestWrite(t *testing.T) {
	agentA, agentB := uuid.New(), uuid.New()
	at := mustTime(t, "2024-01-10T10:00:00Z")
	w := NewActivityWindow(Observation{At: at, AgentID: agentA})

	got := w.Reconcile(Observation{At: at, AgentID: agentB})
	if got.AssignedAgentID != agentB {
		t.Errorf("expected same-instant observation to reassign to B, got %s", got.AssignedAgentID)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	agentA, agentB := uuid.New(), uuid.New()
	w := NewActivityWindow(Observation{At: mustTime(t, "2024-01-10T10:00:00Z"), AgentID: agentA})
	obs := Observation{At: mustTime(t, "2024-01-05T09:00:00Z"), AgentID: agentB}

	once := w.Reconcile(obs)
	twice := once.Reconcile(obs)
	if !once.Equal(twice) {
		t.Errorf("expected idempotent reconcile, got %+v then %+v", once, twice)
	}
}

func TestReconcile_ZeroWindowOpensFromObservation(t *testing.T) {
	agent := uuid.New()
	at := mustTime(t, "2024-03-01T08:00:00Z")

	got := ActivityWindow{}.Reconcile(Observation{At: at, AgentID: agent})
	if !got.Equal(NewActivityWindow(Observation{At: at, AgentID: agent})) {
		t.Errorf("expected zero window to behave like a new window, got %+v", got)
	}
}

func TestReconcile_OrderIndependentBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := mustTime(t, "2024-01-01T00:00:00Z")

	for trial := 0; trial < 50; trial++ {
		observations := make([]Observation, 20)
		var minAt, maxAt time.Time
		for i := range observations {
			at := base.Add(time.Duration(rng.Intn(10000)) * time.Minute)
			observations[i] = Observation{At: at, AgentID: uuid.New()}
			if i == 0 || at.Before(minAt) {
				minAt = at
			}
			if i == 0 || at.After(maxAt) {
				maxAt = at
			}
		}

		rng.Shuffle(len(observations), func(i, j int) {
			observations[i], observations[j] = observations[j], observations[i]
		})

		w := NewActivityWindow(observations[0])
		for _, obs := range observations[1:] {
			w = w.Reconcile(obs)
			if w.LastMeeting.Before(w.OnboardingDate) {
				t.Fatalf("onboarding %v after last meeting %v", w.OnboardingDate, w.LastMeeting)
			}
		}
		if !w.OnboardingDate.Equal(minAt) || !w.LastMeeting.Equal(maxAt) {
			t.Errorf("trial %d: expected [%v, %v], got [%v, %v]", trial, minAt, maxAt, w.OnboardingDate, w.LastMeeting)
		}

		// the owner must be the agent of the last observation at maxAt in processing order
		var owner uuid.UUID
		for _, obs := range observations {
			if obs.At.Equal(maxAt) {
				owner = obs.AgentID
			}
		}
		if w.AssignedAgentID != owner {
			t.Errorf("trial %d: expected owner %s, got %s", trial, owner, w.AssignedAgentID)
		}
	}
}
