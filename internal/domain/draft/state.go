// Package draft reconciles external session snapshots into a canonical
// draft state and detects the transitions that warrant re-scoring.
package draft

import (
	"slices"

	"github.com/wapmorty/draftcoach/internal/domain/model"
)

// Phase is the canonical sub-phase of a draft. The external session
// conflates banning and picking under one label, so the phase here is
// derived from completed actions, never from the reported label.
type Phase string

// Canonical draft phases.
const (
	PhaseIdle     Phase = "idle"
	PhaseBan      Phase = "ban"
	PhasePick     Phase = "pick"
	PhaseComplete Phase = "complete"
)

// Default format constants for a standard two-team draft.
const (
	defaultMaxBans    = 10
	defaultRosterSize = 5
)

// State is the canonical draft state rebuilt on every reconciliation.
// A candidate id appears in exactly one of the four sets.
type State struct {
	Phase        Phase `json:"phase"`
	CurrentActor int   `json:"current_actor"` // -1 when nobody is due to act
	LocalActor   int   `json:"local_actor"`
	AllyPicks    []int `json:"ally_picks"`
	EnemyPicks   []int `json:"enemy_picks"`
	AllyBans     []int `json:"ally_bans"`
	EnemyBans    []int `json:"enemy_bans"`
}

// NewState returns an empty idle state.
func NewState() State {
	return State{Phase: PhaseIdle, CurrentActor: -1, LocalActor: -1}
}

// TotalPicks is the number of completed picks on both sides.
func (s State) TotalPicks() int {
	return len(s.AllyPicks) + len(s.EnemyPicks)
}

// TotalBans is the number of completed bans on both sides.
func (s State) TotalBans() int {
	return len(s.AllyBans) + len(s.EnemyBans)
}

// Unavailable reports whether a candidate is already claimed by any pick
// or ban on either side.
func (s State) Unavailable(candidate int) bool {
	return slices.Contains(s.AllyPicks, candidate) ||
		slices.Contains(s.EnemyPicks, candidate) ||
		slices.Contains(s.AllyBans, candidate) ||
		slices.Contains(s.EnemyBans, candidate)
}

// Changed reports whether anything that gates re-scoring differs between
// two states: any of the four sets, or the phase.
func Changed(prev, next State) bool {
	return prev.Phase != next.Phase ||
		!slices.Equal(prev.AllyPicks, next.AllyPicks) ||
		!slices.Equal(prev.EnemyPicks, next.EnemyPicks) ||
		!slices.Equal(prev.AllyBans, next.AllyBans) ||
		!slices.Equal(prev.EnemyBans, next.EnemyBans)
}

// Option applies a configuration option to the Machine.
type Option func(*Machine)

// WithFormat sets the expected ban budget and roster size of the draft
// format.
func WithFormat(maxBans, rosterSize int) Option {
	return func(m *Machine) {
		if maxBans > 0 {
			m.maxBans = maxBans
		}
		if rosterSize > 0 {
			m.rosterSize = rosterSize
		}
	}
}

// Machine is the reconciliation state machine. It is the single owner of
// the canonical state; the poll loop is its only mutator.
type Machine struct {
	state      State
	analyzed   bool
	maxBans    int
	rosterSize int
}

// NewMachine creates a Machine in the idle state.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		state:      NewState(),
		maxBans:    defaultMaxBans,
		rosterSize: defaultRosterSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current canonical state.
func (m *Machine) State() State {
	return m.state
}

// Complete reports whether every roster slot on both sides is filled.
func (m *Machine) Complete() bool {
	return m.state.TotalPicks() >= m.rosterSize*2
}

// Reconcile rebuilds the canonical state from a snapshot. It returns the
// new state, whether it differs from the previous one, and whether this
// tick is the first on which the draft became complete. A malformed
// snapshot returns ErrMalformedSnapshot and leaves the previous state
// untouched.
func (m *Machine) Reconcile(snap *model.Snapshot) (State, bool, bool, error) {
	if snap == nil || len(snap.AllyRoster) == 0 || len(snap.EnemyRoster) == 0 {
		return m.state, false, false, ErrMalformedSnapshot
	}

	next := NewState()
	next.LocalActor = snap.LocalActorID

	// Picks come straight from the rosters; a non-zero candidate id means
	// the seat has locked a selection.
	allyCells := make(map[int]struct{}, len(snap.AllyRoster))
	for _, slot := range snap.AllyRoster {
		allyCells[slot.CellID] = struct{}{}
		if slot.CandidateID != 0 {
			next.AllyPicks = append(next.AllyPicks, slot.CandidateID)
		}
	}
	for _, slot := range snap.EnemyRoster {
		if slot.CandidateID != 0 {
			next.EnemyPicks = append(next.EnemyPicks, slot.CandidateID)
		}
	}

	// Bans come only from completed ban actions. The snapshot's aggregate
	// ban lists are unreliable in practice and are never read.
	next.CurrentActor = -1
	for _, action := range snap.Actions {
		if !action.Completed {
			if next.CurrentActor == -1 {
				next.CurrentActor = action.ActorID
			}
			continue
		}
		if action.Kind != model.ActionBan {
			continue
		}
		if _, ally := allyCells[action.ActorID]; ally {
			if !slices.Contains(next.AllyBans, action.CandidateID) {
				next.AllyBans = append(next.AllyBans, action.CandidateID)
			}
		} else if !slices.Contains(next.EnemyBans, action.CandidateID) {
			next.EnemyBans = append(next.EnemyBans, action.CandidateID)
		}
	}

	next.Phase = m.derivePhase(next)

	changed := Changed(m.state, next)
	m.state = next

	completedNow := false
	if next.Phase == PhaseComplete && !m.analyzed {
		m.analyzed = true
		completedNow = true
	}

	return next, changed, completedNow, nil
}

// derivePhase applies the ban/pick heuristic. The external label is not
// trusted: while no pick exists and the ban budget is not exhausted the
// draft is banning; the first pick flips it to picking regardless of the
// label.
func (m *Machine) derivePhase(s State) Phase {
	if s.TotalPicks() >= m.rosterSize*2 {
		return PhaseComplete
	}
	if s.TotalPicks() == 0 && s.TotalBans() < m.maxBans {
		return PhaseBan
	}
	return PhasePick
}

// Reset clears the state and the final-analysis guard. Called when the
// external flow returns to an idle phase after a session produced a draft.
func (m *Machine) Reset() {
	m.state = NewState()
	m.analyzed = false
}
