package advisor

import "slices"

// Gate suppresses redundant advisory dispatch. Advice for the same top
// candidate is only re-issued when it is the local actor's turn or the
// enemy roster changed since the previous tick.
type Gate struct {
	lastTop   int
	lastEnemy []int
	primed    bool
}

// NewGate returns a cold gate. A fresh gate treats any top candidate as
// changed, but the turn/roster conditions still apply to the first
// dispatch like any other.
func NewGate() *Gate {
	return &Gate{}
}

// ShouldDispatch decides whether the current top candidate warrants a new
// advisory dispatch, and records the observation either way so the next
// tick compares against this one.
func (g *Gate) ShouldDispatch(top int, localTurn bool, enemyRoster []int) bool {
	enemyChanged := !slices.Equal(g.lastEnemy, enemyRoster)
	topChanged := !g.primed || top != g.lastTop

	g.lastEnemy = slices.Clone(enemyRoster)

	if !topChanged {
		return false
	}
	if !localTurn && !enemyChanged {
		return false
	}
	g.lastTop = top
	g.primed = true
	return true
}

// Reset clears the gate for a new session.
func (g *Gate) Reset() {
	g.lastTop = 0
	g.lastEnemy = nil
	g.primed = false
}
