// Package stats defines the read contract for champion statistics and its
// SQLite-backed implementation.
//
// The source is external to the core: scoring and ranking only consume it
// through the Source interface, usually behind the lookup cache.
package stats

import (
	"context"

	"github.com/wapmorty/draftcoach/internal/domain/model"
)

// Source provides matchup and synergy statistics for candidates.
type Source interface {
	// Matchups returns every recorded matchup for a candidate.
	Matchups(ctx context.Context, candidate int) ([]model.MatchupRecord, error)

	// DirectionalDelta returns the candidate's own recorded late delta when
	// facing the opponent. The bool is false when no record exists.
	DirectionalDelta(ctx context.Context, candidate, opponent int) (float64, bool, error)

	// Synergy returns the candidate's synergy record with an ally. The bool
	// is false when no record exists.
	Synergy(ctx context.Context, candidate, ally int) (model.SynergyRecord, bool, error)

	// CandidateNames maps candidate ids to display names.
	CandidateNames(ctx context.Context) (map[int]string, error)
}
