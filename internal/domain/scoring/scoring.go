// Package scoring turns raw matchup records into bounded advantage
// percentages and team-level win probabilities.
//
// All functions degrade to a neutral 0 contribution when data is missing;
// partial statistics never block a recommendation.
package scoring

import (
	"context"
	"math"

	"github.com/wapmorty/draftcoach/internal/domain/model"
)

// Default scoring configuration constants.
const (
	defaultLogOddsK          = 0.12 // ~1.2% win probability per delta unit
	defaultAdvantageBound    = 10.0
	defaultRosterSize        = 5
	defaultMinPickrate       = 0.5
	defaultMinMatchupGames   = 200
	defaultSynergyMultiplier = 0.3

	individualWinrateFloor = 20.0
	individualWinrateCeil  = 80.0
	teamWinrateFloor       = 25.0
	teamWinrateCeil        = 75.0
	neutralWinrate         = 50.0
)

// ReverseLookuper resolves the opponent's own recorded delta when facing a
// candidate. The second return is false when no directional data exists.
type ReverseLookuper interface {
	ReverseDelta(ctx context.Context, opponent, candidate int) (float64, bool)
}

// SynergySource resolves a candidate's synergy record with a specific ally.
type SynergySource interface {
	Synergy(ctx context.Context, candidate, ally int) (model.SynergyRecord, bool)
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithThresholds sets the minimum pickrate and matchup sample size a record
// needs to participate in any aggregate.
func WithThresholds(minPickrate float64, minGames int) Option {
	return func(e *Engine) {
		if minPickrate > 0 {
			e.minPickrate = minPickrate
		}
		if minGames > 0 {
			e.minGames = minGames
		}
	}
}

// WithSynergy toggles the ally-synergy bonus and sets its multiplier.
func WithSynergy(enabled bool, multiplier float64) Option {
	return func(e *Engine) {
		e.synergyEnabled = enabled
		if multiplier > 0 {
			e.synergyMultiplier = multiplier
		}
	}
}

// WithRosterSize sets the number of slots per team.
func WithRosterSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.rosterSize = size
		}
	}
}

// Engine holds the scoring parameters. It is stateless besides
// configuration and safe for concurrent reads.
type Engine struct {
	k                 float64
	bound             float64
	rosterSize        int
	minPickrate       float64
	minGames          int
	synergyEnabled    bool
	synergyMultiplier float64
}

// NewEngine creates an Engine with defaults overridable via options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		k:                 defaultLogOddsK,
		bound:             defaultAdvantageBound,
		rosterSize:        defaultRosterSize,
		minPickrate:       defaultMinPickrate,
		minGames:          defaultMinMatchupGames,
		synergyEnabled:    true,
		synergyMultiplier: defaultSynergyMultiplier,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Transform converts a delta to an advantage percentage via a logistic
// transform, clamped to the symmetric bound. Monotonic increasing with
// Transform(0) = 0.
func (e *Engine) Transform(delta float64) float64 {
	return e.clamp(e.TransformUnclamped(delta))
}

// TransformUnclamped is the raw logistic transform without the bound.
// Pool-wide statistics contexts use it to preserve spread between extreme
// values.
func (e *Engine) TransformUnclamped(delta float64) float64 {
	logOdds := e.k * delta
	winProbability := 1.0 / (1.0 + math.Exp(-logOdds))
	return (winProbability - 0.5) * 100.0
}

// Valid reports whether a record meets the pickrate and sample thresholds.
func (e *Engine) Valid(rec model.MatchupRecord) bool {
	return rec.Pickrate >= e.minPickrate && rec.Games >= e.minGames
}

// FilterValid returns only the records that meet the quality thresholds.
func (e *Engine) FilterValid(records []model.MatchupRecord) []model.MatchupRecord {
	valid := make([]model.MatchupRecord, 0, len(records))
	for _, rec := range records {
		if e.Valid(rec) {
			valid = append(valid, rec)
		}
	}
	return valid
}

// WeightedLateDelta is the pickrate-weighted average late delta over the
// valid records. Zero when no record qualifies.
func (e *Engine) WeightedLateDelta(records []model.MatchupRecord) float64 {
	var sum, weight float64
	for _, rec := range records {
		if !e.Valid(rec) {
			continue
		}
		sum += rec.LateDelta * rec.Pickrate
		weight += rec.Pickrate
	}
	if weight == 0 {
		return 0
	}
	return sum / weight
}

// SelfAdvantage scores a candidate against the known opponents from the
// candidate's own perspective. Known opponents contribute their recorded
// late delta; each remaining blind slot contributes the pickrate-weighted
// average over the records not yet consumed. With no opponents this is a
// pure blind-pick advantage.
func (e *Engine) SelfAdvantage(records []model.MatchupRecord, opponents []int) float64 {
	if len(opponents) == 0 {
		return e.Transform(e.WeightedLateDelta(records))
	}

	remaining := make([]model.MatchupRecord, len(records))
	copy(remaining, records)

	var total float64
	var slots int
	for _, opponent := range opponents {
		for i, rec := range remaining {
			if rec.Opponent != opponent {
				continue
			}
			if e.Valid(rec) {
				total += rec.LateDelta
				slots++
			}
			remaining = append(remaining[:i], remaining[i+1:]...)
			break
		}
	}

	if blind := e.rosterSize - len(opponents); blind > 0 {
		total += float64(blind) * e.WeightedLateDelta(remaining)
		slots += blind
	}

	if slots == 0 {
		return 0
	}
	return e.Transform(total / float64(slots))
}

// OpponentAdvantage scores the known opponents' perspective against the
// candidate using directional reverse lookups. Values are averaged with a
// simple mean: each lookup is a discrete direct measurement, not an
// aggregated distribution, so pickrate weighting does not apply. Opponents
// without reverse data are excluded; with none available the perspective
// degrades to 0.
func (e *Engine) OpponentAdvantage(ctx context.Context, lookup ReverseLookuper, candidate int, opponents []int) float64 {
	var sum float64
	var n int
	for _, opponent := range opponents {
		if delta, ok := lookup.ReverseDelta(ctx, opponent, candidate); ok {
			sum += delta
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return e.Transform(sum / float64(n))
}

// NetAdvantage combines the two perspectives. Both inputs are already
// transformed advantages; the difference is re-clamped because the
// directional datasets are sampled independently and need not mirror.
func (e *Engine) NetAdvantage(selfAdvantage, opponentAdvantage float64) float64 {
	return e.clamp(selfAdvantage - opponentAdvantage)
}

// SynergyBonus is the pickrate-weighted mean synergy late delta with the
// already-picked allies, scaled by the configured multiplier. Zero when the
// feature is disabled, no ally is picked, or no valid record exists.
func (e *Engine) SynergyBonus(ctx context.Context, source SynergySource, candidate int, allies []int) float64 {
	if !e.synergyEnabled || len(allies) == 0 || source == nil {
		return 0
	}

	var sum, weight float64
	for _, ally := range allies {
		rec, ok := source.Synergy(ctx, candidate, ally)
		if !ok {
			continue
		}
		if rec.Pickrate < e.minPickrate || rec.Games < e.minGames {
			continue
		}
		sum += rec.LateDelta * rec.Pickrate
		weight += rec.Pickrate
	}
	if weight == 0 {
		return 0
	}
	return (sum / weight) * e.synergyMultiplier
}

// TeamWinProbability aggregates individual advantages into one team win
// probability. Each advantage implies a winrate of 50 + advantage, clamped
// to a realistic band; the geometric mean of the implied probabilities is
// converted back to a percentage and clamped again at the team level.
func (e *Engine) TeamWinProbability(advantages []float64) float64 {
	if len(advantages) == 0 {
		return neutralWinrate
	}

	product := 1.0
	for _, adv := range advantages {
		winrate := neutralWinrate + adv
		winrate = math.Max(individualWinrateFloor, math.Min(individualWinrateCeil, winrate))
		product *= winrate / 100.0
	}

	team := math.Pow(product, 1.0/float64(len(advantages))) * 100.0
	return math.Max(teamWinrateFloor, math.Min(teamWinrateCeil, team))
}

// RenormalizePair scales two opposing team probabilities so they sum to
// exactly 100.
func (e *Engine) RenormalizePair(ally, enemy float64) (float64, float64) {
	total := ally + enemy
	if total == 0 {
		return neutralWinrate, neutralWinrate
	}
	return ally / total * 100.0, enemy / total * 100.0
}

func (e *Engine) clamp(v float64) float64 {
	return math.Max(-e.bound, math.Min(e.bound, v))
}
