// Package advisor ranks ban threats and pick candidates from the warmed
// statistics cache, and produces the end-of-draft team assessment.
package advisor

import (
	"context"
	"math"
	"sort"

	"github.com/wapmorty/draftcoach/internal/adapters/statscache"
	"github.com/wapmorty/draftcoach/internal/domain/draft"
	"github.com/wapmorty/draftcoach/internal/domain/model"
	"github.com/wapmorty/draftcoach/internal/domain/scoring"
	"github.com/wapmorty/draftcoach/pkg/logger"
	"github.com/wapmorty/draftcoach/pkg/metrics"
)

// Threat formula weights. The dominant term is how badly the pool's best
// answer fares; pickrate and breadth of coverage are secondary signals.
const (
	weightBestResponse = 0.7
	weightPickrate     = 0.2
	weightCoverage     = 0.1

	pickrateFloor = 1.0

	defaultPickLimit = 3
	defaultBanLimit  = 5

	defaultMinCompetitiveGames = 10000
)

// Advisor produces recommendations for a fixed candidate pool.
type Advisor struct {
	engine              *scoring.Engine
	cache               *statscache.Cache
	pool                []int
	minCompetitiveGames int
	log                 logger.Logger
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithCompetitiveThreshold sets the minimum total sample size a candidate's
// matchup list needs before it may be recommended.
func WithCompetitiveThreshold(games int) Option {
	return func(a *Advisor) {
		if games > 0 {
			a.minCompetitiveGames = games
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(a *Advisor) {
		a.log = log
	}
}

// New creates an Advisor over a warmed cache for the given pool.
func New(engine *scoring.Engine, cache *statscache.Cache, pool []int, opts ...Option) *Advisor {
	a := &Advisor{
		engine:              engine,
		cache:               cache,
		pool:                pool,
		minCompetitiveGames: defaultMinCompetitiveGames,
		log:                 logger.Get().Named("advisor"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RankBans scores every enemy that any pool member has a valid matchup
// against and returns the top threats. Enemies already claimed in the
// draft and enemies with no valid pool response are excluded.
func (a *Advisor) RankBans(state draft.State, limit int) []model.BanThreat {
	if limit <= 0 {
		limit = defaultBanLimit
	}
	poolSize := len(a.pool)
	if poolSize == 0 {
		return nil
	}

	var threats []model.BanThreat
	for _, enemy := range a.cache.Opponents() {
		if state.Unavailable(enemy) {
			continue
		}

		best := math.Inf(-1)
		bestResponse := 0
		countered := 0
		pickrate := 0.0
		found := false
		for _, rr := range a.cache.ReverseRecords(enemy) {
			if !a.engine.Valid(rr.Record) {
				continue
			}
			found = true
			adv := a.engine.Transform(rr.Record.LateDelta)
			if adv > best {
				best = adv
				bestResponse = rr.Subject
			}
			if adv < 0 {
				countered++
			}
			if rr.Record.Pickrate > pickrate {
				pickrate = rr.Record.Pickrate
			}
		}
		if !found {
			continue
		}

		threat := weightBestResponse*(-best) +
			weightPickrate*math.Max(pickrate, pickrateFloor) +
			weightCoverage*(float64(countered)/float64(poolSize)*10)

		threats = append(threats, model.BanThreat{
			CandidateID:    enemy,
			Threat:         threat,
			CounteredCount: countered,
			BestResponse:   bestResponse,
			BestAdvantage:  best,
		})
	}

	sort.Slice(threats, func(i, j int) bool { return threats[i].Threat > threats[j].Threat })
	if len(threats) > limit {
		threats = threats[:limit]
	}
	if len(threats) > 0 {
		metrics.RecordBanAdvice()
	}
	return threats
}

// RecommendPicks scores every still-available pool candidate against the
// current enemy roster, with synergy against the ally roster, and returns
// the strongest picks. Candidates whose matchup sample is below the
// competitive threshold are skipped rather than ranked low: a thin sample
// says nothing either way.
func (a *Advisor) RecommendPicks(ctx context.Context, state draft.State, limit int) []model.RankedCandidate {
	if limit <= 0 {
		limit = defaultPickLimit
	}

	var ranked []model.RankedCandidate
	for _, candidate := range a.pool {
		if state.Unavailable(candidate) {
			continue
		}
		records, err := a.cache.Lookup(ctx, candidate)
		if err != nil {
			a.log.Warn(ctx, "skipping candidate, lookup failed",
				logger.Int("candidate", candidate),
				logger.Error(err),
			)
			continue
		}

		totalGames := 0
		for _, rec := range records {
			totalGames += rec.Games
		}
		if totalGames < a.minCompetitiveGames {
			continue
		}

		self := a.engine.SelfAdvantage(records, state.EnemyPicks)
		opp := a.engine.OpponentAdvantage(ctx, a.cache, candidate, state.EnemyPicks)
		net := a.engine.NetAdvantage(self, opp)
		synergy := a.engine.SynergyBonus(ctx, a.cache, candidate, state.AllyPicks)

		ranked = append(ranked, model.RankedCandidate{
			CandidateID: candidate,
			TotalScore:  net + synergy,
			Matchup:     net,
			Synergy:     synergy,
		})
	}

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].TotalScore > ranked[j].TotalScore })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	if len(ranked) > 0 {
		metrics.RecordPickAdvice()
	}
	return ranked
}

// Assess computes the end-of-draft assessment: each side's per-candidate
// net advantage against the opposing roster and the renormalized team win
// probabilities.
func (a *Advisor) Assess(ctx context.Context, state draft.State) model.TeamAssessment {
	allyAdv := a.rosterAdvantages(ctx, state.AllyPicks, state.EnemyPicks)
	enemyAdv := a.rosterAdvantages(ctx, state.EnemyPicks, state.AllyPicks)

	allyWin := a.engine.TeamWinProbability(values(allyAdv))
	enemyWin := a.engine.TeamWinProbability(values(enemyAdv))
	allyWin, enemyWin = a.engine.RenormalizePair(allyWin, enemyWin)

	return model.TeamAssessment{
		AllyWinProbability:  allyWin,
		EnemyWinProbability: enemyWin,
		AllyAdvantages:      allyAdv,
		EnemyAdvantages:     enemyAdv,
	}
}

// rosterAdvantages scores each roster member against the full opposing
// roster. Members with no usable records score neutral.
func (a *Advisor) rosterAdvantages(ctx context.Context, roster, opponents []int) map[int]float64 {
	advantages := make(map[int]float64, len(roster))
	for _, candidate := range roster {
		records, err := a.cache.Lookup(ctx, candidate)
		if err != nil {
			a.log.Warn(ctx, "assessment lookup failed, scoring neutral",
				logger.Int("candidate", candidate),
				logger.Error(err),
			)
			advantages[candidate] = 0
			continue
		}
		self := a.engine.SelfAdvantage(records, opponents)
		opp := a.engine.OpponentAdvantage(ctx, a.cache, candidate, opponents)
		advantages[candidate] = a.engine.NetAdvantage(self, opp)
	}
	return advantages
}

func values(m map[int]float64) []float64 {
	out := make([]float64, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
