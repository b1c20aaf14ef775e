package advisor

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/wapmorty/draftcoach/internal/adapters/statscache"
	"github.com/wapmorty/draftcoach/internal/domain/draft"
	"github.com/wapmorty/draftcoach/internal/domain/model"
	"github.com/wapmorty/draftcoach/internal/domain/scoring"
	"github.com/wapmorty/draftcoach/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type stubSource struct {
	matchups    map[int][]model.MatchupRecord
	directional map[[2]int]float64
	synergies   map[[2]int]model.SynergyRecord
}

func (s *stubSource) Matchups(_ context.Context, candidate int) ([]model.MatchupRecord, error) {
	return s.matchups[candidate], nil
}

func (s *stubSource) DirectionalDelta(_ context.Context, candidate, opponent int) (float64, bool, error) {
	delta, ok := s.directional[[2]int{candidate, opponent}]
	return delta, ok, nil
}

func (s *stubSource) Synergy(_ context.Context, candidate, ally int) (model.SynergyRecord, bool, error) {
	rec, ok := s.synergies[[2]int{candidate, ally}]
	return rec, ok, nil
}

func (s *stubSource) CandidateNames(_ context.Context) (map[int]string, error) {
	return nil, nil
}

// Pool = {10, 11}. Enemy 20 beats both pool members, enemy 30 loses to 10.
// Enemy 40 only appears in an undersampled record.
func newBanSource() *stubSource {
	return &stubSource{
		matchups: map[int][]model.MatchupRecord{
			10: {
				{Opponent: 20, LateDelta: -3, Pickrate: 5, Games: 900},
				{Opponent: 30, LateDelta: 2, Pickrate: 2, Games: 800},
				{Opponent: 40, LateDelta: -5, Pickrate: 8, Games: 50},
			},
			11: {
				{Opponent: 20, LateDelta: -1, Pickrate: 5, Games: 900},
			},
		},
	}
}

func warmedAdvisor(t *testing.T, src *stubSource, pool []int, opts ...Option) *Advisor {
	t.Helper()
	engine := scoring.NewEngine(scoring.WithThresholds(0.5, 200))
	cache := statscache.New(src)
	if err := cache.Warm(context.Background(), pool); err != nil {
		t.Fatalf("warm: %v", err)
	}
	return New(engine, cache, pool, opts...)
}

func TestRankBans(t *testing.T) {
	Convey("Given a pool with one dominant enemy threat", t, func() {
		adv := warmedAdvisor(t, newBanSource(), []int{10, 11})
		state := draft.NewState()

		Convey("When ranking bans", func() {
			threats := adv.RankBans(state, 5)

			Convey("Then the enemy countering the whole pool ranks first", func() {
				So(threats, ShouldNotBeEmpty)
				So(threats[0].CandidateID, ShouldEqual, 20)
				So(threats[0].CounteredCount, ShouldEqual, 2)
				So(threats[0].BestResponse, ShouldEqual, 11)
				So(threats[0].BestAdvantage, ShouldBeLessThan, 0)
			})

			Convey("Then a favorable enemy still appears but ranks below", func() {
				So(threats, ShouldHaveLength, 2)
				So(threats[1].CandidateID, ShouldEqual, 30)
				So(threats[1].Threat, ShouldBeLessThan, threats[0].Threat)
				So(threats[1].CounteredCount, ShouldEqual, 0)
			})

			Convey("Then enemies with no valid pool response are excluded", func() {
				for _, th := range threats {
					So(th.CandidateID, ShouldNotEqual, 40)
				}
			})
		})

		Convey("When an enemy is already claimed in the draft", func() {
			state.EnemyBans = []int{20}
			threats := adv.RankBans(state, 5)

			Convey("Then it no longer appears as a threat", func() {
				for _, th := range threats {
					So(th.CandidateID, ShouldNotEqual, 20)
				}
			})
		})

		Convey("When the limit is smaller than the threat count", func() {
			threats := adv.RankBans(state, 1)
			So(threats, ShouldHaveLength, 1)
			So(threats[0].CandidateID, ShouldEqual, 20)
		})
	})
}

func TestRecommendPicks(t *testing.T) {
	Convey("Given a pool where one candidate counters the enemy pick", t, func() {
		src := &stubSource{
			matchups: map[int][]model.MatchupRecord{
				10: {{Opponent: 20, LateDelta: 3, Pickrate: 5, Games: 12000}},
				11: {{Opponent: 20, LateDelta: -2, Pickrate: 5, Games: 12000}},
				12: {{Opponent: 20, LateDelta: 9, Pickrate: 5, Games: 500}},
			},
			directional: map[[2]int]float64{},
			synergies:   map[[2]int]model.SynergyRecord{},
		}
		adv := warmedAdvisor(t, src, []int{10, 11, 12})
		ctx := context.Background()

		state := draft.NewState()
		state.EnemyPicks = []int{20}

		Convey("When recommendations are computed", func() {
			picks := adv.RecommendPicks(ctx, state, 3)

			Convey("Then the counter ranks above the countered candidate", func() {
				So(len(picks), ShouldEqual, 2)
				So(picks[0].CandidateID, ShouldEqual, 10)
				So(picks[0].TotalScore, ShouldBeGreaterThan, picks[1].TotalScore)
				So(picks[1].CandidateID, ShouldEqual, 11)
			})

			Convey("Then candidates below the competitive sample threshold are skipped", func() {
				for _, p := range picks {
					So(p.CandidateID, ShouldNotEqual, 12)
				}
			})
		})

		Convey("When a pool candidate is already picked", func() {
			state.AllyPicks = []int{10}
			picks := adv.RecommendPicks(ctx, state, 3)

			Convey("Then it is not recommended again", func() {
				for _, p := range picks {
					So(p.CandidateID, ShouldNotEqual, 10)
				}
			})
		})

		Convey("When a pool candidate is banned", func() {
			state.AllyBans = []int{11}
			picks := adv.RecommendPicks(ctx, state, 3)

			So(len(picks), ShouldEqual, 1)
			So(picks[0].CandidateID, ShouldEqual, 10)
		})
	})

	Convey("Given reverse data that punishes a pool candidate", t, func() {
		src := &stubSource{
			matchups: map[int][]model.MatchupRecord{
				10: {{Opponent: 20, LateDelta: 1, Pickrate: 5, Games: 12000}},
				11: {{Opponent: 20, LateDelta: 1, Pickrate: 5, Games: 12000}},
			},
			// Enemy 20's own data says it beats candidate 10 hard.
			directional: map[[2]int]float64{
				{20, 10}: 6,
			},
		}
		adv := warmedAdvisor(t, src, []int{10, 11})
		state := draft.NewState()
		state.EnemyPicks = []int{20}

		Convey("When recommendations are computed", func() {
			picks := adv.RecommendPicks(context.Background(), state, 3)

			Convey("Then the bidirectional net favors the candidate without reverse data", func() {
				So(len(picks), ShouldEqual, 2)
				So(picks[0].CandidateID, ShouldEqual, 11)
				So(picks[1].CandidateID, ShouldEqual, 10)
				So(picks[1].Matchup, ShouldBeLessThan, picks[0].Matchup)
			})
		})
	})

	Convey("Given synergy records with a picked ally", t, func() {
		src := &stubSource{
			matchups: map[int][]model.MatchupRecord{
				10: {{Opponent: 20, LateDelta: 1, Pickrate: 5, Games: 12000}},
			},
			synergies: map[[2]int]model.SynergyRecord{
				{10, 50}: {Ally: 50, LateDelta: 2, Pickrate: 4, Games: 900},
			},
		}
		adv := warmedAdvisor(t, src, []int{10})
		state := draft.NewState()
		state.EnemyPicks = []int{20}
		state.AllyPicks = []int{50}

		Convey("When recommendations are computed", func() {
			picks := adv.RecommendPicks(context.Background(), state, 3)

			Convey("Then the synergy bonus is included in the total", func() {
				So(len(picks), ShouldEqual, 1)
				So(picks[0].Synergy, ShouldAlmostEqual, 0.6, 1e-9)
				So(picks[0].TotalScore, ShouldAlmostEqual, picks[0].Matchup+0.6, 1e-9)
			})
		})
	})
}

func TestAssess(t *testing.T) {
	Convey("Given a completed draft with a one-sided matchup table", t, func() {
		src := &stubSource{
			matchups: map[int][]model.MatchupRecord{
				10: {{Opponent: 20, LateDelta: 4, Pickrate: 5, Games: 5000}},
				20: {{Opponent: 10, LateDelta: -4, Pickrate: 5, Games: 5000}},
			},
			directional: map[[2]int]float64{
				{20, 10}: -4,
				{10, 20}: 4,
			},
		}
		engine := scoring.NewEngine(scoring.WithThresholds(0.5, 200), scoring.WithRosterSize(1))
		cache := statscache.New(src)
		So(cache.Warm(context.Background(), []int{10}), ShouldBeNil)
		adv := New(engine, cache, []int{10})

		state := draft.NewState()
		state.AllyPicks = []int{10}
		state.EnemyPicks = []int{20}

		Convey("When assessing the draft", func() {
			assessment := adv.Assess(context.Background(), state)

			Convey("Then the favored side gets the higher probability", func() {
				So(assessment.AllyWinProbability, ShouldBeGreaterThan, assessment.EnemyWinProbability)
				So(assessment.AllyWinProbability+assessment.EnemyWinProbability, ShouldAlmostEqual, 100, 1e-9)
			})

			Convey("Then per-candidate advantages mirror in sign", func() {
				So(assessment.AllyAdvantages[10], ShouldBeGreaterThan, 0)
				So(assessment.EnemyAdvantages[20], ShouldBeLessThan, 0)
			})
		})
	})
}

func TestGate(t *testing.T) {
	Convey("Given a fresh dispatch gate", t, func() {
		gate := NewGate()

		Convey("When the first advice arrives off-turn with an unchanged roster", func() {
			So(gate.ShouldDispatch(10, false, nil), ShouldBeFalse)
		})

		Convey("When the first advice arrives on the local turn", func() {
			So(gate.ShouldDispatch(10, true, nil), ShouldBeTrue)

			Convey("Then the same advice is not re-dispatched", func() {
				So(gate.ShouldDispatch(10, true, nil), ShouldBeFalse)
			})

			Convey("Then a new top candidate dispatches again on the local turn", func() {
				So(gate.ShouldDispatch(11, true, nil), ShouldBeTrue)
			})

			Convey("Then a new top candidate off-turn with a stable enemy roster is suppressed", func() {
				So(gate.ShouldDispatch(11, false, nil), ShouldBeFalse)
			})

			Convey("Then an enemy roster change re-issues even off-turn", func() {
				So(gate.ShouldDispatch(11, false, []int{20}), ShouldBeTrue)
			})
		})

		Convey("When the gate is reset", func() {
			So(gate.ShouldDispatch(10, true, nil), ShouldBeTrue)
			gate.Reset()

			Convey("Then the same candidate dispatches again", func() {
				So(gate.ShouldDispatch(10, true, nil), ShouldBeTrue)
			})
		})
	})
}
