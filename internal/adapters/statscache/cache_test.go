package statscache

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/wapmorty/draftcoach/internal/domain/model"
	"github.com/wapmorty/draftcoach/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// countingSource tracks how many times each method touches the backing store.
type countingSource struct {
	matchups    map[int][]model.MatchupRecord
	directional map[[2]int]float64
	synergies   map[[2]int]model.SynergyRecord

	matchupCalls     int
	directionalCalls int
}

func (s *countingSource) Matchups(_ context.Context, candidate int) ([]model.MatchupRecord, error) {
	s.matchupCalls++
	return s.matchups[candidate], nil
}

func (s *countingSource) DirectionalDelta(_ context.Context, candidate, opponent int) (float64, bool, error) {
	s.directionalCalls++
	delta, ok := s.directional[[2]int{candidate, opponent}]
	return delta, ok, nil
}

func (s *countingSource) Synergy(_ context.Context, candidate, ally int) (model.SynergyRecord, bool, error) {
	rec, ok := s.synergies[[2]int{candidate, ally}]
	return rec, ok, nil
}

func (s *countingSource) CandidateNames(_ context.Context) (map[int]string, error) {
	return nil, nil
}

func newTestSource() *countingSource {
	return &countingSource{
		matchups: map[int][]model.MatchupRecord{
			10: {
				{Opponent: 20, Winrate: 52, LateDelta: 1.5, Pickrate: 3.0, Games: 900},
				{Opponent: 30, Winrate: 48, LateDelta: -0.8, Pickrate: 2.0, Games: 700},
			},
			11: {
				{Opponent: 20, Winrate: 55, LateDelta: 2.2, Pickrate: 3.0, Games: 1200},
			},
			99: {
				{Opponent: 10, Winrate: 50, LateDelta: 0.1, Pickrate: 1.0, Games: 400},
			},
		},
		directional: map[[2]int]float64{
			{20, 10}: -1.5,
		},
	}
}

func TestCacheWarm(t *testing.T) {
	Convey("Given a cache over a counting source", t, func() {
		src := newTestSource()
		cache := New(src)
		ctx := context.Background()

		Convey("When the pool is warmed", func() {
			err := cache.Warm(ctx, []int{10, 11})

			Convey("Then each pool candidate is fetched exactly once", func() {
				So(err, ShouldBeNil)
				So(src.matchupCalls, ShouldEqual, 2)
				So(cache.Warmed(), ShouldBeTrue)
			})

			Convey("Then pool lookups never touch the source again", func() {
				records, err := cache.Lookup(ctx, 10)
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 2)

				_, err = cache.Lookup(ctx, 11)
				So(err, ShouldBeNil)
				So(src.matchupCalls, ShouldEqual, 2)

				stats := cache.Stats()
				So(stats.Hits, ShouldEqual, 2)
				So(stats.Misses, ShouldEqual, 0)
				So(stats.PoolSize, ShouldEqual, 2)
			})

			Convey("Then non-pool lookups fall back to the source", func() {
				records, err := cache.Lookup(ctx, 99)
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 1)
				So(src.matchupCalls, ShouldEqual, 3)
				So(cache.Stats().Misses, ShouldEqual, 1)
			})

			Convey("Then the reverse map indexes records by opponent", func() {
				reversed := cache.ReverseRecords(20)
				So(reversed, ShouldHaveLength, 2)

				subjects := map[int]bool{}
				for _, r := range reversed {
					So(r.Record.Opponent, ShouldEqual, 20)
					subjects[r.Subject] = true
				}
				So(subjects[10], ShouldBeTrue)
				So(subjects[11], ShouldBeTrue)

				So(cache.ReverseRecords(30), ShouldHaveLength, 1)
				So(cache.ReverseRecords(77), ShouldBeEmpty)
			})

			Convey("Then Opponents lists the union of opposing ids", func() {
				ids := cache.Opponents()
				So(ids, ShouldHaveLength, 2)
				So(ids, ShouldContain, 20)
				So(ids, ShouldContain, 30)
			})
		})

		Convey("When warmed a second time with a different pool", func() {
			So(cache.Warm(ctx, []int{10, 11}), ShouldBeNil)
			So(cache.Warm(ctx, []int{11}), ShouldBeNil)

			Convey("Then the previous pool is fully replaced", func() {
				So(cache.Stats().PoolSize, ShouldEqual, 1)
				So(cache.ReverseRecords(30), ShouldBeEmpty)
			})
		})
	})
}

func TestCacheReverseDelta(t *testing.T) {
	Convey("Given a warmed cache", t, func() {
		src := newTestSource()
		cache := New(src)
		ctx := context.Background()
		So(cache.Warm(ctx, []int{10}), ShouldBeNil)

		Convey("When asking for a directional delta that exists", func() {
			delta, ok := cache.ReverseDelta(ctx, 20, 10)

			Convey("Then the live source answer is returned", func() {
				So(ok, ShouldBeTrue)
				So(delta, ShouldEqual, -1.5)
				So(src.directionalCalls, ShouldEqual, 1)
			})
		})

		Convey("When the directional record is missing", func() {
			_, ok := cache.ReverseDelta(ctx, 30, 10)

			Convey("Then the lookup reports a miss without an error", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestCacheClear(t *testing.T) {
	Convey("Given a warmed cache", t, func() {
		src := newTestSource()
		cache := New(src)
		ctx := context.Background()
		So(cache.Warm(ctx, []int{10, 11}), ShouldBeNil)
		_, _ = cache.Lookup(ctx, 10)

		Convey("When cleared", func() {
			cache.Clear()

			Convey("Then maps and counters reset", func() {
				So(cache.Warmed(), ShouldBeFalse)
				stats := cache.Stats()
				So(stats.Hits, ShouldEqual, 0)
				So(stats.PoolSize, ShouldEqual, 0)
			})

			Convey("Then former pool members query the source again", func() {
				calls := src.matchupCalls
				_, err := cache.Lookup(ctx, 10)
				So(err, ShouldBeNil)
				So(src.matchupCalls, ShouldEqual, calls+1)
			})
		})
	})
}
