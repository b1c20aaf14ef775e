// Package statscache memoizes statistics source reads for the active pool
// in both directions, so repeated scoring calls during a fast-moving draft
// never hit the source.
package statscache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wapmorty/draftcoach/internal/adapters/stats"
	"github.com/wapmorty/draftcoach/internal/domain/model"
	"github.com/wapmorty/draftcoach/pkg/logger"
	"github.com/wapmorty/draftcoach/pkg/metrics"
)

// ReverseRecord pairs a cached pool member with one of its matchup records.
// The reverse map indexes these by the record's opponent, which is what
// pool-wide aggregations (the ban ranker) iterate over.
type ReverseRecord struct {
	Subject int // pool member owning the record
	Record  model.MatchupRecord
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits     int `json:"hits"`
	Misses   int `json:"misses"`
	PoolSize int `json:"pool_size"`
}

// Cache memoizes matchup lists for a warmed pool. The poll loop is the
// only mutator (Warm, Lookup, Clear), but Stats is served to HTTP handler
// goroutines, so all shared fields sit behind the mutex.
type Cache struct {
	source stats.Source
	log    logger.Logger

	mu      sync.RWMutex
	direct  map[int][]model.MatchupRecord
	reverse map[int][]ReverseRecord
	warmed  bool
	hits    int
	misses  int
}

// New creates a cold cache over the given source.
func New(source stats.Source, opts ...Option) *Cache {
	c := &Cache{
		source:  source,
		direct:  make(map[int][]model.MatchupRecord),
		reverse: make(map[int][]ReverseRecord),
		log:     logger.Get().Named("statscache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Warm fetches the full matchup list for every pool candidate once and
// builds both maps. It runs once per pool selection, not once per pick:
// the point is removing per-tick source queries from the recommendation
// path. A previous warm is replaced wholesale, never patched.
func (c *Cache) Warm(ctx context.Context, pool []int) error {
	direct := make(map[int][]model.MatchupRecord, len(pool))
	reverse := make(map[int][]ReverseRecord)

	for _, candidate := range pool {
		records, err := c.query(ctx, candidate)
		if err != nil {
			return fmt.Errorf("warm pool candidate %d: %w", candidate, err)
		}
		direct[candidate] = records
		for _, rec := range records {
			reverse[rec.Opponent] = append(reverse[rec.Opponent], ReverseRecord{
				Subject: candidate,
				Record:  rec,
			})
		}
	}

	c.mu.Lock()
	c.direct = direct
	c.reverse = reverse
	c.warmed = true
	c.hits = 0
	c.misses = 0
	c.mu.Unlock()
	metrics.UpdateCacheWarmSize(len(pool))
	c.log.Info(ctx, "cache warmed",
		logger.Int("pool_size", len(pool)),
		logger.Int("reverse_entries", len(reverse)),
	)
	return nil
}

// Lookup returns the matchup list for a candidate. Pool members are served
// from memory; anything else falls back to a live source query so ad hoc
// lookups still work, just without the caching benefit.
func (c *Cache) Lookup(ctx context.Context, candidate int) ([]model.MatchupRecord, error) {
	c.mu.Lock()
	if records, ok := c.direct[candidate]; ok {
		c.hits++
		c.mu.Unlock()
		metrics.RecordCacheHit()
		return records, nil
	}
	c.misses++
	c.mu.Unlock()
	metrics.RecordCacheMiss()
	return c.query(ctx, candidate)
}

// ReverseDelta returns the opponent's own recorded late delta when facing
// the candidate. A live directional query is preferred: it is the most
// accurate single-pair answer and cheap on the source side. The reverse
// map only backs pool-wide aggregation, not this call.
func (c *Cache) ReverseDelta(ctx context.Context, opponent, candidate int) (float64, bool) {
	start := time.Now()
	delta, ok, err := c.source.DirectionalDelta(ctx, opponent, candidate)
	metrics.RecordSourceQueryLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordSourceQueryError()
		c.log.Warn(ctx, "directional lookup failed",
			logger.Int("opponent", opponent),
			logger.Int("candidate", candidate),
			logger.Error(err),
		)
		return 0, false
	}
	return delta, ok
}

// Synergy returns the candidate's synergy record with an ally, satisfying
// the scoring engine's SynergySource.
func (c *Cache) Synergy(ctx context.Context, candidate, ally int) (model.SynergyRecord, bool) {
	rec, ok, err := c.source.Synergy(ctx, candidate, ally)
	if err != nil {
		metrics.RecordSourceQueryError()
		c.log.Warn(ctx, "synergy lookup failed",
			logger.Int("candidate", candidate),
			logger.Int("ally", ally),
			logger.Error(err),
		)
		return model.SynergyRecord{}, false
	}
	return rec, ok
}

// ReverseRecords returns every cached record in which the given candidate
// appears as the opponent of a pool member.
func (c *Cache) ReverseRecords(candidate int) []ReverseRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reverse[candidate]
}

// Opponents returns the union of opponent ids across the warmed pool.
func (c *Cache) Opponents() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]int, 0, len(c.reverse))
	for id := range c.reverse {
		ids = append(ids, id)
	}
	return ids
}

// Warmed reports whether a pool has been warmed since the last Clear.
func (c *Cache) Warmed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.warmed
}

// Stats returns the hit/miss counters and the warmed pool size.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Hits: c.hits, Misses: c.misses, PoolSize: len(c.direct)}
}

// Clear drops both maps and resets the counters. Called on session end.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.direct = make(map[int][]model.MatchupRecord)
	c.reverse = make(map[int][]ReverseRecord)
	c.warmed = false
	c.hits = 0
	c.misses = 0
	c.mu.Unlock()
	metrics.UpdateCacheWarmSize(0)
}

func (c *Cache) query(ctx context.Context, candidate int) ([]model.MatchupRecord, error) {
	start := time.Now()
	records, err := c.source.Matchups(ctx, candidate)
	metrics.RecordSourceQueryLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordSourceQueryError()
		return nil, err
	}
	return records, nil
}
