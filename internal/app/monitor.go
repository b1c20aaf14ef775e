// Package monitor runs the draft session loop and implements the
// dependencies required by the HTTP API. One goroutine owns all draft
// state; HTTP reads go through a read lock on published results.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wapmorty/draftcoach/internal/adapters/http/api"
	"github.com/wapmorty/draftcoach/internal/adapters/statscache"
	"github.com/wapmorty/draftcoach/internal/advisor"
	"github.com/wapmorty/draftcoach/internal/domain/draft"
	"github.com/wapmorty/draftcoach/internal/domain/model"
	"github.com/wapmorty/draftcoach/pkg/logger"
	"github.com/wapmorty/draftcoach/pkg/metrics"
)

// Default monitor configuration constants.
const (
	defaultPollInterval = time.Second
	defaultPickLimit    = 3
	defaultBanLimit     = 5
)

// Poller is the session boundary the monitor observes and, optionally,
// dispatches advice through.
type Poller interface {
	FlowPhase(ctx context.Context) (model.FlowPhase, error)
	GetSnapshot(ctx context.Context) (*model.Snapshot, error)
	ProposeSelection(ctx context.Context, candidateID int) error
}

// Monitor drives one draft session at a time. Run is the single mutator of
// the state machine and the cache; everything the API reads is published
// under the mutex.
type Monitor struct {
	poller  Poller
	machine *draft.Machine
	cache   *statscache.Cache
	advisor *advisor.Advisor
	gate    *advisor.Gate
	pool    []int

	pollInterval time.Duration
	autoDispatch bool
	maxBans      int
	rosterSize   int

	mu         sync.RWMutex
	sessionID  string
	flow       model.FlowPhase
	inSession  bool
	state      draft.State
	picks      []model.RankedCandidate
	bans       []model.BanThreat
	assessment *model.TeamAssessment

	log logger.Logger
}

// Option applies a configuration option to the Monitor.
type Option func(*Monitor)

// WithPollInterval sets the session poll cadence.
func WithPollInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

// WithAutoDispatch forwards the top recommendation to the client as a
// provisional selection.
func WithAutoDispatch(enabled bool) Option {
	return func(m *Monitor) {
		m.autoDispatch = enabled
	}
}

// WithFormat sets the draft format's ban budget and roster size.
func WithFormat(maxBans, rosterSize int) Option {
	return func(m *Monitor) {
		if maxBans > 0 {
			m.maxBans = maxBans
		}
		if rosterSize > 0 {
			m.rosterSize = rosterSize
		}
	}
}

// WithLogger sets a custom logger for the monitor.
func WithLogger(log logger.Logger) Option {
	return func(m *Monitor) {
		if log != nil {
			m.log = log
		}
	}
}

// New constructs a Monitor over an already-wired poller, cache and advisor.
func New(poller Poller, cache *statscache.Cache, adv *advisor.Advisor, pool []int, opts ...Option) *Monitor {
	m := &Monitor{
		poller:       poller,
		cache:        cache,
		advisor:      adv,
		gate:         advisor.NewGate(),
		pool:         pool,
		pollInterval: defaultPollInterval,
		maxBans:      10,
		rosterSize:   5,
		flow:         model.FlowIdle,
		state:        draft.NewState(),
		log:          logger.Get().Named("monitor"),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.machine = draft.NewMachine(draft.WithFormat(m.maxBans, m.rosterSize))
	return m
}

// Run polls the session boundary until ctx is canceled. Cleanup is
// guaranteed on the way out.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()
	defer m.cleanup(ctx)

	m.log.Info(ctx, "monitor started",
		logger.Int("pool_size", len(m.pool)),
		logger.Any("poll_interval", m.pollInterval),
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick performs one observation of the session boundary. Exported so the
// loop cadence and the reconciliation logic can be exercised separately.
func (m *Monitor) Tick(ctx context.Context) {
	metrics.RecordPollTick()

	flow, err := m.poller.FlowPhase(ctx)
	if err != nil {
		metrics.RecordPollError()
		m.log.Warn(ctx, "flow phase poll failed", logger.Error(err))
		return
	}
	m.mu.Lock()
	m.flow = flow
	m.mu.Unlock()

	switch flow {
	case model.FlowDrafting:
		if !m.sessionActive() {
			if err := m.beginSession(ctx); err != nil {
				return
			}
		}
		m.observe(ctx)
	case model.FlowIdle:
		// The session survives the in-game phase so the final assessment
		// stays readable; idle is the reset point.
		if m.sessionActive() {
			m.endSession(ctx)
		}
	case model.FlowReadyCheck, model.FlowInGame:
	}
}

func (m *Monitor) sessionActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inSession
}

func (m *Monitor) beginSession(ctx context.Context) error {
	id := uuid.NewString()
	if err := m.cache.Warm(ctx, m.pool); err != nil {
		metrics.RecordPollError()
		m.log.Error(ctx, "cache warm failed, session not started", logger.Error(err))
		return err
	}
	m.machine.Reset()
	m.gate.Reset()

	m.mu.Lock()
	m.sessionID = id
	m.inSession = true
	m.state = draft.NewState()
	m.picks = nil
	m.bans = nil
	m.assessment = nil
	m.mu.Unlock()

	metrics.RecordSessionStarted()
	m.log.Info(ctx, "draft session started", logger.String("session_id", id))
	return nil
}

func (m *Monitor) endSession(ctx context.Context) {
	m.machine.Reset()
	m.cache.Clear()
	m.gate.Reset()

	m.mu.Lock()
	id := m.sessionID
	m.sessionID = ""
	m.inSession = false
	m.state = draft.NewState()
	m.picks = nil
	m.bans = nil
	m.assessment = nil
	m.mu.Unlock()

	m.log.Info(ctx, "draft session ended", logger.String("session_id", id))
}

func (m *Monitor) observe(ctx context.Context) {
	snap, err := m.poller.GetSnapshot(ctx)
	if err != nil {
		metrics.RecordPollError()
		m.log.Warn(ctx, "snapshot poll failed", logger.Error(err))
		return
	}

	state, changed, completedNow, err := m.machine.Reconcile(snap)
	if err != nil {
		// Previous state stays authoritative for this tick.
		metrics.RecordSnapshotMalformed()
		m.log.Warn(ctx, "malformed snapshot ignored", logger.Error(err))
		return
	}

	m.mu.Lock()
	m.state = state
	m.mu.Unlock()

	if changed {
		metrics.RecordReconcileChange()
		m.rescore(ctx, state)
	}
	if completedNow {
		m.finalAnalysis(ctx, state)
	}
}

// rescore recomputes both rankings and publishes them, then runs the
// advisory dispatch decision for the pick side.
func (m *Monitor) rescore(ctx context.Context, state draft.State) {
	bans := m.advisor.RankBans(state, defaultBanLimit)
	picks := m.advisor.RecommendPicks(ctx, state, defaultPickLimit)

	m.mu.Lock()
	m.bans = bans
	m.picks = picks
	m.mu.Unlock()

	if len(picks) == 0 || state.Phase != draft.PhasePick {
		return
	}
	top := picks[0].CandidateID
	localTurn := state.CurrentActor >= 0 && state.CurrentActor == state.LocalActor
	if !m.gate.ShouldDispatch(top, localTurn, state.EnemyPicks) {
		return
	}

	m.log.Info(ctx, "pick advice",
		logger.Int("candidate", top),
		logger.Float64("score", picks[0].TotalScore),
	)
	if !m.autoDispatch {
		return
	}
	metrics.RecordDispatchAttempt()
	if err := m.poller.ProposeSelection(ctx, top); err != nil {
		metrics.RecordDispatchFailure()
		m.log.Warn(ctx, "advisory dispatch failed", logger.Error(err))
	}
}

func (m *Monitor) finalAnalysis(ctx context.Context, state draft.State) {
	assessment := m.advisor.Assess(ctx, state)

	m.mu.Lock()
	m.assessment = &assessment
	m.mu.Unlock()

	metrics.RecordSessionCompleted()
	m.log.Info(ctx, "draft complete",
		logger.Float64("ally_win_probability", assessment.AllyWinProbability),
		logger.Float64("enemy_win_probability", assessment.EnemyWinProbability),
	)
}

func (m *Monitor) cleanup(ctx context.Context) {
	m.cache.Clear()
	if closer, ok := m.poller.(interface{ Close() }); ok {
		closer.Close()
	}
	m.log.Info(ctx, "monitor stopped")
}

// DraftStatus returns the current canonical state and the latest
// recommendations.
func (m *Monitor) DraftStatus(_ context.Context) api.DraftStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return api.DraftStatus{
		SessionID:  m.sessionID,
		FlowPhase:  m.flow,
		State:      m.state,
		Picks:      m.picks,
		Bans:       m.bans,
		Assessment: m.assessment,
	}
}

// BanAdvice returns the current ban-threat ranking.
func (m *Monitor) BanAdvice(_ context.Context) []model.BanThreat {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bans
}

// CacheStats reports lookup-cache effectiveness.
func (m *Monitor) CacheStats(_ context.Context) statscache.Stats {
	return m.cache.Stats()
}
