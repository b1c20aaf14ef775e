// Package acquisition refreshes the statistics store out of band. A bounded
// in-memory job queue feeds a small worker pool; fetched record sets are
// written through the store's single-writer path. The draft monitor never
// waits on this pipeline.
package acquisition

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wapmorty/draftcoach/internal/domain/model"
	"github.com/wapmorty/draftcoach/pkg/logger"
	"github.com/wapmorty/draftcoach/pkg/metrics"
)

// Default pipeline configuration constants.
const (
	defaultWorkerCount    = 4
	defaultQueueCapacity  = 256
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMultiplier     = 2.0
)

// Job names one candidate whose statistics need refreshing.
type Job struct {
	CandidateID int
	Name        string
}

// Fetcher retrieves fresh record sets for a candidate. The transport
// behind it is out of scope here; tests and callers supply their own.
type Fetcher interface {
	FetchMatchups(ctx context.Context, candidate int) ([]model.MatchupRecord, error)
	FetchSynergies(ctx context.Context, candidate int) ([]model.SynergyRecord, error)
}

// Store is the write side of the statistics store.
type Store interface {
	UpsertCandidate(ctx context.Context, id int, name string) error
	ReplaceMatchups(ctx context.Context, candidate int, records []model.MatchupRecord) error
	ReplaceSynergies(ctx context.Context, candidate int, records []model.SynergyRecord) error
}

// RetryPolicy controls per-job retry behavior. Each task consults the
// policy it was handed rather than any shared state, so concurrent jobs
// back off independently.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	Multiplier     float64
}

// Backoff returns the delay before the given retry attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
	}
	return d
}

// Summary reports the outcome of one pipeline run.
type Summary struct {
	Refreshed int
	Failed    int
}

// Pipeline owns the queue and the worker pool for one refresh run.
type Pipeline struct {
	fetcher  Fetcher
	store    Store
	workers  int
	queueCap int
	retry    RetryPolicy
	log      logger.Logger

	mu      sync.Mutex
	summary Summary
}

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithQueueCapacity bounds the job queue.
func WithQueueCapacity(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.queueCap = n
		}
	}
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(p *Pipeline) {
		if policy.MaxAttempts > 0 {
			p.retry = policy
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

// NewPipeline creates a refresh pipeline over a fetcher and a store.
func NewPipeline(fetcher Fetcher, store Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:  fetcher,
		store:    store,
		workers:  defaultWorkerCount,
		queueCap: defaultQueueCapacity,
		retry: RetryPolicy{
			MaxAttempts:    defaultMaxAttempts,
			InitialBackoff: defaultInitialBackoff,
			Multiplier:     defaultMultiplier,
		},
		log: logger.Get().Named("acquisition"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run refreshes every job and blocks until all workers drain the queue or
// the context is canceled. Individual job failures are counted, not fatal;
// only an over-full queue aborts the run.
func (p *Pipeline) Run(ctx context.Context, jobs []Job) (Summary, error) {
	if len(jobs) > p.queueCap {
		return Summary{}, fmt.Errorf("%w: %d jobs, capacity %d", ErrQueueFull, len(jobs), p.queueCap)
	}
	p.summary = Summary{}

	queue := make(chan Job, p.queueCap)
	for _, job := range jobs {
		queue <- job
	}
	close(queue)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-queue:
					if !ok {
						return
					}
					p.process(ctx, job)
				}
			}
		}()
	}
	wg.Wait()

	p.log.Info(ctx, "refresh run finished",
		logger.Int("refreshed", p.summary.Refreshed),
		logger.Int("failed", p.summary.Failed),
	)
	return p.summary, ctx.Err()
}

// process refreshes a single candidate with retries.
func (p *Pipeline) process(ctx context.Context, job Job) {
	metrics.RecordAcquisitionJob()

	var lastErr error
	for attempt := 1; attempt <= p.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			metrics.RecordAcquisitionRetry()
			select {
			case <-ctx.Done():
				p.fail(ctx, job, ctx.Err())
				return
			case <-time.After(p.retry.Backoff(attempt - 1)):
			}
		}
		if lastErr = p.refresh(ctx, job); lastErr == nil {
			p.mu.Lock()
			p.summary.Refreshed++
			p.mu.Unlock()
			return
		}
		p.log.Warn(ctx, "refresh attempt failed",
			logger.Int("candidate", job.CandidateID),
			logger.Int("attempt", attempt),
			logger.Error(lastErr),
		)
	}
	p.fail(ctx, job, lastErr)
}

func (p *Pipeline) refresh(ctx context.Context, job Job) error {
	matchups, err := p.fetcher.FetchMatchups(ctx, job.CandidateID)
	if err != nil {
		return fmt.Errorf("fetch matchups: %w", err)
	}
	synergies, err := p.fetcher.FetchSynergies(ctx, job.CandidateID)
	if err != nil {
		return fmt.Errorf("fetch synergies: %w", err)
	}

	if job.Name != "" {
		if err := p.store.UpsertCandidate(ctx, job.CandidateID, job.Name); err != nil {
			return fmt.Errorf("upsert candidate: %w", err)
		}
	}
	if err := p.store.ReplaceMatchups(ctx, job.CandidateID, matchups); err != nil {
		return fmt.Errorf("write matchups: %w", err)
	}
	if err := p.store.ReplaceSynergies(ctx, job.CandidateID, synergies); err != nil {
		return fmt.Errorf("write synergies: %w", err)
	}
	return nil
}

func (p *Pipeline) fail(ctx context.Context, job Job, err error) {
	metrics.RecordAcquisitionFailure()
	p.mu.Lock()
	p.summary.Failed++
	p.mu.Unlock()
	p.log.Error(ctx, "refresh failed",
		logger.Int("candidate", job.CandidateID),
		logger.Error(err),
	)
}
