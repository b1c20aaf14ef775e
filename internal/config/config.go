// Package config defines process configuration and its loading hooks.
//
// Conventions:
// - New returns defaults; Load layers file and env on top.
// - External errors are wrapped via this package's sentinel errors.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// PollIntervalMS sets how often the session boundary is polled.
	PollIntervalMS int `koanf:"poll_interval_ms"`

	// Pool is the ordered list of candidate names the player drafts from.
	Pool []string `koanf:"pool"`

	// MinPickrate and MinMatchupGames gate which matchup records count.
	MinPickrate     float64 `koanf:"min_pickrate"`
	MinMatchupGames int     `koanf:"min_matchup_games"`

	// MinCompetitiveGames is the total sample size a candidate needs
	// before it may be recommended.
	MinCompetitiveGames int `koanf:"min_competitive_games"`

	// SynergiesEnabled toggles the ally-synergy bonus; SynergyMultiplier
	// scales it.
	SynergiesEnabled  bool    `koanf:"synergies_enabled"`
	SynergyMultiplier float64 `koanf:"synergy_multiplier"`

	// AutoDispatch forwards the top recommendation to the client as a
	// provisional selection.
	AutoDispatch bool `koanf:"auto_dispatch"`

	// DBPath locates the statistics database. ":memory:" works for tests.
	DBPath string `koanf:"db_path"`

	// MaxBans is the draft format's total ban budget.
	MaxBans int `koanf:"max_bans"`

	// Refresh pipeline settings.
	RefreshWorkers   int `koanf:"refresh_workers"`
	RefreshRetries   int `koanf:"refresh_retries"`
	RefreshBackoffMS int `koanf:"refresh_backoff_ms"`
}

// MinPoolSize is the smallest pool that can still produce meaningful
// recommendations through a full draft.
const MinPoolSize = 5

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		PollIntervalMS:      1000,
		MinPickrate:         0.5,
		MinMatchupGames:     200,
		MinCompetitiveGames: 10_000,
		SynergiesEnabled:    true,
		SynergyMultiplier:   0.3,
		AutoDispatch:        false,
		DBPath:              "draftcoach.db",
		MaxBans:             10,
		RefreshWorkers:      4,
		RefreshRetries:      3,
		RefreshBackoffMS:    500,
	}
}
