// Package model contains domain models passed between layers.
package model

// MatchupRecord is a directional measurement of how a candidate performs
// against a specific opponent. Records scraped without the richer fields
// keep neutral defaults so all callers see one shape.
type MatchupRecord struct {
	Opponent   int     // opponent candidate id
	Winrate    float64 // win percentage, 0-100
	EarlyDelta float64 // performance differential sampled early
	LateDelta  float64 // performance differential sampled late
	Pickrate   float64 // popularity percentage, 0-100
	Games      int     // sample size
}

// SynergyRecord mirrors MatchupRecord but the relation is "with ally"
// instead of "against opponent".
type SynergyRecord struct {
	Ally       int
	Winrate    float64
	EarlyDelta float64
	LateDelta  float64
	Pickrate   float64
	Games      int
}

// ActionKind distinguishes pick and ban actions in a draft session.
type ActionKind string

// Action kinds reported by the session.
const (
	ActionPick ActionKind = "pick"
	ActionBan  ActionKind = "ban"
)

// ActionRecord is one pick/ban action from the session log. Completed
// actions are the only source of truth for bans; the session's aggregate
// ban list is unreliable and never consulted.
type ActionRecord struct {
	Kind        ActionKind
	ActorID     int // cell id of the acting player
	CandidateID int
	Completed   bool
}

// RosterSlot is one seat on a team as reported by the session.
type RosterSlot struct {
	CellID      int
	CandidateID int // 0 means nothing selected yet
}

// Snapshot is one normalized observation of the external draft session.
// Actions preserve the session's reported order.
type Snapshot struct {
	Phase        string // raw phase label as reported; not trusted for ban/pick split
	LocalActorID int
	AllyRoster   []RosterSlot
	EnemyRoster  []RosterSlot
	Actions      []ActionRecord
}

// FlowPhase is the coarse state of the external client flow.
type FlowPhase string

// Flow phases observed from the session boundary.
const (
	FlowIdle       FlowPhase = "idle"
	FlowReadyCheck FlowPhase = "ready_check"
	FlowDrafting   FlowPhase = "drafting"
	FlowInGame     FlowPhase = "in_game"
)

// RankedCandidate is one pick recommendation. Recomputed on every
// meaningful tick and never persisted.
type RankedCandidate struct {
	CandidateID int     `json:"candidate_id"`
	TotalScore  float64 `json:"total_score"`
	Matchup     float64 `json:"matchup_component"`
	Synergy     float64 `json:"synergy_component"`
}

// BanThreat ranks an enemy candidate worth banning.
type BanThreat struct {
	CandidateID    int     `json:"candidate_id"`
	Threat         float64 `json:"threat"`
	CounteredCount int     `json:"countered_count"`
	BestResponse   int     `json:"best_response"`
	BestAdvantage  float64 `json:"best_advantage"`
}

// TeamAssessment captures the end-of-draft analysis for both sides.
// Win probabilities are renormalized so the two sides sum to 100.
type TeamAssessment struct {
	AllyWinProbability  float64         `json:"ally_win_probability"`
	EnemyWinProbability float64         `json:"enemy_win_probability"`
	AllyAdvantages      map[int]float64 `json:"ally_advantages"`
	EnemyAdvantages     map[int]float64 `json:"enemy_advantages"`
}
