package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/wapmorty/draftcoach/internal/domain/model"
)

// schema holds the full read/write contract of the statistics store. The
// acquisition pipeline replaces matchup rows wholesale per candidate, so no
// migration machinery is needed here.
const schema = `
CREATE TABLE IF NOT EXISTS candidates (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS matchups (
    candidate_id INTEGER NOT NULL,
    opponent_id  INTEGER NOT NULL,
    winrate      REAL NOT NULL DEFAULT 50,
    early_delta  REAL NOT NULL DEFAULT 0,
    late_delta   REAL NOT NULL DEFAULT 0,
    pickrate     REAL NOT NULL DEFAULT 0,
    games        INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (candidate_id, opponent_id)
);
CREATE TABLE IF NOT EXISTS synergies (
    candidate_id INTEGER NOT NULL,
    ally_id      INTEGER NOT NULL,
    winrate      REAL NOT NULL DEFAULT 50,
    early_delta  REAL NOT NULL DEFAULT 0,
    late_delta   REAL NOT NULL DEFAULT 0,
    pickrate     REAL NOT NULL DEFAULT 0,
    games        INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (candidate_id, ally_id)
);
`

// SQLiteSource implements Source on a local SQLite database. Reads are safe
// for concurrent use; writes are serialized through a single mutex because
// many acquisition workers may fetch concurrently but only one may write.
type SQLiteSource struct {
	db      *sql.DB
	writeMu sync.Mutex
}

// OpenSQLite opens (and initializes, if needed) the statistics database at
// path. Use ":memory:" for an ephemeral store.
func OpenSQLite(ctx context.Context, path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open statistics db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init statistics schema: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

// Close releases the underlying database handle. Idempotent.
func (s *SQLiteSource) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Matchups returns every recorded matchup for a candidate.
func (s *SQLiteSource) Matchups(ctx context.Context, candidate int) ([]model.MatchupRecord, error) {
	if s.db == nil {
		return nil, ErrNotConnected
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT opponent_id, winrate, early_delta, late_delta, pickrate, games
		   FROM matchups WHERE candidate_id = ?`, candidate)
	if err != nil {
		return nil, fmt.Errorf("query matchups for %d: %w", candidate, err)
	}
	defer rows.Close()

	var records []model.MatchupRecord
	for rows.Next() {
		var rec model.MatchupRecord
		if err := rows.Scan(&rec.Opponent, &rec.Winrate, &rec.EarlyDelta, &rec.LateDelta, &rec.Pickrate, &rec.Games); err != nil {
			return nil, fmt.Errorf("scan matchup row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DirectionalDelta returns the candidate's recorded late delta against the
// opponent, or false when the pair was never sampled.
func (s *SQLiteSource) DirectionalDelta(ctx context.Context, candidate, opponent int) (float64, bool, error) {
	if s.db == nil {
		return 0, false, ErrNotConnected
	}
	var delta float64
	err := s.db.QueryRowContext(ctx,
		`SELECT late_delta FROM matchups WHERE candidate_id = ? AND opponent_id = ?`,
		candidate, opponent).Scan(&delta)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query directional delta %d vs %d: %w", candidate, opponent, err)
	}
	return delta, true, nil
}

// Synergy returns the candidate's synergy record with an ally.
func (s *SQLiteSource) Synergy(ctx context.Context, candidate, ally int) (model.SynergyRecord, bool, error) {
	if s.db == nil {
		return model.SynergyRecord{}, false, ErrNotConnected
	}
	rec := model.SynergyRecord{Ally: ally}
	err := s.db.QueryRowContext(ctx,
		`SELECT winrate, early_delta, late_delta, pickrate, games
		   FROM synergies WHERE candidate_id = ? AND ally_id = ?`,
		candidate, ally).Scan(&rec.Winrate, &rec.EarlyDelta, &rec.LateDelta, &rec.Pickrate, &rec.Games)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SynergyRecord{}, false, nil
	}
	if err != nil {
		return model.SynergyRecord{}, false, fmt.Errorf("query synergy %d with %d: %w", candidate, ally, err)
	}
	return rec, true, nil
}

// CandidateNames maps candidate ids to display names.
func (s *SQLiteSource) CandidateNames(ctx context.Context) (map[int]string, error) {
	if s.db == nil {
		return nil, ErrNotConnected
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM candidates`)
	if err != nil {
		return nil, fmt.Errorf("query candidate names: %w", err)
	}
	defer rows.Close()

	names := make(map[int]string)
	for rows.Next() {
		var id int
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan candidate row: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

// UpsertCandidate registers a candidate id and display name.
func (s *SQLiteSource) UpsertCandidate(ctx context.Context, id int, name string) error {
	if s.db == nil {
		return ErrNotConnected
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO candidates (id, name) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`, id, name)
	if err != nil {
		return fmt.Errorf("upsert candidate %d: %w", id, err)
	}
	return nil
}

// ReplaceMatchups atomically replaces all matchup rows for a candidate with
// a freshly fetched set. The acquisition pipeline is the only caller.
func (s *SQLiteSource) ReplaceMatchups(ctx context.Context, candidate int, records []model.MatchupRecord) error {
	if s.db == nil {
		return ErrNotConnected
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin matchup replace: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, `DELETE FROM matchups WHERE candidate_id = ?`, candidate); err != nil {
		return fmt.Errorf("clear matchups for %d: %w", candidate, err)
	}
	for _, rec := range records {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO matchups (candidate_id, opponent_id, winrate, early_delta, late_delta, pickrate, games)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			candidate, rec.Opponent, rec.Winrate, rec.EarlyDelta, rec.LateDelta, rec.Pickrate, rec.Games); err != nil {
			return fmt.Errorf("insert matchup %d vs %d: %w", candidate, rec.Opponent, err)
		}
	}
	return tx.Commit()
}

// ReplaceSynergies atomically replaces all synergy rows for a candidate.
func (s *SQLiteSource) ReplaceSynergies(ctx context.Context, candidate int, records []model.SynergyRecord) error {
	if s.db == nil {
		return ErrNotConnected
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin synergy replace: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, `DELETE FROM synergies WHERE candidate_id = ?`, candidate); err != nil {
		return fmt.Errorf("clear synergies for %d: %w", candidate, err)
	}
	for _, rec := range records {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO synergies (candidate_id, ally_id, winrate, early_delta, late_delta, pickrate, games)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			candidate, rec.Ally, rec.Winrate, rec.EarlyDelta, rec.LateDelta, rec.Pickrate, rec.Games); err != nil {
			return fmt.Errorf("insert synergy %d with %d: %w", candidate, rec.Ally, err)
		}
	}
	return tx.Commit()
}

// CandidateIDs resolves display names to ids, case-insensitively. Unknown
// names are skipped; callers decide whether that is fatal.
func (s *SQLiteSource) CandidateIDs(ctx context.Context, names []string) ([]int, []string, error) {
	all, err := s.CandidateNames(ctx)
	if err != nil {
		return nil, nil, err
	}
	byName := make(map[string]int, len(all))
	for id, name := range all {
		byName[strings.ToLower(name)] = id
	}

	ids := make([]int, 0, len(names))
	var missing []string
	for _, name := range names {
		if id, ok := byName[strings.ToLower(name)]; ok {
			ids = append(ids, id)
		} else {
			missing = append(missing, name)
		}
	}
	return ids, missing, nil
}
