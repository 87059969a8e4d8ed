// Package journal keeps a sqlite record of every decision the bot makes.
// It is write-only from the point of view of play: nothing stored here is
// read back by the strategy tiers.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nstehr/towerbot/agent"
)

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id TEXT PRIMARY KEY,
	game_id INTEGER NOT NULL,
	turn INTEGER NOT NULL,
	kind TEXT NOT NULL,
	tier TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	fallback_reason TEXT NOT NULL DEFAULT '',
	violations TEXT,
	model TEXT NOT NULL DEFAULT '',
	attempts INTEGER NOT NULL DEFAULT 0,
	actions INTEGER NOT NULL,
	latency_us INTEGER NOT NULL,
	decided_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decisions_kind_tier ON decisions(kind, tier);
CREATE INDEX IF NOT EXISTS idx_decisions_game ON decisions(game_id, turn);
`

const insertDecision = `
INSERT OR REPLACE INTO decisions
	(id, game_id, turn, kind, tier, reason, fallback_reason, violations, model, attempts, actions, latency_us, decided_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Journal writes outcomes from a single background goroutine. Record never
// blocks the request path; outcomes are dropped when the queue is full.
type Journal struct {
	db    *sql.DB
	queue chan agent.Outcome
	done  chan struct{}

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// Open creates or opens the journal database at path and starts the writer.
func Open(path string, queueSize int) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// One connection serializes the writer and summary queries.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	if queueSize < 1 {
		queueSize = 1
	}
	j := &Journal{
		db:    db,
		queue: make(chan agent.Outcome, queueSize),
		done:  make(chan struct{}),
	}
	go j.write()
	slog.Info("decision journal opened", "path", path, "queue", queueSize)
	return j, nil
}

// Record queues o for writing. It implements agent.Recorder.
func (j *Journal) Record(o agent.Outcome) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return
	}
	select {
	case j.queue <- o:
	default:
		n := j.dropped.Add(1)
		slog.Warn("journal queue full, dropping decision", "id", o.ID, "dropped", n)
	}
}

// Dropped reports how many outcomes were discarded because the queue was full.
func (j *Journal) Dropped() int64 { return j.dropped.Load() }

// Close stops accepting outcomes, waits for the queued ones to be written
// and closes the database.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	close(j.queue)
	j.mu.Unlock()

	<-j.done
	return j.db.Close()
}

func (j *Journal) write() {
	defer close(j.done)
	for o := range j.queue {
		if err := j.insert(o); err != nil {
			slog.Warn("failed to journal decision", "id", o.ID, "error", err)
		}
	}
}

func (j *Journal) insert(o agent.Outcome) error {
	var violations sql.NullString
	if len(o.Violations) > 0 {
		raw, err := json.Marshal(o.Violations)
		if err != nil {
			return fmt.Errorf("marshal violations: %w", err)
		}
		violations = sql.NullString{String: string(raw), Valid: true}
	}
	_, err := j.db.Exec(insertDecision,
		o.ID, o.GameID, o.Turn, string(o.Kind), string(o.Tier), string(o.Reason), string(o.FallbackReason),
		violations, o.Model, o.Attempts, o.Actions, o.Latency.Microseconds(), o.At.UTC())
	return err
}

// TierCount aggregates the decisions of one kind produced by one tier.
type TierCount struct {
	Kind       agent.Kind
	Tier       agent.Tier
	Count      int
	AvgLatency time.Duration
}

// Summary returns decision counts grouped by kind and tier.
func (j *Journal) Summary(ctx context.Context) ([]TierCount, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT kind, tier, COUNT(*), CAST(AVG(latency_us) AS INTEGER)
		FROM decisions GROUP BY kind, tier ORDER BY kind, tier`)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	var out []TierCount
	for rows.Next() {
		var (
			tc        TierCount
			kind      string
			tier      string
			latencyUS int64
		)
		if err := rows.Scan(&kind, &tier, &tc.Count, &latencyUS); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		tc.Kind = agent.Kind(kind)
		tc.Tier = agent.Tier(tier)
		tc.AvgLatency = time.Duration(latencyUS) * time.Microsecond
		out = append(out, tc)
	}
	return out, rows.Err()
}

// Reasons counts how often each reason rejected the AI tier.
func (j *Journal) Reasons(ctx context.Context) (map[agent.Reason]int, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT reason, COUNT(*) FROM decisions WHERE reason != '' GROUP BY reason`)
	if err != nil {
		return nil, fmt.Errorf("query reasons: %w", err)
	}
	defer rows.Close()

	out := make(map[agent.Reason]int)
	for rows.Next() {
		var (
			reason string
			n      int
		)
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, fmt.Errorf("scan reasons: %w", err)
		}
		out[agent.Reason(reason)] = n
	}
	return out, rows.Err()
}
