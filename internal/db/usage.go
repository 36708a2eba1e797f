package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Mode says which conversation engine produced an answer.
type Mode string

const (
	ModeDocument Mode = "document"
	ModeGeneral  Mode = "general"
)

// UsageEvent is one answered question.
type UsageEvent struct {
	ID           string
	SessionID    string
	Document     string
	Mode         Mode
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	CreatedAt    time.Time
}

// ModelTotal aggregates usage for one model.
type ModelTotal struct {
	Model        string
	Questions    int
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// UsageStore records and aggregates usage events.
type UsageStore struct {
	db *DB
}

// NewUsageStore creates a UsageStore backed by the given database.
func NewUsageStore(database *DB) *UsageStore {
	return &UsageStore{db: database}
}

// Record inserts ev. Empty ID and CreatedAt are filled in.
func (s *UsageStore) Record(ctx context.Context, ev UsageEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_events (
			id, session_id, document, mode, model,
			input_tokens, output_tokens, cost_usd, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.SessionID, ev.Document, string(ev.Mode), ev.Model,
		ev.InputTokens, ev.OutputTokens, ev.CostUSD,
		ev.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting usage event: %w", err)
	}
	return nil
}

// Totals returns usage per model since the given time, most expensive
// first. A zero since includes everything.
func (s *UsageStore) Totals(ctx context.Context, since time.Time) ([]ModelTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT model, COUNT(*), COALESCE(SUM(input_tokens), 0),
		       COALESCE(SUM(output_tokens), 0), COALESCE(SUM(cost_usd), 0)
		FROM usage_events
		WHERE created_at >= ?
		GROUP BY model
		ORDER BY SUM(cost_usd) DESC, model ASC`,
		since.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("querying usage totals: %w", err)
	}
	defer rows.Close()

	var totals []ModelTotal
	for rows.Next() {
		var t ModelTotal
		if err := rows.Scan(&t.Model, &t.Questions, &t.InputTokens, &t.OutputTokens, &t.CostUSD); err != nil {
			return nil, fmt.Errorf("scanning usage totals: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// Recent returns the latest events, newest first.
func (s *UsageStore) Recent(ctx context.Context, limit int) ([]UsageEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, document, mode, model,
		       input_tokens, output_tokens, cost_usd, created_at
		FROM usage_events
		ORDER BY created_at DESC, id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying usage events: %w", err)
	}
	defer rows.Close()

	var events []UsageEvent
	for rows.Next() {
		var (
			ev       UsageEvent
			mode, ts string
		)
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Document, &mode, &ev.Model,
			&ev.InputTokens, &ev.OutputTokens, &ev.CostUSD, &ts); err != nil {
			return nil, fmt.Errorf("scanning usage event: %w", err)
		}
		ev.Mode = Mode(mode)
		if t, err := time.Parse(timeLayout, ts); err == nil {
			ev.CreatedAt = t
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
