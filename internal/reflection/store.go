package reflection

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ziadkadry99/testmorph/internal/db"
)

const timeLayout = "2006-01-02 15:04:05.000000000"

// Store persists reflection records and improvement actions.
type Store struct {
	db *db.DB
}

// NewStore creates a store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// InsertRecord appends a reflection record.
func (s *Store) InsertRecord(ctx context.Context, r Record) error {
	insights, err := json.Marshal(r.Insights)
	if err != nil {
		return fmt.Errorf("encoding insights: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reflections
			(id, cause, success_rate, avg_confidence, avg_execution_time, pattern_usage_rate, avg_feedback, insights, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.Cause), r.SuccessRate, r.AvgConfidence, r.AvgExecutionTime,
		r.PatternUsageRate, r.AvgFeedback, string(insights), r.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("inserting reflection: %w", err)
	}
	return nil
}

// ListRecords returns reflections, newest first.
func (s *Store) ListRecords(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectRecord+`
		ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying reflections: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning reflection: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// Latest returns the most recent reflection, or (nil, nil) when none
// has run yet.
func (s *Store) Latest(ctx context.Context) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectRecord+`
		ORDER BY created_at DESC LIMIT 1`)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching latest reflection: %w", err)
	}
	return r, nil
}

// CountRecords returns how many reflections have run.
func (s *Store) CountRecords(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reflections`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting reflections: %w", err)
	}
	return n, nil
}

// InsertAction records a planned improvement.
func (s *Store) InsertAction(ctx context.Context, a Action) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO improvement_actions
			(id, reflection_id, insight_kind, action, priority, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ReflectionID, a.InsightKind, a.Action, a.Priority, a.Status,
		a.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("inserting improvement action: %w", err)
	}
	return nil
}

// ListActions returns actions filtered by status ("" for all),
// highest priority first.
func (s *Store) ListActions(ctx context.Context, status string, limit int) ([]Action, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, reflection_id, insight_kind, action, priority, status, created_at
		FROM improvement_actions`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY priority DESC, created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying improvement actions: %w", err)
	}
	defer rows.Close()

	var actions []Action
	for rows.Next() {
		var a Action
		var createdAt string
		if err := rows.Scan(&a.ID, &a.ReflectionID, &a.InsightKind, &a.Action,
			&a.Priority, &a.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning improvement action: %w", err)
		}
		a.CreatedAt = parseTime(createdAt)
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// CountActions returns how many actions are in the given status.
func (s *Store) CountActions(ctx context.Context, status string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM improvement_actions WHERE status = ?`, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting improvement actions: %w", err)
	}
	return n, nil
}

const selectRecord = `
	SELECT id, cause, success_rate, avg_confidence, avg_execution_time, pattern_usage_rate, avg_feedback, insights, created_at
	FROM reflections`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var r Record
	var cause, insights, createdAt string
	err := row.Scan(&r.ID, &cause, &r.SuccessRate, &r.AvgConfidence,
		&r.AvgExecutionTime, &r.PatternUsageRate, &r.AvgFeedback, &insights, &createdAt)
	if err != nil {
		return nil, err
	}
	r.Cause = Cause(cause)
	// Old insights that no longer decode are dropped, not fatal.
	_ = json.Unmarshal([]byte(insights), &r.Insights)
	r.CreatedAt = parseTime(createdAt)
	return &r, nil
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	t, _ := time.Parse(time.DateTime, s)
	return t
}
