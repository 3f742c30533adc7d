package patterns

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

// Pattern is a learned input/output shape with its track record.
type Pattern struct {
	ID                string         `json:"id"`
	InputSignature    string         `json:"input_signature"`
	OutputSignature   string         `json:"output_signature"`
	SuccessRate       float64        `json:"success_rate"`
	UsageCount        int            `json:"usage_count"`
	AvgConfidence     float64        `json:"avg_confidence"`
	ContextConditions map[string]any `json:"context_conditions"`
	LastUpdated       time.Time      `json:"last_updated"`
}

// Store persists learned patterns.
type Store struct {
	db *db.DB
}

// NewStore creates a pattern store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Insert adds a new pattern.
func (s *Store) Insert(ctx context.Context, p Pattern) error {
	if p.LastUpdated.IsZero() {
		p.LastUpdated = time.Now().UTC()
	}
	if p.ContextConditions == nil {
		p.ContextConditions = map[string]any{}
	}
	conditions, err := json.Marshal(p.ContextConditions)
	if err != nil {
		return fmt.Errorf("encoding context conditions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO learned_patterns
			(id, input_signature, output_signature, success_rate, usage_count, avg_confidence, context_conditions, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.InputSignature, p.OutputSignature, p.SuccessRate, p.UsageCount,
		p.AvgConfidence, string(conditions), p.LastUpdated.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("inserting pattern: %w", err)
	}
	return nil
}

// Get fetches a pattern by ID. Returns (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, id string) (*Pattern, error) {
	row := s.db.QueryRowContext(ctx, selectPattern+` WHERE id = ?`, id)
	p, err := scanPattern(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching pattern: %w", err)
	}
	return p, nil
}

// List returns all patterns ordered by ID, plus the number of rows
// skipped because their stored conditions no longer parse. A corrupt
// row must never take the engine down.
func (s *Store) List(ctx context.Context) ([]Pattern, int, error) {
	rows, err := s.db.QueryContext(ctx, selectPattern+` ORDER BY id`)
	if err != nil {
		return nil, 0, fmt.Errorf("querying patterns: %w", err)
	}
	defer rows.Close()

	var patterns []Pattern
	dropped := 0
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			if errors.Is(err, errMalformedPattern) {
				dropped++
				continue
			}
			return nil, dropped, fmt.Errorf("scanning pattern: %w", err)
		}
		patterns = append(patterns, *p)
	}
	return patterns, dropped, rows.Err()
}

// Count returns the number of learned patterns.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM learned_patterns`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting patterns: %w", err)
	}
	return n, nil
}

// RecordUsage bumps a pattern's usage count after it was applied.
func (s *Store) RecordUsage(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE learned_patterns
		SET usage_count = usage_count + 1, last_updated = ?
		WHERE id = ?`,
		time.Now().UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("recording pattern usage: %w", err)
	}
	return nil
}

var errMalformedPattern = errors.New("malformed pattern row")

const selectPattern = `
	SELECT id, input_signature, output_signature, success_rate, usage_count, avg_confidence, context_conditions, last_updated
	FROM learned_patterns`

type scanner interface {
	Scan(dest ...any) error
}

func scanPattern(row scanner) (*Pattern, error) {
	var p Pattern
	var conditions, lastUpdated string
	err := row.Scan(&p.ID, &p.InputSignature, &p.OutputSignature, &p.SuccessRate,
		&p.UsageCount, &p.AvgConfidence, &conditions, &lastUpdated)
	if err != nil {
		return nil, err
	}
	p.ContextConditions = map[string]any{}
	if err := json.Unmarshal([]byte(conditions), &p.ContextConditions); err != nil {
		return nil, errMalformedPattern
	}
	if t, err := time.Parse(timeLayout, lastUpdated); err == nil {
		p.LastUpdated = t
	}
	return &p, nil
}
