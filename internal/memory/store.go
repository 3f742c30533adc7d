package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ziadkadry99/testmorph/internal/db"
	"github.com/ziadkadry99/testmorph/internal/strategy"
)

// ErrCaseNotFound is returned when feedback references an input hash
// that was never converted.
var ErrCaseNotFound = errors.New("conversion case not found")

// timeLayout keeps nanosecond precision and sorts lexicographically,
// so the created_at indexes order rows chronologically.
const timeLayout = "2006-01-02 15:04:05.000000000"

// Store provides access to conversion cases and strategy performance.
type Store struct {
	db *db.DB
}

// NewStore creates a store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Upsert records a conversion case. An existing case with the same
// input hash is overwritten entirely, including any feedback that
// referred to the previous output.
func (s *Store) Upsert(ctx context.Context, c Case) error {
	if c.InputHash == "" {
		c.InputHash = HashInput(c.InputCode)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.Context == nil {
		c.Context = map[string]any{}
	}

	contextJSON, err := json.Marshal(c.Context)
	if err != nil {
		return fmt.Errorf("encoding case context: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversion_cases
			(input_hash, input_code, output_code, strategy, success, confidence,
			 execution_time, context, pattern_id, feedback_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(input_hash) DO UPDATE SET
			input_code = excluded.input_code,
			output_code = excluded.output_code,
			strategy = excluded.strategy,
			success = excluded.success,
			confidence = excluded.confidence,
			execution_time = excluded.execution_time,
			context = excluded.context,
			pattern_id = excluded.pattern_id,
			feedback_score = excluded.feedback_score,
			created_at = excluded.created_at`,
		c.InputHash, c.InputCode, c.OutputCode, string(c.Strategy), boolToInt(c.Success),
		c.Confidence, c.ExecutionTime, string(contextJSON),
		nullString(c.PatternID), nullFloat(c.FeedbackScore), c.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("upserting conversion case: %w", err)
	}
	return nil
}

// Get fetches a case by input hash. Returns (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, inputHash string) (*Case, error) {
	row := s.db.QueryRowContext(ctx, selectCase+` WHERE input_hash = ?`, inputHash)
	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching conversion case: %w", err)
	}
	return c, nil
}

// Recent returns the newest cases, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Case, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectCase+`
		ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent cases: %w", err)
	}
	defer rows.Close()
	return scanCases(rows)
}

// RecentSuccessful returns successful cases ranked by confidence,
// with recency as the tie-break.
func (s *Store) RecentSuccessful(ctx context.Context, limit int) ([]Case, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectCase+`
		WHERE success = 1
		ORDER BY confidence DESC, created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying successful cases: %w", err)
	}
	defer rows.Close()
	return scanCases(rows)
}

// Count returns the total number of recorded cases.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversion_cases`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cases: %w", err)
	}
	return n, nil
}

// AttachFeedback stores a user rating (1-5) on an existing case.
func (s *Store) AttachFeedback(ctx context.Context, inputHash string, score float64) error {
	if score < 1 || score > 5 {
		return fmt.Errorf("feedback score %.1f out of range [1,5]", score)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE conversion_cases SET feedback_score = ? WHERE input_hash = ?`,
		score, inputHash)
	if err != nil {
		return fmt.Errorf("attaching feedback: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("attaching feedback: %w", err)
	}
	if affected == 0 {
		return ErrCaseNotFound
	}
	return nil
}

// UpdateStrategyPerformance folds one outcome into the running means
// for (strategy, context bucket). The whole read-modify-write happens
// in a single statement so concurrent conversions cannot lose updates.
func (s *Store) UpdateStrategyPerformance(ctx context.Context, strat strategy.Strategy, bucket string, success bool, confidence, executionTime float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO strategy_performance
			(strategy, context_bucket, attempts, successes, avg_confidence, avg_execution_time, last_updated)
		VALUES (?, ?, 1, ?, ?, ?, ?)
		ON CONFLICT(strategy, context_bucket) DO UPDATE SET
			attempts = attempts + 1,
			successes = successes + excluded.successes,
			avg_confidence = (avg_confidence * attempts + excluded.avg_confidence) / (attempts + 1),
			avg_execution_time = (avg_execution_time * attempts + excluded.avg_execution_time) / (attempts + 1),
			last_updated = excluded.last_updated`,
		string(strat), bucket, boolToInt(success), confidence, executionTime,
		time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("updating strategy performance: %w", err)
	}
	return nil
}

// StrategyPerformance lists all accumulated strategy rows in a stable
// order.
func (s *Store) StrategyPerformance(ctx context.Context) ([]StrategyStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT strategy, context_bucket, attempts, successes, avg_confidence, avg_execution_time, last_updated
		FROM strategy_performance
		ORDER BY strategy, context_bucket`)
	if err != nil {
		return nil, fmt.Errorf("querying strategy performance: %w", err)
	}
	defer rows.Close()

	var stats []StrategyStats
	for rows.Next() {
		var st StrategyStats
		var strat, lastUpdated string
		if err := rows.Scan(&strat, &st.ContextBucket, &st.Attempts, &st.Successes,
			&st.AvgConfidence, &st.AvgExecutionTime, &lastUpdated); err != nil {
			return nil, fmt.Errorf("scanning strategy performance: %w", err)
		}
		st.Strategy = strategy.Strategy(strat)
		st.LastUpdated = parseTime(lastUpdated)
		if st.Attempts > 0 {
			st.SuccessRate = float64(st.Successes) / float64(st.Attempts)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// Stats aggregates the full case table.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(success), 0),
		       COALESCE(AVG(confidence), 0),
		       COALESCE(AVG(execution_time), 0),
		       COUNT(feedback_score),
		       COALESCE(AVG(feedback_score), 0)
		FROM conversion_cases`).Scan(
		&st.TotalCases, &st.SuccessfulCases, &st.AvgConfidence,
		&st.AvgExecutionTime, &st.FeedbackCount, &st.AvgFeedback)
	if err != nil {
		return nil, fmt.Errorf("aggregating case stats: %w", err)
	}
	if st.TotalCases > 0 {
		st.SuccessRate = float64(st.SuccessfulCases) / float64(st.TotalCases)
	}
	return &st, nil
}

const selectCase = `
	SELECT input_hash, input_code, output_code, strategy, success, confidence,
	       execution_time, context, pattern_id, feedback_score, created_at
	FROM conversion_cases`

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCase(row scanner) (*Case, error) {
	var c Case
	var strat, contextJSON, createdAt string
	var success int
	var patternID sql.NullString
	var feedback sql.NullFloat64

	err := row.Scan(&c.InputHash, &c.InputCode, &c.OutputCode, &strat, &success,
		&c.Confidence, &c.ExecutionTime, &contextJSON, &patternID, &feedback, &createdAt)
	if err != nil {
		return nil, err
	}

	c.Strategy = strategy.Strategy(strat)
	c.Success = success != 0
	c.Context = map[string]any{}
	// A context blob that no longer parses should not poison reads.
	_ = json.Unmarshal([]byte(contextJSON), &c.Context)
	if patternID.Valid {
		c.PatternID = patternID.String
	}
	if feedback.Valid {
		score := feedback.Float64
		c.FeedbackScore = &score
	}
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

func scanCases(rows *sql.Rows) ([]Case, error) {
	var cases []Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning conversion case: %w", err)
		}
		cases = append(cases, *c)
	}
	return cases, rows.Err()
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	t, _ := time.Parse(time.DateTime, s)
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
