package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/ieltsprep/pkg/models"
)

// MergeFunc receives the stored profile (nil when the user has none yet) and
// returns the profile to write back.
type MergeFunc func(current *models.Progress) (*models.Progress, error)

// ProgressRepository handles database operations for progress profiles
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a new repository instance
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// GetByUserID returns the profile of a user, or nil if there is none
func (r *ProgressRepository) GetByUserID(ctx context.Context, userID string) (*models.Progress, error) {
	var p models.Progress
	err := r.db.GetContext(ctx, &p, r.db.Rebind("SELECT * FROM progress WHERE user_id = ?"), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return &p, nil
}

// Upsert reads, merges and writes the profile of userID in one transaction.
// On Postgres the transaction also holds an advisory lock on the user so
// concurrent writers from other processes queue up behind it.
func (r *ProgressRepository) Upsert(ctx context.Context, userID string, merge MergeFunc) (*models.Progress, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if r.db.DriverName() == DriverPostgres {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", userID); err != nil {
			return nil, fmt.Errorf("failed to lock progress: %w", err)
		}
	}

	var stored models.Progress
	var current *models.Progress
	err = tx.GetContext(ctx, &stored, tx.Rebind("SELECT * FROM progress WHERE user_id = ?"), userID)
	switch {
	case err == nil:
		current = &stored
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	next, err := merge(current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, fmt.Errorf("merge returned no progress for user %s", userID)
	}

	now := time.Now().UTC()
	next.UserID = userID
	if next.CreatedAt.IsZero() {
		next.CreatedAt = now
	}
	next.UpdatedAt = now

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO progress (
			user_id, overall_band_score, total_tests_completed, total_time_spent,
			skills_progress, strengths, weaknesses, study_streak, last_study_date,
			target_score, progress_to_target, created_at, updated_at
		) VALUES (
			:user_id, :overall_band_score, :total_tests_completed, :total_time_spent,
			:skills_progress, :strengths, :weaknesses, :study_streak, :last_study_date,
			:target_score, :progress_to_target, :created_at, :updated_at
		)
		ON CONFLICT (user_id) DO UPDATE SET
			overall_band_score = EXCLUDED.overall_band_score,
			total_tests_completed = EXCLUDED.total_tests_completed,
			total_time_spent = EXCLUDED.total_time_spent,
			skills_progress = EXCLUDED.skills_progress,
			strengths = EXCLUDED.strengths,
			weaknesses = EXCLUDED.weaknesses,
			study_streak = EXCLUDED.study_streak,
			last_study_date = EXCLUDED.last_study_date,
			target_score = EXCLUDED.target_score,
			progress_to_target = EXCLUDED.progress_to_target,
			updated_at = EXCLUDED.updated_at
	`, next)
	if err != nil {
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit progress: %w", err)
	}
	return next, nil
}

// GetStudiedBetween returns profiles whose last study time falls in [from, to)
func (r *ProgressRepository) GetStudiedBetween(ctx context.Context, from, to time.Time) ([]models.Progress, error) {
	var profiles []models.Progress
	err := r.db.SelectContext(ctx, &profiles, r.db.Rebind(`
		SELECT * FROM progress
		WHERE last_study_date >= ? AND last_study_date < ? AND study_streak > 0
		ORDER BY user_id
	`), from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return profiles, nil
}
