package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/ieltsprep/pkg/models"
)

// TestResultRepository handles database operations for test results
type TestResultRepository struct {
	db *sqlx.DB
}

// NewTestResultRepository creates a new repository instance
func NewTestResultRepository(db *sqlx.DB) *TestResultRepository {
	return &TestResultRepository{db: db}
}

// GetByID returns a test result by ID, or nil if it doesn't exist
func (r *TestResultRepository) GetByID(ctx context.Context, id string) (*models.TestResult, error) {
	var result models.TestResult
	err := r.db.GetContext(ctx, &result, r.db.Rebind("SELECT * FROM test_results WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get test result: %w", err)
	}
	return &result, nil
}

// GetByUserID returns all test results for a user, oldest first
func (r *TestResultRepository) GetByUserID(ctx context.Context, userID string) ([]models.TestResult, error) {
	var results []models.TestResult
	err := r.db.SelectContext(ctx, &results,
		r.db.Rebind("SELECT * FROM test_results WHERE user_id = ? ORDER BY completed_at, id"), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get test results: %w", err)
	}
	return results, nil
}

// Create inserts a new test result as a single row
func (r *TestResultRepository) Create(ctx context.Context, result *models.TestResult) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO test_results (
			id, user_id, test_id, answers, correct_answers, wrong_answers,
			skipped_answers, score, is_passed, time_spent, started_at, completed_at,
			teacher_feedback, graded_by, graded_at
		) VALUES (
			:id, :user_id, :test_id, :answers, :correct_answers, :wrong_answers,
			:skipped_answers, :score, :is_passed, :time_spent, :started_at, :completed_at,
			:teacher_feedback, :graded_by, :graded_at
		)
	`, result)
	if err != nil {
		return fmt.Errorf("failed to create test result: %w", err)
	}
	return nil
}

// UpdateGrade stores a manual grade for an existing result
func (r *TestResultRepository) UpdateGrade(ctx context.Context, result *models.TestResult) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE test_results SET
			score = :score,
			is_passed = :is_passed,
			teacher_feedback = :teacher_feedback,
			graded_by = :graded_by,
			graded_at = :graded_at
		WHERE id = :id
	`, result)
	if err != nil {
		return fmt.Errorf("failed to update test result: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("test result %s not found", result.ID)
	}
	return nil
}
