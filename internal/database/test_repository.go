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

// TestRepository handles database operations for tests
type TestRepository struct {
	db *sqlx.DB
}

// NewTestRepository creates a new repository instance
func NewTestRepository(db *sqlx.DB) *TestRepository {
	return &TestRepository{db: db}
}

// GetByID returns a test by ID, or nil if it doesn't exist
func (r *TestRepository) GetByID(ctx context.Context, id string) (*models.Test, error) {
	var test models.Test
	err := r.db.GetContext(ctx, &test, r.db.Rebind("SELECT * FROM tests WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	return &test, nil
}

// GetByTitle returns a test by its title, or nil if it doesn't exist
func (r *TestRepository) GetByTitle(ctx context.Context, title string) (*models.Test, error) {
	var test models.Test
	err := r.db.GetContext(ctx, &test, r.db.Rebind("SELECT * FROM tests WHERE title = ?"), title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	return &test, nil
}

// GetByIDs returns the tests that exist among ids, keyed by ID
func (r *TestRepository) GetByIDs(ctx context.Context, ids []string) (map[string]models.Test, error) {
	out := make(map[string]models.Test, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In("SELECT * FROM tests WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build tests query: %w", err)
	}
	var tests []models.Test
	if err := r.db.SelectContext(ctx, &tests, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get tests: %w", err)
	}
	for _, t := range tests {
		out[t.ID] = t
	}
	return out, nil
}

// GetAll returns all tests ordered by title
func (r *TestRepository) GetAll(ctx context.Context) ([]models.Test, error) {
	var tests []models.Test
	if err := r.db.SelectContext(ctx, &tests, "SELECT * FROM tests ORDER BY title"); err != nil {
		return nil, fmt.Errorf("failed to get tests: %w", err)
	}
	return tests, nil
}

// Create inserts a new test
func (r *TestRepository) Create(ctx context.Context, test *models.Test) error {
	if test.CreatedAt.IsZero() {
		test.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO tests (id, title, type, pass_score, total_questions, created_at)
		VALUES (:id, :title, :type, :pass_score, :total_questions, :created_at)
	`, test)
	if err != nil {
		return fmt.Errorf("failed to create test: %w", err)
	}
	return nil
}

// SyncTotalQuestions sets total_questions to the number of stored questions
func (r *TestRepository) SyncTotalQuestions(ctx context.Context, testID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind("SELECT COUNT(*) FROM questions WHERE test_id = ?"), testID); err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind("UPDATE tests SET total_questions = ? WHERE id = ?"), count, testID); err != nil {
		return 0, fmt.Errorf("failed to update test: %w", err)
	}
	return count, nil
}
