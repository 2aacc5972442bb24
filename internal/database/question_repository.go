package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/ieltsprep/pkg/models"
)

// QuestionRepository handles database operations for questions
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository creates a new repository instance
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// GetByTestID returns the questions of a test in position order
func (r *QuestionRepository) GetByTestID(ctx context.Context, testID string) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.SelectContext(ctx, &questions,
		r.db.Rebind("SELECT * FROM questions WHERE test_id = ? ORDER BY position, id"), testID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	return questions, nil
}

// Create inserts a new question
func (r *QuestionRepository) Create(ctx context.Context, q *models.Question) error {
	if q.Points <= 0 {
		q.Points = 1
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO questions (id, test_id, type, prompt, options, correct_answer, points, position)
		VALUES (:id, :test_id, :type, :prompt, :options, :correct_answer, :points, :position)
	`, q)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

// NextPosition returns the position after the last question of a test
func (r *QuestionRepository) NextPosition(ctx context.Context, testID string) (int, error) {
	var pos int
	err := r.db.GetContext(ctx, &pos,
		r.db.Rebind("SELECT COALESCE(MAX(position), 0) + 1 FROM questions WHERE test_id = ?"), testID)
	if err != nil {
		return 0, fmt.Errorf("failed to get next position: %w", err)
	}
	return pos, nil
}
