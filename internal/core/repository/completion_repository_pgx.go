package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/duynhne/course-service/internal/core/domain"
)

var errAlreadyCompleted = errors.New("completion already recorded")

// PgxCompletionRepository implements domain.CompletionRepository on PostgreSQL.
type PgxCompletionRepository struct {
	db Pool
}

// NewCompletionRepository creates a new PgxCompletionRepository.
func NewCompletionRepository(db Pool) *PgxCompletionRepository {
	return &PgxCompletionRepository{db: db}
}

// Complete inserts the (user, course) completion if absent and, in the same
// transaction, credits reward points. Concurrent duplicates block on the
// unique index and then fall into the no-op branch.
func (r *PgxCompletionRepository) Complete(ctx context.Context, userID int64, courseID string, reward int) (bool, error) {
	insert := `INSERT INTO completions (user_id, course_id) VALUES ($1, $2)
		ON CONFLICT (user_id, course_id) DO NOTHING
		RETURNING id`
	credit := `UPDATE users SET points = points + $1 WHERE id = $2`

	err := WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var id int64
		if err := tx.QueryRow(ctx, insert, userID, courseID).Scan(&id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
				return errAlreadyCompleted
			}
			return fmt.Errorf("insert completion: %w", err)
		}

		tag, err := tx.Exec(ctx, credit, reward, userID)
		if err != nil {
			return fmt.Errorf("credit points: %w", err)
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("credit points: user %d not updated", userID)
		}
		return nil
	})
	if errors.Is(err, errAlreadyCompleted) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// ListByUser returns the user's completions, oldest first.
func (r *PgxCompletionRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Completion, error) {
	query := `SELECT id, user_id, course_id, completed_at FROM completions WHERE user_id = $1 ORDER BY completed_at, id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("select completions: %w", err)
	}
	defer rows.Close()

	completions := []domain.Completion{}
	for rows.Next() {
		var c domain.Completion
		if err := rows.Scan(&c.ID, &c.UserID, &c.CourseID, &c.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, c)
	}

	return completions, rows.Err()
}
