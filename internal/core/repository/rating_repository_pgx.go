package repository

import (
	"context"
	"fmt"

	"github.com/duynhne/course-service/internal/core/domain"
)

// PgxRatingRepository implements domain.RatingRepository on PostgreSQL.
type PgxRatingRepository struct {
	db DBTX
}

// NewRatingRepository creates a new PgxRatingRepository.
func NewRatingRepository(db DBTX) *PgxRatingRepository {
	return &PgxRatingRepository{db: db}
}

// Upsert writes the rating in a single statement so concurrent re-rates of
// the same pair never produce a second row.
func (r *PgxRatingRepository) Upsert(ctx context.Context, userID int64, courseID string, rating int) error {
	query := `INSERT INTO ratings (user_id, course_id, rating) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, course_id)
		DO UPDATE SET rating = EXCLUDED.rating, created_at = CURRENT_TIMESTAMP`

	if _, err := r.db.Exec(ctx, query, userID, courseID, rating); err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

// Aggregate returns the average and count of a course's ratings.
func (r *PgxRatingRepository) Aggregate(ctx context.Context, courseID string) (domain.Aggregate, error) {
	query := `SELECT AVG(rating)::float8, COUNT(*) FROM ratings WHERE course_id = $1`

	var (
		avg   *float64
		count int64
	)
	if err := r.db.QueryRow(ctx, query, courseID).Scan(&avg, &count); err != nil {
		return domain.Aggregate{}, fmt.Errorf("aggregate ratings: %w", err)
	}

	return domain.Aggregate{Average: avg, Count: int(count)}, nil
}

// AggregateMany computes aggregates for several courses in one query.
func (r *PgxRatingRepository) AggregateMany(ctx context.Context, courseIDs []string) (map[string]domain.Aggregate, error) {
	out := make(map[string]domain.Aggregate, len(courseIDs))
	if len(courseIDs) == 0 {
		return out, nil
	}

	query := `SELECT course_id, AVG(rating)::float8, COUNT(*) FROM ratings
		WHERE course_id = ANY($1)
		GROUP BY course_id`

	rows, err := r.db.Query(ctx, query, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("aggregate ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			courseID string
			avg      float64
			count    int64
		)
		if err := rows.Scan(&courseID, &avg, &count); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		out[courseID] = domain.Aggregate{Average: &avg, Count: int(count)}
	}

	return out, rows.Err()
}

// ListByUser returns the ratings given by a user.
func (r *PgxRatingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Rating, error) {
	query := `SELECT id, user_id, course_id, rating, created_at FROM ratings WHERE user_id = $1 ORDER BY id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("select ratings: %w", err)
	}
	defer rows.Close()

	ratings := []domain.Rating{}
	for rows.Next() {
		var rt domain.Rating
		if err := rows.Scan(&rt.ID, &rt.UserID, &rt.CourseID, &rt.Rating, &rt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, rt)
	}

	return ratings, rows.Err()
}
