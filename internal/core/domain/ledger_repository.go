package domain

import (
	"context"
	"time"
)

// Completion records that a user finished a course. Rows are never updated.
type Completion struct {
	ID          int64     `json:"-"`
	UserID      int64     `json:"-"`
	CourseID    string    `json:"course_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// Rating is a user's live score for a course.
type Rating struct {
	ID        int64     `json:"-"`
	UserID    int64     `json:"-"`
	CourseID  string    `json:"course_id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"-"`
}

// Aggregate is the derived rating summary of a course.
// Average is nil when Count is zero.
type Aggregate struct {
	Average *float64 `json:"average"`
	Count   int      `json:"count"`
}

// CompletionRepository persists course completions.
type CompletionRepository interface {
	// Complete records the completion and credits reward points to the user
	// in one transaction. It reports false, without touching points, when the
	// pair was already completed.
	Complete(ctx context.Context, userID int64, courseID string, reward int) (bool, error)

	// ListByUser returns the user's completions ordered by completion time.
	ListByUser(ctx context.Context, userID int64) ([]Completion, error)
}

// RatingRepository persists ratings and computes per-course aggregates.
type RatingRepository interface {
	// Upsert inserts the rating or overwrites the existing one for the pair,
	// refreshing its timestamp.
	Upsert(ctx context.Context, userID int64, courseID string, rating int) error

	// Aggregate returns average and count over all ratings of a course.
	Aggregate(ctx context.Context, courseID string) (Aggregate, error)

	// AggregateMany returns aggregates keyed by course id. Courses without
	// ratings are absent from the map.
	AggregateMany(ctx context.Context, courseIDs []string) (map[string]Aggregate, error)

	// ListByUser returns the ratings given by a user.
	ListByUser(ctx context.Context, userID int64) ([]Rating, error)
}
