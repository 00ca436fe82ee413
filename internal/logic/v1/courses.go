package v1

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/course-service/internal/core/domain"
	"github.com/duynhne/course-service/middleware"
)

// CompletionReward is the number of points credited for a first completion.
const CompletionReward = 100

// Rating bounds, inclusive.
const (
	MinRating = 1
	MaxRating = 5
)

// CourseService implements the completion and rating ledgers and the
// personalized course listing.
type CourseService struct {
	users       domain.UserRepository
	completions domain.CompletionRepository
	ratings     domain.RatingRepository
	catalog     domain.CourseCatalog
}

// NewCourseService creates a new CourseService.
func NewCourseService(
	users domain.UserRepository,
	completions domain.CompletionRepository,
	ratings domain.RatingRepository,
	catalog domain.CourseCatalog,
) *CourseService {
	return &CourseService{
		users:       users,
		completions: completions,
		ratings:     ratings,
		catalog:     catalog,
	}
}

// Complete marks courseID complete for user. The first call for a pair
// awards CompletionReward points; later calls change nothing and report
// Awarded=false.
func (s *CourseService) Complete(ctx context.Context, user domain.User, courseID string) (*domain.CompleteResult, error) {
	courseID = strings.TrimSpace(courseID)

	ctx, span := middleware.StartSpan(ctx, "courses.complete", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", strconv.FormatInt(user.ID, 10)),
		attribute.String("course.id", courseID),
	))
	defer span.End()

	if courseID == "" {
		return nil, validationError("course_id is required")
	}

	awarded, err := s.completions.Complete(ctx, user.ID, courseID, CompletionReward)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("record completion: %w", err)
	}

	result := &domain.CompleteResult{Awarded: awarded, User: user}
	if !awarded {
		span.SetAttributes(attribute.Bool("completion.awarded", false))
		courseCompletionsTotal.WithLabelValues("duplicate").Inc()
		return result, nil
	}

	refreshed, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("reload user %d: %w", user.ID, err)
	}
	if refreshed == nil {
		return nil, fmt.Errorf("reload user %d: %w", user.ID, ErrUserNotFound)
	}

	result.PointsAwarded = CompletionReward
	result.User = *refreshed

	span.SetAttributes(
		attribute.Bool("completion.awarded", true),
		attribute.Int("user.points", refreshed.Points),
	)
	span.AddEvent("course.completed")
	courseCompletionsTotal.WithLabelValues("awarded").Inc()

	return result, nil
}

// Rate stores user's rating for courseID, overwriting any previous one, and
// returns the course's updated aggregate.
func (s *CourseService) Rate(ctx context.Context, user domain.User, courseID string, rating int) (domain.Aggregate, error) {
	courseID = strings.TrimSpace(courseID)

	ctx, span := middleware.StartSpan(ctx, "courses.rate", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", strconv.FormatInt(user.ID, 10)),
		attribute.String("course.id", courseID),
		attribute.Int("rating", rating),
	))
	defer span.End()

	if courseID == "" {
		return domain.Aggregate{}, validationError("course_id is required")
	}
	if rating < MinRating || rating > MaxRating {
		return domain.Aggregate{}, validationError("rating must be between %d and %d", MinRating, MaxRating)
	}

	if err := s.ratings.Upsert(ctx, user.ID, courseID, rating); err != nil {
		span.RecordError(err)
		return domain.Aggregate{}, fmt.Errorf("save rating: %w", err)
	}
	courseRatingsTotal.Inc()

	agg, err := s.ratings.Aggregate(ctx, courseID)
	if err != nil {
		span.RecordError(err)
		return domain.Aggregate{}, fmt.Errorf("aggregate ratings: %w", err)
	}

	span.SetAttributes(attribute.Int("rating.count", agg.Count))
	return agg, nil
}

// Aggregate returns the rating summary of a course.
func (s *CourseService) Aggregate(ctx context.Context, courseID string) (domain.Aggregate, error) {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return domain.Aggregate{}, validationError("course_id is required")
	}

	ctx, span := middleware.StartSpan(ctx, "courses.aggregate", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("course.id", courseID),
	))
	defer span.End()

	agg, err := s.ratings.Aggregate(ctx, courseID)
	if err != nil {
		span.RecordError(err)
		return domain.Aggregate{}, fmt.Errorf("aggregate ratings: %w", err)
	}
	return agg, nil
}

// ListCourses returns the catalog merged with rating aggregates. When userID
// is non-zero each course also carries a "completed" flag for that user.
// An unreadable catalog produces an empty list rather than an error.
func (s *CourseService) ListCourses(ctx context.Context, userID int64) ([]domain.Course, error) {
	ctx, span := middleware.StartSpan(ctx, "courses.list", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Bool("personalized", userID != 0),
	))
	defer span.End()

	courses, err := s.catalog.Courses(ctx)
	if err != nil {
		span.RecordError(err)
		pkgzerolog.FromContext(ctx).Warn().Err(err).Msg("Course catalog unavailable")
		courses = nil
	}
	if courses == nil {
		courses = []domain.Course{}
	}

	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID())
	}

	aggs, err := s.ratings.AggregateMany(ctx, ids)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("aggregate ratings: %w", err)
	}

	var completed map[string]bool
	if userID != 0 {
		list, err := s.completions.ListByUser(ctx, userID)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("list completions: %w", err)
		}
		completed = make(map[string]bool, len(list))
		for _, c := range list {
			completed[c.CourseID] = true
		}
	}

	for _, c := range courses {
		agg := aggs[c.ID()]
		c["avg_rating"] = agg.Average
		c["rating_count"] = agg.Count
		if completed != nil {
			c["completed"] = completed[c.ID()]
		}
	}

	span.SetAttributes(attribute.Int("courses.count", len(courses)))
	return courses, nil
}

// Profile returns the user together with their completions and ratings.
func (s *CourseService) Profile(ctx context.Context, user domain.User) (*domain.Profile, error) {
	ctx, span := middleware.StartSpan(ctx, "courses.profile", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", strconv.FormatInt(user.ID, 10)),
	))
	defer span.End()

	completions, err := s.completions.ListByUser(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list completions: %w", err)
	}

	ratings, err := s.ratings.ListByUser(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list ratings: %w", err)
	}

	return &domain.Profile{User: user, Completions: completions, Ratings: ratings}, nil
}
