package v1

import (
	"errors"
	"net/http"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/course-service/internal/core/domain"
	logicv1 "github.com/duynhne/course-service/internal/logic/v1"
	"github.com/duynhne/course-service/middleware"
)

// Handler groups HTTP handlers for the course API v1.
// Dependencies are injected via the constructor, no global state.
type Handler struct {
	auth    *logicv1.AuthService
	courses *logicv1.CourseService
	guard   *middleware.SessionGuard
}

// NewHandler creates a new Handler.
func NewHandler(auth *logicv1.AuthService, courses *logicv1.CourseService, guard *middleware.SessionGuard) *Handler {
	return &Handler{auth: auth, courses: courses, guard: guard}
}

// RegisterRoutes registers all API v1 routes on the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/register", h.Register)
	rg.POST("/auth/login", h.Login)
	rg.GET("/auth/me", h.guard.Require(h.GetMe))

	rg.GET("/courses", h.ListCourses)
	rg.POST("/courses/complete", h.guard.Require(h.CompleteCourse))
	rg.POST("/courses/rate", h.guard.Require(h.RateCourse))
	rg.GET("/courses/:id/rating", h.GetRating)
}

func startSpan(c *gin.Context) (trace.Span, *zerolog.Logger) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.FullPath()),
	))
	c.Request = c.Request.WithContext(ctx)
	return span, pkgzerolog.FromContext(ctx)
}

// writeError maps a logic error to a status code and a client-safe message.
func writeError(c *gin.Context, logger *zerolog.Logger, err error, msg string) {
	switch {
	case errors.Is(err, logicv1.ErrValidation):
		logger.Warn().Err(err).Msg(msg)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, logicv1.ErrUserExists):
		logger.Warn().Err(err).Msg(msg)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username or email already exists"})
	case errors.Is(err, logicv1.ErrInvalidCredentials):
		logger.Warn().Err(err).Msg(msg)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, logicv1.ErrUnauthenticated), errors.Is(err, logicv1.ErrUserNotFound):
		logger.Warn().Err(err).Msg(msg)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	default:
		logger.Error().Err(err).Msg(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func bindJSON(c *gin.Context, span trace.Span, logger *zerolog.Logger, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		span.RecordError(err)
		logger.Warn().Err(err).Msg("Invalid request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return false
	}
	span.SetAttributes(attribute.Bool("request.valid", true))
	return true
}

// Register handles POST /api/v1/auth/register.
func (h *Handler) Register(c *gin.Context) {
	span, logger := startSpan(c)
	defer span.End()

	var req domain.RegisterRequest
	if !bindJSON(c, span, logger, &req) {
		return
	}

	response, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		span.RecordError(err)
		writeError(c, logger, err, "Registration failed")
		return
	}

	logger.Info().Int64("user_id", response.User.ID).Msg("Registration successful")
	c.JSON(http.StatusOK, response)
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(c *gin.Context) {
	span, logger := startSpan(c)
	defer span.End()

	var req domain.LoginRequest
	if !bindJSON(c, span, logger, &req) {
		return
	}

	response, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		span.RecordError(err)
		writeError(c, logger, err, "Login failed")
		return
	}

	logger.Info().Int64("user_id", response.User.ID).Msg("Login successful")
	c.JSON(http.StatusOK, response)
}

// GetMe handles GET /api/v1/auth/me.
func (h *Handler) GetMe(c *gin.Context, user domain.User) {
	span, logger := startSpan(c)
	defer span.End()

	profile, err := h.courses.Profile(c.Request.Context(), user)
	if err != nil {
		span.RecordError(err)
		writeError(c, logger, err, "Profile lookup failed")
		return
	}

	c.JSON(http.StatusOK, profile)
}

// ListCourses handles GET /api/v1/courses. A valid bearer token adds the
// caller's completion flags; anything else yields the anonymous listing.
func (h *Handler) ListCourses(c *gin.Context) {
	span, logger := startSpan(c)
	defer span.End()

	userID := h.guard.OptionalUserID(c)
	span.SetAttributes(attribute.Bool("auth.present", userID != 0))

	courses, err := h.courses.ListCourses(c.Request.Context(), userID)
	if err != nil {
		span.RecordError(err)
		writeError(c, logger, err, "Course listing failed")
		return
	}

	c.JSON(http.StatusOK, courses)
}

// CompleteCourse handles POST /api/v1/courses/complete.
func (h *Handler) CompleteCourse(c *gin.Context, user domain.User) {
	span, logger := startSpan(c)
	defer span.End()

	var req domain.CompleteRequest
	if !bindJSON(c, span, logger, &req) {
		return
	}

	result, err := h.courses.Complete(c.Request.Context(), user, req.CourseID)
	if err != nil {
		span.RecordError(err)
		writeError(c, logger, err, "Course completion failed")
		return
	}

	message := "Course completed"
	if !result.Awarded {
		message = "Already completed"
	}
	logger.Info().
		Int64("user_id", user.ID).
		Str("course_id", req.CourseID).
		Bool("awarded", result.Awarded).
		Msg(message)

	c.JSON(http.StatusOK, gin.H{
		"message":        message,
		"awarded":        result.Awarded,
		"points_awarded": result.PointsAwarded,
		"user":           result.User,
	})
}

// RateCourse handles POST /api/v1/courses/rate.
func (h *Handler) RateCourse(c *gin.Context, user domain.User) {
	span, logger := startSpan(c)
	defer span.End()

	var req domain.RateRequest
	if !bindJSON(c, span, logger, &req) {
		return
	}

	agg, err := h.courses.Rate(c.Request.Context(), user, req.CourseID, req.Rating)
	if err != nil {
		span.RecordError(err)
		writeError(c, logger, err, "Rating failed")
		return
	}

	logger.Info().
		Int64("user_id", user.ID).
		Str("course_id", req.CourseID).
		Int("rating", req.Rating).
		Msg("Rating saved")

	c.JSON(http.StatusOK, gin.H{
		"message": "Rating saved",
		"average": agg.Average,
		"count":   agg.Count,
	})
}

// GetRating handles GET /api/v1/courses/:id/rating.
func (h *Handler) GetRating(c *gin.Context) {
	span, logger := startSpan(c)
	defer span.End()

	courseID := c.Param("id")
	span.SetAttributes(attribute.String("course.id", courseID))

	agg, err := h.courses.Aggregate(c.Request.Context(), courseID)
	if err != nil {
		span.RecordError(err)
		writeError(c, logger, err, "Rating lookup failed")
		return
	}

	c.JSON(http.StatusOK, agg)
}
