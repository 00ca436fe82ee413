package middleware

import (
	"context"
	"net/http"
	"strings"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/course-service/internal/core/domain"
)

// UserResolver turns a bearer token into a user.
type UserResolver interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	UserID(token string) (int64, error)
}

// SessionGuard protects handlers that need a signed-in user.
type SessionGuard struct {
	resolver    UserResolver
	isAuthError func(error) bool
}

// NewSessionGuard returns a guard backed by resolver. isAuthError separates
// "not signed in" from a failure to check; a nil isAuthError treats every
// resolver error as not signed in.
func NewSessionGuard(resolver UserResolver, isAuthError func(error) bool) *SessionGuard {
	if isAuthError == nil {
		isAuthError = func(error) bool { return true }
	}
	return &SessionGuard{resolver: resolver, isAuthError: isAuthError}
}

// Require wraps next so it only runs for a valid bearer token whose user still
// exists. Every auth rejection gets the same 401 body; resolver failures that
// are not auth errors get a 500.
func (g *SessionGuard) Require(next func(c *gin.Context, user domain.User)) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := StartSpan(c.Request.Context(), "auth.guard", trace.WithAttributes(
			attribute.String("layer", "web"),
		))

		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			span.SetAttributes(attribute.Bool("auth.present", false))
			span.End()
			unauthorized(c)
			return
		}

		user, err := g.resolver.Authenticate(ctx, token)
		if err != nil {
			span.RecordError(err)
			span.End()
			if !g.isAuthError(err) {
				pkgzerolog.FromContext(ctx).Error().Err(err).Msg("Session lookup failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
			pkgzerolog.FromContext(ctx).Warn().Err(err).Msg("Request rejected by session guard")
			unauthorized(c)
			return
		}
		span.End()

		next(c, *user)
	}
}

// OptionalUserID returns the id carried by a valid bearer token, or 0 when
// the header is missing or the token does not verify.
func (g *SessionGuard) OptionalUserID(c *gin.Context) int64 {
	token, ok := BearerToken(c.GetHeader("Authorization"))
	if !ok {
		return 0
	}
	id, err := g.resolver.UserID(token)
	if err != nil {
		return 0
	}
	return id
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
}
