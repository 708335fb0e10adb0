package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

type userIDCtxKey struct{}

// UserIDFromContext returns the authenticated user id stored by the auth
// middleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDCtxKey{}).(string)
	return id, ok && id != ""
}

// requestLogger tags each request with an id, attaches a logger carrying it to
// the request context and emits one line per request.
func requestLogger(logger zerolog.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" || len(reqID) > 128 {
			reqID = uuid.NewString()
		}
		c.Header(requestIDHeader, reqID)

		l := logger.With().Str("request_id", reqID).Logger()
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		m.ObserveHTTP(c.Request.Method, route, status, elapsed)

		ev := l.Info()
		switch {
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("latency", elapsed).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

func recoverHandler(c *gin.Context, recovered any) {
	zerolog.Ctx(c.Request.Context()).Error().Interface("panic", recovered).Msg("handler panicked")
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal server error"})
}

// authMiddleware admits requests carrying a valid bearer token. A missing
// credential is 401, a credential that fails verification is 403.
func authMiddleware(tokens tokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			writeError(c, domain.ErrUnauthenticated)
			c.Abort()
			return
		}
		userID, err := tokens.Verify(raw)
		if err != nil {
			reason := auth.ErrTokenInvalid
			if errors.Is(err, auth.ErrTokenExpired) {
				reason = auth.ErrTokenExpired
			}
			zerolog.Ctx(c.Request.Context()).Debug().Err(err).Msg("token rejected")
			writeError(c, &forbiddenError{reason: reason})
			c.Abort()
			return
		}
		ctx := context.WithValue(c.Request.Context(), userIDCtxKey{}, userID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// mustUserID is used by handlers mounted behind authMiddleware.
func mustUserID(c *gin.Context) string {
	id, _ := UserIDFromContext(c.Request.Context())
	return id
}
