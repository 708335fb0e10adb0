package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"storefront/internal/domain"
)

var errRouteNotFound = errors.New("route not found")

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// forbiddenError carries the safe reason a token was refused.
type forbiddenError struct {
	reason error
}

func (e *forbiddenError) Error() string { return e.reason.Error() }
func (e *forbiddenError) Unwrap() error { return domain.ErrForbidden }

// writeError maps service errors to a status and a client safe body. Only
// server side failures are logged with detail.
func writeError(c *gin.Context, err error) {
	status, body := classify(err)
	logger := zerolog.Ctx(c.Request.Context())
	switch {
	case status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable:
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	case status == http.StatusServiceUnavailable:
		logger.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("store conflict retries exhausted")
	}
	c.JSON(status, body)
}

func classify(err error) (int, errorBody) {
	var forbidden *forbiddenError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, errorBody{Error: "invalid_input", Message: err.Error()}
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusBadRequest, errorBody{Error: "empty_cart", Message: "No items in the cart"}
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, errorBody{Error: "unauthenticated", Message: "You need to login to access this page"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "Invalid credentials"}
	case errors.As(err, &forbidden):
		return http.StatusForbidden, errorBody{Error: "forbidden", Message: forbidden.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorBody{Error: "forbidden", Message: "forbidden"}
	case errors.Is(err, errRouteNotFound):
		return http.StatusNotFound, errorBody{Error: "not_found", Message: "route not found"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "not_found", Message: err.Error()}
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, errorBody{Error: "conflict", Message: "Email already exists"}
	case errors.Is(err, domain.ErrTransientConflict):
		return http.StatusServiceUnavailable, errorBody{Error: "transient_conflict", Message: "The store is busy, please retry"}
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal server error"}
	}
}
