package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/audfs/creator-node/internal/domain"
	"github.com/audfs/creator-node/internal/logger"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	errCodeBadRequest       ErrorCode = "bad_request"
	errCodeNotFound         ErrorCode = "not_found"
	errCodeValidationFailed ErrorCode = "validation_failed"
	errCodeUnauthorized     ErrorCode = "unauthorized"
	errCodeForbidden        ErrorCode = "forbidden"
	errCodeWalletLocked     ErrorCode = "wallet_locked"
	errCodeClockConflict    ErrorCode = "clock_conflict"
	errCodeSyncMismatch     ErrorCode = "sync_mismatch"
	errCodeBadRange         ErrorCode = "range_not_satisfiable"

	// Server errors (5xx)
	errCodeInternalError ErrorCode = "internal_error"
	errCodeUpstreamError ErrorCode = "upstream_error"
)

// errorResponse represents a standardized error response
type errorResponse struct {
	Error errorDetail `json:"error"`
}

// errorDetail contains error information
type errorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...string) {
	response := errorResponse{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	}

	if len(details) > 0 {
		response.Error.Details = details[0]
	}

	c.JSON(statusCode, response)
}

// respondBadRequest sends a 400 Bad Request response
func respondBadRequest(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusBadRequest, errCodeBadRequest, message, details...)
}

// respondNotFound sends a 404 Not Found response
func respondNotFound(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusNotFound, errCodeNotFound, message, details...)
}

// respondForbidden sends a 403 Forbidden response
func respondForbidden(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusForbidden, errCodeForbidden, message, details...)
}

// respondValidationError sends a 400 Bad Request with validation error
func respondValidationError(c *gin.Context, details string) {
	respondWithError(c, http.StatusBadRequest, errCodeValidationFailed, "Validation failed", details)
}

// respondInternalError sends a 500 Internal Server Error response and logs the error
func respondInternalError(c *gin.Context, err error, message string, fields ...zap.Field) {
	logger.Error(err, fields...)
	respondWithError(c, http.StatusInternalServerError, errCodeInternalError, message)
}

// respondDomainError maps a domain sentinel to its HTTP status. Client
// faults echo the error text; internal faults are logged and answered with
// a generic message.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRange):
		respondWithError(c, http.StatusBadRequest, errCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		respondWithError(c, http.StatusBadRequest, errCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondWithError(c, http.StatusNotFound, errCodeNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		respondWithError(c, http.StatusForbidden, errCodeForbidden, err.Error())
	case errors.Is(err, domain.ErrLocked):
		respondWithError(c, http.StatusLocked, errCodeWalletLocked, err.Error())
	case errors.Is(err, domain.ErrRangeNotSatisfiable):
		respondWithError(c, http.StatusRequestedRangeNotSatisfiable, errCodeBadRange, err.Error())
	case errors.Is(err, domain.ErrClockConflict):
		respondWithError(c, http.StatusConflict, errCodeClockConflict, err.Error())
	case errors.Is(err, domain.ErrRegression), errors.Is(err, domain.ErrNonContiguous):
		// Refused imports must be visible to operators; the message names
		// the clocks involved.
		respondWithError(c, http.StatusConflict, errCodeSyncMismatch, err.Error())
	case errors.Is(err, domain.ErrUpstream):
		logger.Error(err, zap.String("path", c.Request.URL.Path))
		respondWithError(c, http.StatusInternalServerError, errCodeUpstreamError, "Upstream fetch failed")
	default:
		respondInternalError(c, err, "Internal server error", zap.String("path", c.Request.URL.Path))
	}
}
