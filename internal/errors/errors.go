package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"

	// Planning errors
	ErrCodeInvalidOperation = "INVALID_OPERATION"
	ErrCodeCyclicDependency = "CYCLIC_DEPENDENCY"
	ErrCodeUnschedulable    = "UNSCHEDULABLE"

	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// defaultMessages is used when a helper is called with an empty message
var defaultMessages = map[string]string{
	ErrCodeUnauthorized:       "Authentication required",
	ErrCodeForbidden:          "Access denied",
	ErrCodeInvalidInput:       "Invalid request",
	ErrCodeNotFound:           "Resource not found",
	ErrCodeConflict:           "Resource conflict",
	ErrCodeInvalidOperation:   "Operation not allowed in the current state",
	ErrCodeCyclicDependency:   "Task dependencies form a cycle",
	ErrCodeUnschedulable:      "Task cannot be scheduled",
	ErrCodeRateLimited:        "Too many requests",
	ErrCodeInternalError:      "Internal server error",
	ErrCodeServiceUnavailable: "Service temporarily unavailable",
}

// APIError represents a standardized API error response
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates an APIError, falling back to the default message of the code
func NewAPIError(code, message string, details interface{}) *APIError {
	if message == "" {
		message = defaultMessages[code]
	}
	return &APIError{Code: code, Message: message, Details: details}
}

// Respond writes err with the given status and aborts the handler chain
func Respond(c *gin.Context, status int, err *APIError) {
	c.AbortWithStatusJSON(status, err)
}

func respond(c *gin.Context, status int, code, message string) {
	Respond(c, status, NewAPIError(code, message, nil))
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	respond(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	respond(c, http.StatusForbidden, ErrCodeForbidden, message)
}

// NotFound sends a 404 response. Resources outside the caller's products are
// reported this way too.
func NotFound(c *gin.Context, message string) {
	respond(c, http.StatusNotFound, ErrCodeNotFound, message)
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, ErrCodeInvalidInput, message)
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	respond(c, http.StatusConflict, ErrCodeConflict, message)
}

// CyclicDependency sends a 409 response naming the task IDs of the cycle
func CyclicDependency(c *gin.Context, message string, cycle []uint64) {
	Respond(c, http.StatusConflict, NewAPIError(ErrCodeCyclicDependency, message, gin.H{"cycle": cycle}))
}

// Unprocessable sends a 422 response for input that parsed but violates a
// planning rule, e.g. a worklog on a story
func Unprocessable(c *gin.Context, message string) {
	respond(c, http.StatusUnprocessableEntity, ErrCodeInvalidOperation, message)
}

// Unschedulable sends a 422 response when no calendar can fit a task
func Unschedulable(c *gin.Context, message string) {
	respond(c, http.StatusUnprocessableEntity, ErrCodeUnschedulable, message)
}

// TooManyRequests sends a 429 response
func TooManyRequests(c *gin.Context, message string) {
	respond(c, http.StatusTooManyRequests, ErrCodeRateLimited, message)
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	respond(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// ServiceUnavailable sends a 503 response
func ServiceUnavailable(c *gin.Context, message string) {
	respond(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message)
}
