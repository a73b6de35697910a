package apperror

const (
	// Client errors (4xx)
	CodeInvalidInput = "INVALID_INPUT"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInvalidState = "INVALID_STATE"
	CodeRateLimited  = "RATE_LIMITED"

	// Server errors (5xx)
	CodeInternalError      = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// permanentCodes are business-rule failures that will not succeed on retry.
var permanentCodes = map[string]bool{
	CodeInvalidInput: true,
	CodeNotFound:     true,
	CodeConflict:     true,
	CodeInvalidState: true,
}
