package response

import "github.com/gofiber/fiber/v2"

// Error codes
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeNotFound        = "NOT_FOUND"
	CodeRateLimited     = "RATE_LIMITED"
	CodeConflict        = "CONFLICT"
	CodeJobFailed       = "JOB_FAILED"
	CodeUpstreamError   = "UPSTREAM_ERROR"
	CodeNotConfigured   = "NOT_CONFIGURED"
	CodeServiceError    = "SERVICE_ERROR"
)

var statusByCode = map[string]int{
	CodeValidationError: fiber.StatusBadRequest,
	CodeUnauthorized:    fiber.StatusUnauthorized,
	CodeNotFound:        fiber.StatusNotFound,
	CodeRateLimited:     fiber.StatusTooManyRequests,
	CodeConflict:        fiber.StatusConflict,
	CodeJobFailed:       fiber.StatusBadGateway,
	CodeUpstreamError:   fiber.StatusBadGateway,
	CodeNotConfigured:   fiber.StatusServiceUnavailable,
	CodeServiceError:    fiber.StatusInternalServerError,
}

// Envelope is the body of every error response
type Envelope struct {
	Error Problem `json:"error"`
}

type Problem struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Status is the HTTP status sent for an error code
func Status(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

func Error(c *fiber.Ctx, status int, code, message string, details interface{}) error {
	return c.Status(status).JSON(Envelope{Error: Problem{Code: code, Message: message, Details: details}})
}

func write(c *fiber.Ctx, code, message string, details interface{}) error {
	return Error(c, Status(code), code, message, details)
}

func ValidationError(c *fiber.Ctx, message string, details interface{}) error {
	return write(c, CodeValidationError, message, details)
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return write(c, CodeUnauthorized, message, nil)
}

func NotFound(c *fiber.Ctx, message string) error {
	return write(c, CodeNotFound, message, nil)
}

func RateLimited(c *fiber.Ctx) error {
	return write(c, CodeRateLimited, "Rate limit exceeded", nil)
}

func Conflict(c *fiber.Ctx, message string) error {
	return write(c, CodeConflict, message, nil)
}

// JobFailed reports a job the generation API refused to start. details carries the errored job.
func JobFailed(c *fiber.Ctx, message string, details interface{}) error {
	return write(c, CodeJobFailed, message, details)
}

func UpstreamError(c *fiber.Ctx, message string) error {
	return write(c, CodeUpstreamError, message, nil)
}

func NotConfigured(c *fiber.Ctx, message string) error {
	return write(c, CodeNotConfigured, message, nil)
}

func ServiceError(c *fiber.Ctx, message string) error {
	return write(c, CodeServiceError, message, nil)
}

func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(data)
}

func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

// Accepted answers a request whose job continues in the background
func Accepted(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusAccepted).JSON(data)
}

func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}
