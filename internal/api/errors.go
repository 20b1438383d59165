package api

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"chatrag/internal/domain"
)

// Error is the JSON body of every failed request.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (e Error) Error() string {
	return e.Message
}

func NewError(code int, msg string) Error {
	return Error{Code: code, Message: msg}
}

func ErrBadRequest() Error {
	return NewError(http.StatusBadRequest, "invalid JSON request")
}

// ValidationError carries per-field validator failures.
type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func NewValidationError(errs map[string]string) ValidationError {
	return ValidationError{
		Status: http.StatusUnprocessableEntity,
		Errors: errs,
	}
}

func (e ValidationError) Error() string {
	return "validation failed"
}

// ErrorHandler maps service errors onto HTTP responses.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var verr ValidationError
	if errors.As(err, &verr) {
		return c.Status(verr.Status).JSON(verr)
	}

	var apiErr Error
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Code).JSON(apiErr)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(NewError(fiberErr.Code, fiberErr.Message))
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		code = http.StatusBadRequest
	case errors.Is(err, domain.ErrLLMUnavailable):
		code = http.StatusBadGateway
	}
	return c.Status(code).JSON(NewError(code, err.Error()))
}
