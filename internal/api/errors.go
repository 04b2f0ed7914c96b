package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"marketplace-service/internal/service"
)

// requestError is a malformed or invalid request body.
type requestError struct {
	msg string
}

func (e *requestError) Error() string {
	return e.msg
}

func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr), errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorJSON writes err as {"error": "..."} with the status its kind maps to.
func errorJSON(c echo.Context, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg("request failed")
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}

// bindAndValidate decodes the body into req and runs the echo validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return &requestError{msg: "Invalid request payload"}
	}
	if err := c.Validate(req); err != nil {
		return &requestError{msg: validationMessage(err)}
	}
	return nil
}
