package api

import (
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/goliatone/go-campus"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

type errorBody struct {
	Category string         `json:"category"`
	TextCode string         `json:"text_code"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewErrorHandler renders every error as {"error": {...}} with the status
// carried by the *errors.Error. Internal failures are logged and replaced
// with a generic message.
func NewErrorHandler(logger campus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		richErr := toRichError(err)

		status := richErr.Code
		if status == 0 {
			status = http.StatusInternalServerError
		}

		body := errorBody{
			Category: fmt.Sprint(richErr.Category),
			TextCode: richErr.TextCode,
			Message:  richErr.Message,
		}

		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				"request_id", requestID(c),
				"method", c.Method(),
				"path", c.Path(),
				"error", err.Error(),
				"details", print.MaybePrettyJSON(richErr.Metadata),
			)
			body.Message = "An unexpected server error occurred"
		} else {
			logger.Debug("request rejected",
				"request_id", requestID(c),
				"path", c.Path(),
				"text_code", richErr.TextCode,
				"details", print.MaybePrettyJSON(richErr.Metadata),
			)
			if richErr.Category == errors.CategoryValidation || richErr.Category == errors.CategoryBadInput {
				body.Metadata = richErr.Metadata
			}
		}

		return c.Status(status).JSON(fiber.Map{"error": body})
	}
}

func toRichError(err error) *errors.Error {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberError(fiberErr)
	}

	return errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
		WithTextCode("INTERNAL_ERROR").
		WithCode(errors.CodeInternal)
}

func fiberError(err *fiber.Error) *errors.Error {
	switch err.Code {
	case fiber.StatusNotFound:
		return errors.New(err.Message, errors.CategoryNotFound).
			WithTextCode("ROUTE_NOT_FOUND").
			WithCode(err.Code)
	case fiber.StatusMethodNotAllowed:
		return errors.New(err.Message, errors.CategoryBadInput).
			WithTextCode("METHOD_NOT_ALLOWED").
			WithCode(err.Code)
	case fiber.StatusTooManyRequests:
		return errors.New(err.Message, errors.CategoryRateLimit).
			WithTextCode("RATE_LIMITED").
			WithCode(err.Code)
	}
	if err.Code < http.StatusInternalServerError {
		return errors.New(err.Message, errors.CategoryBadInput).
			WithTextCode(campus.TextCodeValidation).
			WithCode(err.Code)
	}
	return errors.New(err.Message, errors.CategoryInternal).
		WithTextCode("INTERNAL_ERROR").
		WithCode(err.Code)
}

// validationFailed converts ozzo-validation field errors into the
// validation sentinel with one metadata entry per field.
func validationFailed(err error) error {
	if err == nil {
		return nil
	}

	fields := map[string]any{}
	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			fields[field] = ferr.Error()
		}
	} else {
		fields["_"] = err.Error()
	}

	return campus.ErrValidation.Clone().WithMetadata(map[string]any{
		"fields": fields,
	})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok {
		return id
	}
	return ""
}
