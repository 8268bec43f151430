package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/example/studytrack/internal/logger"
	"github.com/example/studytrack/internal/study"
)

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid "+headerUserID+" header")
	errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "not found")
	errBadTopicID   = echo.NewHTTPError(http.StatusBadRequest, "invalid topic id")
)

// newHTTPErrorHandler maps service errors to HTTP responses
func newHTTPErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Tag()
			}
			code = http.StatusBadRequest
			message = fldErrs
		default:
			switch cause {
			case study.ErrNotFound:
				code = http.StatusNotFound
				message = errHttpNotFound.Message
			case study.ErrInvalidSchedule, study.ErrEmptyTitle:
				code = http.StatusBadRequest
				message = cause.Error()
			case study.ErrTopicCompleted:
				code = http.StatusConflict
				message = cause.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				message = http.StatusText(http.StatusInternalServerError)
				log.Error("request failed",
					"method", ctx.Request().Method,
					"path", ctx.Path(),
					"user_id", contextUserID(ctx),
					"error", err,
				)
			}
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead {
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				log.Error("failed to write error response", "error", err)
			}
		}
	}
}
