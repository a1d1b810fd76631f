package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"rncflow/internal/bootstrap/logging"
	"rncflow/internal/errs"
)

type errorResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

func statusOf(kind errs.Kind) int {
	switch kind {
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindInvalidState, errs.KindConflict:
		return http.StatusConflict
	case errs.KindInvalidReference, errs.KindMissingRequiredFile, errs.KindTooManyFiles, errs.KindUnsupportedFileType:
		return http.StatusUnprocessableEntity
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindUnauthorized:
		return http.StatusUnauthorized
	case errs.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// errorHandler renders classified errors with their kind; anything
// unclassified becomes an opaque 500.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	ctx := logging.WithComponent(c.Request().Context(), component)

	status := http.StatusInternalServerError
	body := errorResponse{Error: string(errs.KindInternal), Message: http.StatusText(http.StatusInternalServerError)}

	var he *echo.HTTPError
	if e, ok := errs.As(err); ok {
		status = statusOf(e.Kind)
		body = errorResponse{Error: string(e.Kind), Message: e.Error(), Expected: e.Expected, Actual: e.Actual}
		if status == http.StatusInternalServerError {
			body.Message = http.StatusText(status)
		}
	} else if errors.As(err, &he) {
		status = he.Code
		body = errorResponse{Error: errorCode(he.Code), Message: http.StatusText(he.Code)}
		if msg, ok := he.Message.(string); ok && msg != "" {
			body.Message = msg
		}
	}

	attrs := []slog.Attr{
		slog.String("method", c.Request().Method),
		slog.String("path", c.Path()),
		slog.Int("status", status),
		slog.Any("err", errs.Loggable(err)),
	}
	if status >= http.StatusInternalServerError {
		logging.Error(ctx, "request failed", attrs...)
	} else {
		logging.Debug(ctx, "request rejected", attrs...)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		logging.Warn(ctx, "write error response failed", slog.Any("err", errs.Loggable(err)))
	}
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(errs.KindValidation)
	case http.StatusUnauthorized:
		return string(errs.KindUnauthorized)
	case http.StatusForbidden:
		return string(errs.KindForbidden)
	case http.StatusNotFound:
		return string(errs.KindNotFound)
	case http.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case http.StatusServiceUnavailable:
		return "timeout"
	default:
		if status >= http.StatusInternalServerError {
			return string(errs.KindInternal)
		}
		return "http_error"
	}
}
