package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/anonto42/campus-notices/backend/internal/apperrors"
	"github.com/anonto42/campus-notices/backend/internal/middleware"
	"github.com/anonto42/campus-notices/backend/internal/validators"
	"github.com/anonto42/campus-notices/backend/pkg/logger"
)

type errorResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Errors  []apperrors.FieldError `json:"errors,omitempty"`
}

// NewHTTPErrorHandler renders every error as the failure envelope.
// Unclassified errors are reported and hidden behind a generic 500.
func NewHTTPErrorHandler(log logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		res := errorResponse{Message: http.StatusText(http.StatusInternalServerError)}

		switch origErr := errors.Cause(err).(type) {
		case *apperrors.Error:
			code = origErr.Kind.Status()
			switch origErr.Kind {
			case apperrors.KindInternal:
				reportError(log, c, err)
			case apperrors.KindUnavailable:
				log.Warn(origErr.Message, err)
				res.Message = origErr.Message
			default:
				res.Message = origErr.Message
				res.Errors = origErr.Fields
			}
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			res.Message = fmt.Sprint(origErr.Message)
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			res.Message = "validation failed"
			for _, vErr := range origErr {
				res.Errors = append(res.Errors, apperrors.FieldError{
					Field: vErr.Field(),
					Error: vErr.Translate(validators.Translator),
				})
			}
		default:
			reportError(log, c, err)
		}

		if c.Response().Committed {
			return
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, res)
		}
		if err != nil {
			c.Echo().Logger.Error(err)
		}
	}
}

func reportError(log logger.Logger, c echo.Context, err error) {
	msg := http.StatusText(http.StatusInternalServerError)
	if actor := middleware.ActorFrom(c); actor != nil {
		log.Error(msg, errors.Wrap(err, c.Path()), actor)
		return
	}
	log.Error(msg, errors.Wrap(err, c.Path()))
}
