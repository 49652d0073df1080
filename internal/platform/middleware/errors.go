package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/paging"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
)

// HTTPError maps an error returned by a handler to its HTTP form. Store
// failures become an opaque 500.
func HTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	switch {
	case errors.Is(err, records.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, records.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, records.ErrInvalidInput),
		errors.Is(err, records.ErrInvalidIdentifier),
		errors.Is(err, paging.ErrInvalidLimit):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "request timed out")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}

// ErrorHandler renders every handler error as {"message": ..., "request_id": ...}.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		he := HTTPError(err)
		if he.Code >= http.StatusInternalServerError && he.Internal == nil {
			logger.Error().Err(err).
				Str("request_id", requestID(c)).
				Str("route", routeLabel(c)).
				Msg("request failed")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(he.Code)
		} else {
			werr = c.JSON(he.Code, echo.Map{"message": he.Message, "request_id": requestID(c)})
		}
		if werr != nil {
			logger.Warn().Err(werr).Msg("writing error response")
		}
	}
}
