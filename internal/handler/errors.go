package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/placenote/internal/apperr"
	"github.com/iliyamo/placenote/internal/service"
	"github.com/iliyamo/placenote/internal/token"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps err onto a status code and a stable error code.  Store
// and unexpected failures are logged; their details never reach the client.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	status, body := classify(err)
	switch {
	case status >= http.StatusInternalServerError:
		log.Error("request failed",
			zap.String("route", c.Path()), zap.Int("status", status), zap.Error(err))
	default:
		log.Debug("request rejected",
			zap.String("route", c.Path()), zap.Int("status", status), zap.Error(err))
	}
	return c.JSON(status, body)
}

func classify(err error) (int, errorBody) {
	var verr *apperr.ValidationError
	var terr *token.Error
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorBody{Error: validationCode(verr.Kind), Field: verr.Field}
	case errors.As(err, &terr):
		return http.StatusUnauthorized, errorBody{Error: "unauthorized"}
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorBody{Error: "invalid_credentials"}
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized, errorBody{Error: "unauthorized"}
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "not_found"}
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, errorBody{Error: "conflict"}
	case errors.Is(err, apperr.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, errorBody{Error: "store_unavailable"}
	}
	return http.StatusInternalServerError, errorBody{Error: "internal"}
}

func validationCode(kind error) string {
	switch {
	case errors.Is(kind, apperr.ErrInvalidCoordinate):
		return "invalid_coordinate"
	case errors.Is(kind, apperr.ErrMissingField):
		return "missing_field"
	}
	return "invalid_parameter"
}
