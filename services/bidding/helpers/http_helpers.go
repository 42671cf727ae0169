package helpers

import (
	"errors"
	"net/http"

	"live-auction/internal/biddingerrors"
	"live-auction/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	utils.JSONError(c, http.StatusBadRequest, biddingerrors.KindValidationFailed, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to an HTTP status, a classification and a client-facing reason
func MapErrorToHTTP(err error) (int, string, string) {
	kind := biddingerrors.Kind(err)
	reason := biddingerrors.Reason(err)

	switch {
	case errors.Is(err, biddingerrors.ErrAuctionNotFound):
		return http.StatusNotFound, kind, reason
	case errors.Is(err, biddingerrors.ErrBidTooLow):
		return http.StatusConflict, kind, reason
	case errors.Is(err, biddingerrors.ErrValidationFailed):
		return http.StatusBadRequest, kind, reason
	case errors.Is(err, biddingerrors.ErrInvalidState), errors.Is(err, biddingerrors.ErrExpired):
		return http.StatusConflict, kind, reason
	default:
		return http.StatusInternalServerError, biddingerrors.KindInternal, "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
