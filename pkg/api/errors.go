package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NeoOne601/ventro/pkg/apperrors"
)

// respondError maps err onto apperrors' closed Kind taxonomy and writes the
// matching HTTP status and ErrorResponse body. An err that is not an
// *apperrors.Error is treated as an unexpected internal failure and logged,
// mirroring the teacher's mapServiceError.
func respondError(c *gin.Context, err error) {
	if appErr, ok := apperrors.As(err); ok {
		c.JSON(appErr.HTTPStatus(), ErrorResponse{
			Kind:    appErr.Kind.String(),
			Message: appErr.Message,
			Reason:  appErr.Reason,
		})
		return
	}

	slog.Error("unexpected api error", "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Kind:    "fatal_error",
		Message: "internal server error",
	})
}
