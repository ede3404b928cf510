package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/gin-gonic/gin"
)

// statusFor maps a service error to its HTTP status and public message.
// Unknown errors become a bare 500.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, common.ErrValidation.Error()
	case errors.Is(err, common.ErrInvalidUpdateFields):
		return http.StatusBadRequest, common.ErrInvalidUpdateFields.Error()
	case errors.Is(err, common.ErrDuplicateEmail):
		return http.StatusConflict, common.ErrDuplicateEmail.Error()
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, common.ErrInvalidCredentials.Error()
	case errors.Is(err, common.ErrorUnauthenticated):
		return http.StatusUnauthorized, common.ErrorUnauthenticated.Error()
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, common.ErrorNotFound.Error()
	default:
		return http.StatusInternalServerError, common.ErrorInternal.Error()
	}
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}

	body := gin.H{"error": msg}
	var ve *common.ValidationError
	if errors.As(err, &ve) && ve.HasErrors() {
		body["fields"] = ve.Fields
	}
	c.AbortWithStatusJSON(status, body)
}

// badRequest reports a body or query that could not be decoded at all.
func (s *Server) badRequest(c *gin.Context, field, msg string) {
	s.abortWithError(c, common.NewValidationError(field, msg))
}
