package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-assessment/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondServiceError maps a service error through apierr and attaches the
// original error to the gin context for the request logger.
func RespondServiceError(c *gin.Context, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	_ = c.Error(err)
	ae := apierr.FromDomain(err)
	c.AbortWithStatusJSON(ae.Status, ErrorEnvelope{
		Error: APIError{
			Message: ae.PublicMessage(),
			Code:    ae.Code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
