package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the body of every API response.
type Envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type ErrorData struct {
	Code string   `json:"code,omitempty"`
	Path []string `json:"path,omitempty"`
}

func RespondOK(c *gin.Context, message string, data any) {
	RespondStatus(c, http.StatusOK, message, data)
}

func RespondStatus(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Message: message, Data: data})
}

func RespondError(c *gin.Context, status int, code string, err error, path ...string) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, Envelope{
		Message: msg,
		Data:    ErrorData{Code: code, Path: path},
	})
}
