package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/artisan/pkg/errors"
)

// ErrorBody is the payload written for failed requests. The storefront client
// reads the "error" field as the user visible message.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// MessageBody acknowledges operations that have no resource to return.
type MessageBody struct {
	Message string `json:"message"`
}

// Success writes data as the bare JSON response body.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// Message writes a {"message": ...} acknowledgement.
func Message(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, MessageBody{Message: message})
}

// Error writes a JSON error response derived from an AppError.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.JSON(status, ErrorBody{
		Error: appErr.Message,
		Code:  appErr.Code,
	})
}
