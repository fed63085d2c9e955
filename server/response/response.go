package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// JSON writes the standard response envelope. A non-nil err has its message
// surfaced in the errors field; data rides alongside it either way.
func JSON(c *gin.Context, message string, status int, data interface{}, err error) {
	errMessage := ""
	if err != nil {
		errMessage = err.Error()
	}

	responsedata := gin.H{
		"message":   message,
		"data":      data,
		"errors":    errMessage,
		"status":    http.StatusText(status),
		"timestamp": time.Now().Format(time.RFC3339),
	}

	c.JSON(status, responsedata)
}
