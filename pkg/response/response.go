package response

import (
	"log"

	"github.com/gin-gonic/gin"
)

// Response represents a standard API response
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success sends a successful response
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error sends an error response, logging the underlying cause when present
func Error(c *gin.Context, code int, message string, err error) {
	if err != nil {
		log.Printf("[%s] %s: %v", c.Request.Method+" "+c.Request.URL.Path, message, err)
	}
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}
