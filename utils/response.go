package utils

import (
	"github.com/gin-gonic/gin"
)

// JSONResponse sends a structured JSON response
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

// JSONError sends a structured error response. kind is the stable classification
// a client can switch on, message the reason it can show.
func JSONError(c *gin.Context, status int, kind string, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"error":   kind,
	})
}
