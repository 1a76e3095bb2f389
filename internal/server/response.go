package server

import (
	"github.com/gin-gonic/gin"
)

// ErrorDetail locates one invalid input.
type ErrorDetail struct {
	Path string `json:"path"`
	Info string `json:"info"`
}

// ErrorResponse is the JSON body of every error answer.
type ErrorResponse struct {
	Error   string        `json:"error"`
	Details []ErrorDetail `json:"details,omitempty"`
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}

func abortWithDetails(c *gin.Context, status int, message string, details []ErrorDetail) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Details: details})
}
