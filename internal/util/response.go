package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the data payload of a successful API reply.
type Response map[string]interface{}

// Business error codes.
const (
	CodeOK                = 0
	CodeInvalidParam      = 40001
	CodeInsufficientFunds = 40002
	CodeAuth              = 40101
	CodeNotFound          = 40401
	CodeServerErr         = 50001
)

// Success writes the unified success envelope.
func Success(c *gin.Context, data Response) {
	c.JSON(http.StatusOK, gin.H{
		"code": CodeOK,
		"data": data,
	})
}

// Error writes the unified error envelope.
func Error(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
	})
}

// ErrorData writes the error envelope with extra detail fields, e.g. the
// shortfall amount of a rejected expense.
func ErrorData(c *gin.Context, httpStatus int, code int, msg string, data Response) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
		"data":    data,
	})
}
