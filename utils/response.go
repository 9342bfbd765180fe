package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, 0, "success", data)
}

// SuccessMsg is Success with a custom message.
func SuccessMsg(ctx *gin.Context, message string, data interface{}) {
	Respond(ctx, http.StatusOK, 0, message, data)
}

// Items wraps a list payload.
func Items(items interface{}) gin.H {
	return gin.H{"items": items}
}

// Item wraps a single payload.
func Item(item interface{}) gin.H {
	return gin.H{"item": item}
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// Fail writes err as an error response. Unexpected errors are logged and hidden behind a 500.
func Fail(ctx *gin.Context, err error) {
	appErr := AsAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		Logger.Error("request failed",
			zap.String("path", ctx.FullPath()),
			zap.Int("code", appErr.Code),
			zap.Error(err),
		)
	}
	Error(ctx, appErr.Status, appErr.Code, appErr.Message)
	ctx.Abort()
}
