package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// APIResponse is the uniform envelope for every handler output.
type APIResponse[T any] struct {
	Status    int         `json:"statusCode"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      T           `json:"data,omitempty"`
	Error     interface{} `json:"error,omitempty"`
}

// Success writes a success envelope with the given status on both the wire
// and the envelope.
func Success[T any](ctx *gin.Context, status int, data T, message string) APIResponse[T] {
	return SuccessAs(ctx, status, status, data, message)
}

// SuccessAs writes httpStatus on the wire while bodyStatus goes into the
// envelope. Registration responds 201 with a 200 envelope; existing clients
// pin the envelope value.
func SuccessAs[T any](ctx *gin.Context, httpStatus, bodyStatus int, data T, message string) APIResponse[T] {
	if bodyStatus == 0 {
		bodyStatus = http.StatusOK
	}
	resp := APIResponse[T]{
		Status:    bodyStatus,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
	}
	ctx.JSON(httpStatus, resp)
	return resp
}

// Error writes an error envelope. details is optional structured context
// (e.g. per-field validation messages); internal causes never belong here.
func Error[T any](ctx *gin.Context, status int, message string, details interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	resp := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     details,
	}
	ctx.JSON(status, resp)
	return resp
}
