package utils

import (
	"errors"
	"net/http"

	"skillswap/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Response unified response envelope
type Response struct {
	Code      int         `json:"code"`                 // 0 on success, the http status otherwise
	ErrorCode string      `json:"error_code,omitempty"` // stable service error code
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
}

// SuccessResponse 200 with data
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 200 with a custom message
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse error envelope with the given http status
func ErrorResponse(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, Response{
		Code:    httpStatus,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, message)
}

func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, message)
}

func NotFound(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, message)
}

func Conflict(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusConflict, message)
}

func InternalServerError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, message)
}

// ValidationError 400 carrying the VALIDATION_ERROR code
func ValidationError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:      http.StatusBadRequest,
		ErrorCode: service.CodeValidation,
		Message:   message,
	})
}

// HTTPStatus http status for a service error code
func HTTPStatus(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeInvalidState, service.CodeConcurrencyConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorFromService writes err with the status matching its code.
// Internal details are logged, never returned to the client.
func ErrorFromService(c *gin.Context, err error) {
	code := service.ErrorCode(err)
	status := HTTPStatus(code)

	message := "internal server error"
	var appErr *service.AppError
	if errors.As(err, &appErr) && code != service.CodeInternal {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}

	c.JSON(status, Response{
		Code:      status,
		ErrorCode: code,
		Message:   message,
	})
}
