package util

import (
	"compliance_training_backend/pkg/logger"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Kind    string       `json:"kind,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func KindError(c *gin.Context, code int, kind, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Kind:    kind,
	})
}

func Unauthorized(c *gin.Context) {
	KindError(c, http.StatusUnauthorized, KindUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	KindError(c, http.StatusBadRequest, KindValidationFailed, message)
}

func ValidationFailed(c *gin.Context, fields []FieldError) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    http.StatusBadRequest,
		Message: "Validation Error",
		Kind:    KindValidationFailed,
		Errors:  fields,
	})
}

func NotFound(c *gin.Context) {
	KindError(c, http.StatusNotFound, KindNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	KindError(c, http.StatusInternalServerError, KindInternal, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	InternalServerError(c)
}

// HandleError 把业务错误映射为稳定的状态码与错误类别；未知错误一律 500
func HandleError(c *gin.Context, err error) {
	var verr *ValidationError
	var dup *DuplicateKeyError
	switch {
	case errors.As(err, &verr):
		ValidationFailed(c, verr.Fields)
	case errors.As(err, &dup):
		KindError(c, http.StatusConflict, KindDuplicateKey, dup.Error())
	case errors.Is(err, ErrUserNotFound):
		KindError(c, http.StatusNotFound, KindNotFound, "User not found")
	case errors.Is(err, ErrModuleNotFound):
		KindError(c, http.StatusNotFound, KindNotFound, "Module not found")
	case errors.Is(err, ErrModuleNotAssigned):
		KindError(c, http.StatusForbidden, KindNotAssigned, ErrModuleNotAssigned.Error())
	case errors.Is(err, ErrTrainingIncomplete):
		KindError(c, http.StatusBadRequest, KindPreconditionFailed, ErrTrainingIncomplete.Error())
	case errors.Is(err, ErrStorageUnavailable):
		logger.Log.Warn("storage unavailable", zap.String("path", c.FullPath()), zap.Error(err))
		KindError(c, http.StatusServiceUnavailable, KindStorageUnavailable, "Storage temporarily unavailable")
	default:
		LogInternalError(c, err)
	}
}
