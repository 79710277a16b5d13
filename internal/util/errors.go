package util

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrModuleNotFound     = errors.New("module not found")
	ErrModuleNotAssigned  = errors.New("user is not assigned to this module")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrTrainingIncomplete = errors.New("training must be completed before generating certificate")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrValidation         = errors.New("validation failed")
)

// 错误类别，随响应返回给调用方
const (
	KindValidationFailed   = "ValidationFailed"
	KindNotFound           = "NotFound"
	KindNotAssigned        = "NotAssigned"
	KindDuplicateKey       = "DuplicateKey"
	KindPreconditionFailed = "PreconditionFailed"
	KindStorageUnavailable = "StorageUnavailable"
	KindUnauthorized       = "Unauthorized"
	KindInternal           = "Internal"
)

// DuplicateKeyError 唯一约束冲突，Field 为冲突字段
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 字段级校验错误
type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
