package util

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// JSONTagName 让校验错误使用 json 字段名
func JSONTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

var fieldLabels = map[string]string{
	"fullName":       "Full name",
	"email":          "Email",
	"employeeId":     "Employee ID",
	"department":     "Department",
	"score":          "Score",
	"totalQuestions": "Total questions",
	"recipient":      "Recipient",
}

func label(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return field
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return label(fe.Field()) + " is required"
	case "email":
		return "Please include a valid email"
	case "min", "gte":
		return label(fe.Field()) + " must be at least " + fe.Param()
	case "max", "lte":
		return label(fe.Field()) + " must be at most " + fe.Param()
	default:
		return label(fe.Field()) + " is invalid"
	}
}

// FromValidator 把 validator 的错误转换为 ValidationError；其他错误（如 JSON 格式错误）原样作为单条消息
func FromValidator(err error) *ValidationError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return NewValidationError("body", err.Error())
	}
	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.Fields = append(verr.Fields, FieldError{Field: fe.Field(), Message: validationMessage(fe)})
	}
	return verr
}
