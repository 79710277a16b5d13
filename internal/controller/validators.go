package controller

import (
	"compliance_training_backend/internal/util"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators 让 gin 的绑定错误使用 json 字段名
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(util.JSONTagName)
		}
	})
}

func bindError(err error) *util.ValidationError {
	return util.FromValidator(err)
}
