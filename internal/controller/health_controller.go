package controller

import (
	"compliance_training_backend/internal/service"
	"compliance_training_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthController struct {
	Selector service.StoreSelector
}

func NewHealthController(selector service.StoreSelector) *HealthController {
	return &HealthController{Selector: selector}
}

// @Summary 健康检查
// @Description 检查服务状态以及当前使用的存储后端
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	store := c.Selector.Select(ctx.Request.Context())

	util.Success(ctx, gin.H{
		"status":    "ok",
		"backend":   store.Backend(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
