package controller

import (
	"compliance_training_backend/internal/service"
	"compliance_training_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	AuditService *service.AuditService
}

func NewAdminController(auditService *service.AuditService) *AdminController {
	return &AdminController{AuditService: auditService}
}

// ListEmailResults godoc
// @Summary 最近的成绩邮件记录
// @Tags 管理员
// @Produce  json
// @Security ApiKeyAuth
// @Param   limit query int false "条数（默认 50，最多 500）"
// @Success 200 {object} util.Response{data=[]service.EmailResultsEntry} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Failure 403 {object} util.Response "非管理员"
// @Router /admin/email-results [get]
func (c *AdminController) ListEmailResults(ctx *gin.Context) {
	limit, _ := strconv.ParseInt(ctx.DefaultQuery("limit", "50"), 10, 64)

	entries, err := c.AuditService.RecentEmailResults(ctx.Request.Context(), limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, entries)
}
