package controller

import (
	"compliance_training_backend/internal/service"
	"compliance_training_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	TrainingService *service.TrainingService
	AuditService    *service.AuditService
}

func NewUserController(trainingService *service.TrainingService, auditService *service.AuditService) *UserController {
	RegisterValidators()
	return &UserController{
		TrainingService: trainingService,
		AuditService:    auditService,
	}
}

// CompletionRequest 测验结果；字段为指针以区分 0 与缺失
type CompletionRequest struct {
	Score          *int `json:"score" binding:"required"`
	TotalQuestions *int `json:"totalQuestions" binding:"required"`
}

// CompleteModule godoc
// @Summary 提交模块测验结果
// @Description 记录分数并重新计算总分；重复提交会覆盖该模块之前的结果
// @Tags 员工
// @Accept  json
// @Produce  json
// @Param   employeeId path string true "员工编号"
// @Param   moduleId path string true "模块ID"
// @Param   body body CompletionRequest true "测验结果"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 403 {object} util.Response "模块未分配给该员工"
// @Failure 404 {object} util.Response "员工不存在"
// @Router /users/{employeeId}/module/{moduleId}/complete [put]
func (c *UserController) CompleteModule(ctx *gin.Context) {
	var req CompletionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleError(ctx, bindError(err))
		return
	}

	user, err := c.TrainingService.SubmitCompletion(ctx.Request.Context(),
		ctx.Param("employeeId"), ctx.Param("moduleId"), *req.Score, *req.TotalQuestions)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// GenerateCertificate godoc
// @Summary 标记证书已生成
// @Tags 员工
// @Produce  json
// @Param   employeeId path string true "员工编号"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 400 {object} util.Response "培训尚未完成"
// @Failure 404 {object} util.Response "员工不存在"
// @Router /users/{employeeId}/certificate [put]
func (c *UserController) GenerateCertificate(ctx *gin.Context) {
	user, err := c.TrainingService.IssueCertificate(ctx.Request.Context(), ctx.Param("employeeId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// GetProgress godoc
// @Summary 培训进度汇总
// @Tags 员工
// @Produce  json
// @Param   employeeId path string true "员工编号"
// @Success 200 {object} util.Response{data=model.Progress} "成功"
// @Failure 404 {object} util.Response "员工不存在"
// @Router /users/{employeeId}/progress [get]
func (c *UserController) GetProgress(ctx *gin.Context) {
	progress, err := c.TrainingService.GetProgress(ctx.Request.Context(), ctx.Param("employeeId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// EmailResults godoc
// @Summary 记录成绩邮件发送情况
// @Tags 员工
// @Accept  json
// @Produce  json
// @Param   employeeId path string true "员工编号"
// @Param   body body service.EmailResultsRequest true "邮件信息"
// @Success 200 {object} util.Response{data=service.EmailResultsEntry} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "员工不存在"
// @Router /users/{employeeId}/email-results [post]
func (c *UserController) EmailResults(ctx *gin.Context) {
	var req service.EmailResultsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleError(ctx, bindError(err))
		return
	}

	entry, err := c.AuditService.LogEmailResults(ctx.Request.Context(), ctx.Param("employeeId"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, entry)
}
