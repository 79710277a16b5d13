package controller

import (
	"compliance_training_backend/internal/service"
	"compliance_training_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ModuleController struct {
	TrainingService *service.TrainingService
}

func NewModuleController(trainingService *service.TrainingService) *ModuleController {
	return &ModuleController{TrainingService: trainingService}
}

// ListModules godoc
// @Summary 员工的培训模块列表
// @Description 按分配顺序返回模块内容与进度；员工尚未登录过时按分配规则预览
// @Tags 模块
// @Produce  json
// @Param   employeeId path string true "员工编号"
// @Success 200 {object} util.Response{data=[]service.ModuleView} "成功"
// @Failure 503 {object} util.Response "存储不可用"
// @Router /modules/{employeeId} [get]
func (c *ModuleController) ListModules(ctx *gin.Context) {
	views, err := c.TrainingService.ListAssignedModules(ctx.Request.Context(), ctx.Param("employeeId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, views)
}

// GetModule godoc
// @Summary 单个培训模块
// @Tags 模块
// @Produce  json
// @Param   employeeId path string true "员工编号"
// @Param   moduleId path string true "模块ID"
// @Success 200 {object} util.Response{data=service.ModuleDetail} "成功"
// @Failure 403 {object} util.Response "模块未分配给该员工"
// @Failure 404 {object} util.Response "模块不存在"
// @Router /modules/{employeeId}/{moduleId} [get]
func (c *ModuleController) GetModule(ctx *gin.Context) {
	detail, err := c.TrainingService.GetModule(ctx.Request.Context(), ctx.Param("employeeId"), ctx.Param("moduleId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}
