package controller

import (
	"compliance_training_backend/internal/config"
	"compliance_training_backend/internal/model"
	"compliance_training_backend/internal/service"
	"compliance_training_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	TrainingService *service.TrainingService
	Config          *config.Config
}

func NewAuthController(trainingService *service.TrainingService, cfg *config.Config) *AuthController {
	RegisterValidators()
	return &AuthController{
		TrainingService: trainingService,
		Config:          cfg,
	}
}

// LoginResponse 登录返回的用户记录与访问令牌
// swagger:model LoginResponse
type LoginResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Login godoc
// @Summary 员工登录
// @Description 按员工编号识别员工；首次登录时创建记录并分配培训模块，之后只更新资料与最后登录时间
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body service.AuthenticateRequest true "员工信息"
// @Success 200 {object} util.Response{data=LoginResponse} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 409 {object} util.Response "邮箱已被其他员工使用"
// @Failure 500 {object} util.Response "服务器内部错误"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req service.AuthenticateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleError(ctx, bindError(err))
		return
	}

	user, err := c.TrainingService.Authenticate(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	token, err := util.GenerateJWT(user, c.Config.JWT.Secret, c.Config.JWT.ExpireTime)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, LoginResponse{User: user, Token: token})
}

// GetUser godoc
// @Summary 获取员工记录
// @Tags 认证
// @Produce  json
// @Param   employeeId path string true "员工编号"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 404 {object} util.Response "员工不存在"
// @Router /auth/user/{employeeId} [get]
func (c *AuthController) GetUser(ctx *gin.Context) {
	user, err := c.TrainingService.GetUser(ctx.Request.Context(), ctx.Param("employeeId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}
