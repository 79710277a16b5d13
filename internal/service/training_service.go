package service

import (
	"compliance_training_backend/internal/catalog"
	"compliance_training_backend/internal/model"
	"compliance_training_backend/internal/repository"
	"compliance_training_backend/internal/util"
	"compliance_training_backend/pkg/logger"
	"compliance_training_backend/pkg/monitoring"
	"compliance_training_backend/pkg/tracing"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// StoreSelector 每个请求选择一次存储后端
type StoreSelector interface {
	Select(ctx context.Context) repository.UserStore
}

// AuthenticateRequest 登录请求字段（按员工编号识别，无密码）
// 校验在去除首尾空白之后由 TrainingService 完成，因此不使用 binding 标签
type AuthenticateRequest struct {
	FullName   string `json:"fullName" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	EmployeeID string `json:"employeeId" validate:"required,max=64"`
	Department string `json:"department" validate:"required"`
}

// ModuleView 模块定义 + 当前用户进度
type ModuleView struct {
	catalog.ModuleDefinition
	Completed      bool       `json:"completed"`
	Score          int        `json:"score"`
	TotalQuestions int        `json:"totalQuestions"`
	Percentage     int        `json:"percentage"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// ModuleProgress 单个模块的进度
type ModuleProgress struct {
	Completed      bool       `json:"completed"`
	Score          int        `json:"score"`
	TotalQuestions int        `json:"totalQuestions"`
	Percentage     int        `json:"percentage"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

type ModuleDetail struct {
	Module   catalog.ModuleDefinition `json:"module"`
	Progress *ModuleProgress          `json:"progress"`
}

type TrainingService struct {
	Catalog  *catalog.Catalog
	Selector StoreSelector

	resolver atomic.Pointer[AssignmentResolver]
	locks    *util.KeyedMutex
	validate *validator.Validate
	now      func() time.Time
}

func NewTrainingService(cat *catalog.Catalog, resolver *AssignmentResolver, selector StoreSelector) *TrainingService {
	v := validator.New()
	v.RegisterTagNameFunc(util.JSONTagName)

	s := &TrainingService{
		Catalog:  cat,
		Selector: selector,
		locks:    util.NewKeyedMutex(),
		validate: v,
		now:      time.Now,
	}
	s.resolver.Store(resolver)
	return s
}

// SetResolver 配置热加载后替换分配规则，只影响之后新建的记录
func (s *TrainingService) SetResolver(r *AssignmentResolver) {
	s.resolver.Store(r)
}

func (s *TrainingService) Resolver() *AssignmentResolver {
	return s.resolver.Load()
}

func (s *TrainingService) normalize(req AuthenticateRequest) (AuthenticateRequest, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	req.Department = strings.TrimSpace(req.Department)

	verr := &util.ValidationError{}
	if err := s.validate.Struct(req); err != nil {
		verr = util.FromValidator(err)
	}
	if req.Department != "" && !model.IsValidDepartment(req.Department) {
		verr.Fields = append(verr.Fields, util.FieldError{Field: "department", Message: "Department is not valid"})
	}
	if len(verr.Fields) > 0 {
		return req, verr
	}
	return req, nil
}

// Authenticate 首次登录创建记录并分配模块；之后只更新资料与最后登录时间
func (s *TrainingService) Authenticate(ctx context.Context, req AuthenticateRequest) (*model.User, error) {
	ctx, span := tracing.Start(ctx, "TrainingService.Authenticate")
	defer span.End()

	req, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("employee.id", req.EmployeeID))

	unlock := s.locks.Lock(req.EmployeeID)
	defer unlock()

	store := s.Selector.Select(ctx)
	now := s.now()

	_, err = store.FindByEmployeeID(ctx, req.EmployeeID)
	switch {
	case err == nil:
		return store.UpdateProfile(ctx, req.EmployeeID, repository.ProfileUpdate{
			FullName:   req.FullName,
			Email:      req.Email,
			Department: model.Department(req.Department),
			LastLogin:  now,
		})
	case errors.Is(err, util.ErrUserNotFound):
		user := s.newUserRecord(req, now)
		created, err := store.Create(ctx, user)
		if err != nil {
			return nil, err
		}
		logger.Log.Info("user record created",
			zap.String("employeeId", created.EmployeeID),
			zap.String("backend", string(store.Backend())),
			zap.Int("modules", len(created.AssignedModules)))
		return created, nil
	default:
		return nil, err
	}
}

func (s *TrainingService) newUserRecord(req AuthenticateRequest, now time.Time) *model.User {
	resolver := s.Resolver()
	assignments := resolver.Resolve(req.EmployeeID)

	lastLogin := now
	user := &model.User{
		EmployeeID:      req.EmployeeID,
		FullName:        req.FullName,
		Email:           req.Email,
		Department:      model.Department(req.Department),
		AdminLevel:      model.AdminNone,
		LastLogin:       &lastLogin,
		AssignedModules: make([]model.AssignedModule, 0, len(assignments)),
	}
	if resolver.IsAdmin(req.EmployeeID) {
		user.IsAdmin = true
		user.AdminLevel = model.AdminFull
	}
	for _, a := range assignments {
		user.AssignedModules = append(user.AssignedModules, model.AssignedModule{
			ModuleID:   a.ModuleID,
			ModuleName: a.ModuleName,
		})
	}
	return user
}

func (s *TrainingService) GetUser(ctx context.Context, employeeID string) (*model.User, error) {
	return s.Selector.Select(ctx).FindByEmployeeID(ctx, employeeID)
}

// assignmentsFor 已有记录时以记录为准；没有记录时按规则预览
func (s *TrainingService) assignmentsFor(ctx context.Context, employeeID string) ([]model.AssignedModule, bool, error) {
	user, err := s.GetUser(ctx, employeeID)
	if err == nil {
		return user.AssignedModules, true, nil
	}
	if !errors.Is(err, util.ErrUserNotFound) {
		return nil, false, err
	}

	preview := s.Resolver().Resolve(employeeID)
	modules := make([]model.AssignedModule, 0, len(preview))
	for _, a := range preview {
		modules = append(modules, model.AssignedModule{ModuleID: a.ModuleID, ModuleName: a.ModuleName})
	}
	return modules, false, nil
}

func (s *TrainingService) definitionFor(am model.AssignedModule) catalog.ModuleDefinition {
	if def, ok := s.Catalog.Get(am.ModuleID); ok {
		return def
	}
	// 目录中已移除的模块，只保留快照信息
	return catalog.ModuleDefinition{ID: am.ModuleID, Name: am.ModuleName}
}

// ListAssignedModules 按分配顺序返回模块详情及进度
func (s *TrainingService) ListAssignedModules(ctx context.Context, employeeID string) ([]ModuleView, error) {
	modules, _, err := s.assignmentsFor(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	views := make([]ModuleView, 0, len(modules))
	for _, am := range modules {
		views = append(views, ModuleView{
			ModuleDefinition: s.definitionFor(am),
			Completed:        am.Completed,
			Score:            am.Score,
			TotalQuestions:   am.TotalQuestions,
			Percentage:       am.Percentage,
			CompletedAt:      am.CompletedAt,
		})
	}
	return views, nil
}

func (s *TrainingService) GetModule(ctx context.Context, employeeID, moduleID string) (*ModuleDetail, error) {
	modules, hasRecord, err := s.assignmentsFor(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	var assigned *model.AssignedModule
	for i := range modules {
		if modules[i].ModuleID == moduleID {
			assigned = &modules[i]
			break
		}
	}
	if assigned == nil {
		return nil, util.ErrModuleNotAssigned
	}

	def, ok := s.Catalog.Get(moduleID)
	if !ok {
		return nil, util.ErrModuleNotFound
	}

	detail := &ModuleDetail{Module: def}
	if hasRecord {
		detail.Progress = &ModuleProgress{
			Completed:      assigned.Completed,
			Score:          assigned.Score,
			TotalQuestions: assigned.TotalQuestions,
			Percentage:     assigned.Percentage,
			CompletedAt:    assigned.CompletedAt,
		}
	}
	return detail, nil
}

func validateCompletion(score, totalQuestions int) error {
	verr := &util.ValidationError{}
	if score < 0 {
		verr.Fields = append(verr.Fields, util.FieldError{Field: "score", Message: "Score must be a non-negative number"})
	}
	if totalQuestions < 0 {
		verr.Fields = append(verr.Fields, util.FieldError{Field: "totalQuestions", Message: "Total questions must be a non-negative number"})
	}
	if score >= 0 && totalQuestions >= 0 && score > totalQuestions {
		verr.Fields = append(verr.Fields, util.FieldError{Field: "score", Message: "Score cannot exceed total questions"})
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// SubmitCompletion 读取、合并、写回；同一员工的请求在进程内串行执行
func (s *TrainingService) SubmitCompletion(ctx context.Context, employeeID, moduleID string, score, totalQuestions int) (*model.User, error) {
	ctx, span := tracing.Start(ctx, "TrainingService.SubmitCompletion")
	defer span.End()
	span.SetAttributes(
		attribute.String("employee.id", employeeID),
		attribute.String("module.id", moduleID),
	)

	if err := validateCompletion(score, totalQuestions); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(employeeID)
	defer unlock()

	store := s.Selector.Select(ctx)
	user, err := store.FindByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	updated, err := RecordCompletion(user, moduleID, score, totalQuestions, s.now())
	if err != nil {
		return nil, err
	}
	if err := store.Save(ctx, updated); err != nil {
		return nil, err
	}

	monitoring.ModuleCompletions.WithLabelValues(moduleID).Inc()
	logger.Log.Info("module completion recorded",
		zap.String("employeeId", employeeID),
		zap.String("moduleId", moduleID),
		zap.Int("score", score),
		zap.Int("totalQuestions", totalQuestions),
		zap.Bool("trainingCompleted", updated.TrainingCompleted))
	return updated, nil
}

func (s *TrainingService) IssueCertificate(ctx context.Context, employeeID string) (*model.User, error) {
	ctx, span := tracing.Start(ctx, "TrainingService.IssueCertificate")
	defer span.End()

	unlock := s.locks.Lock(employeeID)
	defer unlock()

	store := s.Selector.Select(ctx)
	user, err := store.FindByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	updated, err := MarkCertificateGenerated(user)
	if err != nil {
		return nil, err
	}
	if err := store.Save(ctx, updated); err != nil {
		return nil, err
	}

	monitoring.CertificatesIssued.Inc()
	logger.Log.Info("certificate marked as generated", zap.String("employeeId", employeeID))
	return updated, nil
}

func (s *TrainingService) GetProgress(ctx context.Context, employeeID string) (*model.Progress, error) {
	user, err := s.GetUser(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return Summarize(user), nil
}
