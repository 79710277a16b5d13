package service

import (
	"compliance_training_backend/internal/catalog"
	"compliance_training_backend/internal/config"
	"fmt"
)

// ModuleAssignment 分配给员工的模块（id + 名称快照）
type ModuleAssignment struct {
	ModuleID   string `json:"moduleId"`
	ModuleName string `json:"moduleName"`
}

// AssignmentResolver 根据员工编号决定需要完成的模块。
// 构建后不可变，Resolve 是纯函数；配置热加载时整体替换。
type AssignmentResolver struct {
	admins       map[string]struct{}
	restrictedID string
	restricted   []ModuleAssignment
	standard     []ModuleAssignment
}

func NewAssignmentResolver(cat *catalog.Catalog, cfg config.AssignmentConfig) (*AssignmentResolver, error) {
	standard, err := lookupModules(cat, cfg.StandardModules)
	if err != nil {
		return nil, fmt.Errorf("standard modules: %w", err)
	}
	restricted, err := lookupModules(cat, cfg.RestrictedModules)
	if err != nil {
		return nil, fmt.Errorf("restricted modules: %w", err)
	}

	admins := make(map[string]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = struct{}{}
	}

	return &AssignmentResolver{
		admins:       admins,
		restrictedID: cfg.RestrictedID,
		restricted:   restricted,
		standard:     standard,
	}, nil
}

func lookupModules(cat *catalog.Catalog, ids []string) ([]ModuleAssignment, error) {
	out := make([]ModuleAssignment, 0, len(ids))
	for _, id := range ids {
		def, ok := cat.Get(id)
		if !ok {
			return nil, fmt.Errorf("unknown module %q", id)
		}
		out = append(out, ModuleAssignment{ModuleID: def.ID, ModuleName: def.Name})
	}
	return out, nil
}

func (r *AssignmentResolver) IsAdmin(employeeID string) bool {
	_, ok := r.admins[employeeID]
	return ok
}

// Resolve 规则优先级：管理员 > 受限员工 > 默认。
// 目前管理员与默认员工拿到的是同一份标准模块列表。
func (r *AssignmentResolver) Resolve(employeeID string) []ModuleAssignment {
	switch {
	case r.IsAdmin(employeeID):
		return cloneAssignments(r.standard)
	case r.restrictedID != "" && employeeID == r.restrictedID:
		return cloneAssignments(r.restricted)
	default:
		return cloneAssignments(r.standard)
	}
}

func cloneAssignments(in []ModuleAssignment) []ModuleAssignment {
	out := make([]ModuleAssignment, len(in))
	copy(out, in)
	return out
}
