package repository

import (
	"compliance_training_backend/internal/model"
	"context"
	"time"
)

type Backend string

const (
	BackendDurable  Backend = "durable"
	BackendVolatile Backend = "volatile"
)

// ProfileUpdate 登录时允许更新的资料字段
type ProfileUpdate struct {
	FullName   string
	Email      string
	Department model.Department
	LastLogin  time.Time
}

// UserStore 用户记录存储。两种实现：GORM 持久化存储与进程内存储。
// 返回的记录都是调用方私有的副本，修改后需通过 Save 写回（后写覆盖先写）。
type UserStore interface {
	Backend() Backend
	FindByEmployeeID(ctx context.Context, employeeID string) (*model.User, error)
	Create(ctx context.Context, user *model.User) (*model.User, error)
	UpdateProfile(ctx context.Context, employeeID string, p ProfileUpdate) (*model.User, error)
	Save(ctx context.Context, user *model.User) error
}
