package repository

import (
	"compliance_training_backend/internal/model"
	"compliance_training_backend/internal/util"
	"context"
	"sync"
	"time"
)

// MemoryUserRepository 进程内存储，数据库不可用时使用，重启后数据丢失。
// email 唯一性与持久化存储保持一致。
type MemoryUserRepository struct {
	mu     sync.RWMutex
	users  map[string]*model.User
	emails map[string]string // email -> employeeId
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:  make(map[string]*model.User),
		emails: make(map[string]string),
	}
}

func (r *MemoryUserRepository) Backend() Backend { return BackendVolatile }

func (r *MemoryUserRepository) FindByEmployeeID(_ context.Context, employeeID string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[employeeID]
	if !ok {
		return nil, util.ErrUserNotFound
	}
	return user.Clone(), nil
}

func (r *MemoryUserRepository) Create(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.EmployeeID]; ok {
		return nil, &util.DuplicateKeyError{Field: "employeeId"}
	}
	if _, ok := r.emails[user.Email]; ok {
		return nil, &util.DuplicateKeyError{Field: "email"}
	}

	stored := user.Clone()
	if stored.ID == "" {
		stored.ID = model.GenerateUUID()
	}
	now := time.Now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	for i := range stored.AssignedModules {
		stored.AssignedModules[i].UserID = stored.ID
		stored.AssignedModules[i].Position = i
	}

	r.users[stored.EmployeeID] = stored
	r.emails[stored.Email] = stored.EmployeeID
	return stored.Clone(), nil
}

func (r *MemoryUserRepository) UpdateProfile(_ context.Context, employeeID string, p ProfileUpdate) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[employeeID]
	if !ok {
		return nil, util.ErrUserNotFound
	}
	if owner, taken := r.emails[p.Email]; taken && owner != employeeID {
		return nil, &util.DuplicateKeyError{Field: "email"}
	}

	delete(r.emails, user.Email)
	user.FullName = p.FullName
	user.Email = p.Email
	user.Department = p.Department
	lastLogin := p.LastLogin
	user.LastLogin = &lastLogin
	user.UpdatedAt = time.Now()
	r.emails[user.Email] = employeeID

	return user.Clone(), nil
}

func (r *MemoryUserRepository) Save(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.EmployeeID]
	if !ok {
		return util.ErrUserNotFound
	}
	if owner, taken := r.emails[user.Email]; taken && owner != user.EmployeeID {
		return &util.DuplicateKeyError{Field: "email"}
	}

	stored := user.Clone()
	stored.UpdatedAt = time.Now()
	delete(r.emails, existing.Email)
	r.users[stored.EmployeeID] = stored
	r.emails[stored.Email] = stored.EmployeeID
	user.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *MemoryUserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
