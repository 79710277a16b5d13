package repository

import (
	"compliance_training_backend/internal/model"
	"compliance_training_backend/internal/util"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// UserRepository 持久化的用户存储，employee_id 与 email 由唯一索引保证
type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Backend() Backend { return BackendDurable }

func withModules(db *gorm.DB) *gorm.DB {
	return db.Preload("AssignedModules", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", util.ErrStorageUnavailable, err)
}

func (r *UserRepository) findByEmployeeID(tx *gorm.DB, employeeID string) (*model.User, error) {
	var user model.User
	err := withModules(tx).Where("employee_id = ?", employeeID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByEmployeeID(ctx context.Context, employeeID string) (*model.User, error) {
	return r.findByEmployeeID(r.DB.WithContext(ctx), employeeID)
}

func emailTaken(tx *gorm.DB, email, exceptEmployeeID string) (bool, error) {
	var count int64
	q := tx.Model(&model.User{}).Where("email = ?", email)
	if exceptEmployeeID != "" {
		q = q.Where("employee_id <> ?", exceptEmployeeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, storageErr(err)
	}
	return count > 0, nil
}

// translateDuplicate 并发插入时唯一索引兜底
func translateDuplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") ||
		strings.Contains(err.Error(), "Duplicate entry") {
		if strings.Contains(strings.ToLower(err.Error()), "email") {
			return &util.DuplicateKeyError{Field: "email"}
		}
		return &util.DuplicateKeyError{Field: "employeeId"}
	}
	return storageErr(err)
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
	for i := range user.AssignedModules {
		user.AssignedModules[i].Position = i
	}

	var created *model.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Where("employee_id = ?", user.EmployeeID).Count(&count).Error; err != nil {
			return storageErr(err)
		}
		if count > 0 {
			return &util.DuplicateKeyError{Field: "employeeId"}
		}
		taken, err := emailTaken(tx, user.Email, "")
		if err != nil {
			return err
		}
		if taken {
			return &util.DuplicateKeyError{Field: "email"}
		}

		if err := tx.Create(user).Error; err != nil {
			return translateDuplicate(err)
		}

		created, err = r.findByEmployeeID(tx, user.EmployeeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, employeeID string, p ProfileUpdate) (*model.User, error) {
	var updated *model.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := r.findByEmployeeID(tx, employeeID)
		if err != nil {
			return err
		}
		if p.Email != user.Email {
			taken, err := emailTaken(tx, p.Email, employeeID)
			if err != nil {
				return err
			}
			if taken {
				return &util.DuplicateKeyError{Field: "email"}
			}
		}

		lastLogin := p.LastLogin
		err = tx.Model(&model.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"full_name":  p.FullName,
			"email":      p.Email,
			"department": p.Department,
			"last_login": &lastLogin,
			"updated_at": time.Now(),
		}).Error
		if err != nil {
			return translateDuplicate(err)
		}

		updated, err = r.findByEmployeeID(tx, employeeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Save 写回整条记录（含模块进度），不做乐观锁检查
func (r *UserRepository) Save(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user.UpdatedAt = time.Now()
		if err := tx.Omit("AssignedModules").Save(user).Error; err != nil {
			return translateDuplicate(err)
		}
		for i := range user.AssignedModules {
			m := &user.AssignedModules[i]
			m.UserID = user.ID
			m.Position = i
			if err := tx.Save(m).Error; err != nil {
				return storageErr(err)
			}
		}
		return nil
	})
}
