package testutil

import (
	"compliance_training_backend/internal/model"
	"compliance_training_backend/pkg/database"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// DB 每个测试一个独立的内存 SQLite 库，已完成迁移
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

// NewUser 构造一条带模块的待创建记录
func NewUser(employeeID, email string, moduleIDs ...string) *model.User {
	u := &model.User{
		EmployeeID: employeeID,
		FullName:   "Test " + employeeID,
		Email:      email,
		Department: model.Finance,
		AdminLevel: model.AdminNone,
	}
	for _, id := range moduleIDs {
		u.AssignedModules = append(u.AssignedModules, model.AssignedModule{
			ModuleID:   id,
			ModuleName: "Module " + id,
		})
	}
	return u
}
