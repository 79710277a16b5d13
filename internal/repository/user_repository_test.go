package repository

import (
	"compliance_training_backend/internal/repository/testutil"
	"compliance_training_backend/internal/util"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 两种存储实现共用同一组行为测试
func storeImplementations(t *testing.T) map[string]UserStore {
	return map[string]UserStore{
		"durable":  NewUserRepository(testutil.DB(t)),
		"volatile": NewMemoryUserRepository(),
	}
}

func TestUserStoreCreateAndFind(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			created, err := store.Create(ctx, testutil.NewUser("12345", "a@example.com", "phishing", "password", "harassment"))
			require.NoError(t, err)
			assert.NotEmpty(t, created.ID)
			assert.False(t, created.CreatedAt.IsZero())

			got, err := store.FindByEmployeeID(ctx, "12345")
			require.NoError(t, err)
			assert.Equal(t, created.ID, got.ID)
			require.Len(t, got.AssignedModules, 3)
			assert.Equal(t, "phishing", got.AssignedModules[0].ModuleID)
			assert.Equal(t, "password", got.AssignedModules[1].ModuleID)
			assert.Equal(t, "harassment", got.AssignedModules[2].ModuleID)

			_, err = store.FindByEmployeeID(ctx, "99999")
			assert.ErrorIs(t, err, util.ErrUserNotFound)
		})
	}
}

func TestUserStoreDuplicateKeys(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Create(ctx, testutil.NewUser("1", "one@example.com", "phishing"))
			require.NoError(t, err)

			_, err = store.Create(ctx, testutil.NewUser("1", "other@example.com", "phishing"))
			require.ErrorIs(t, err, util.ErrDuplicateKey)
			var dup *util.DuplicateKeyError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, "employeeId", dup.Field)

			_, err = store.Create(ctx, testutil.NewUser("2", "one@example.com", "phishing"))
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, "email", dup.Field)
		})
	}
}

func TestUserStoreUpdateProfile(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Create(ctx, testutil.NewUser("1", "one@example.com", "phishing"))
			require.NoError(t, err)
			_, err = store.Create(ctx, testutil.NewUser("2", "two@example.com", "phishing"))
			require.NoError(t, err)

			login := time.Now().Add(-time.Minute)
			updated, err := store.UpdateProfile(ctx, "1", ProfileUpdate{
				FullName:   "Renamed",
				Email:      "new@example.com",
				Department: "Legal",
				LastLogin:  login,
			})
			require.NoError(t, err)
			assert.Equal(t, "Renamed", updated.FullName)
			assert.Equal(t, "new@example.com", updated.Email)
			require.NotNil(t, updated.LastLogin)
			assert.WithinDuration(t, login, *updated.LastLogin, time.Second)
			require.Len(t, updated.AssignedModules, 1)

			// 旧邮箱已释放
			_, err = store.Create(ctx, testutil.NewUser("3", "one@example.com", "phishing"))
			assert.NoError(t, err)

			_, err = store.UpdateProfile(ctx, "1", ProfileUpdate{FullName: "x", Email: "two@example.com", Department: "Legal"})
			assert.ErrorIs(t, err, util.ErrDuplicateKey)

			_, err = store.UpdateProfile(ctx, "404", ProfileUpdate{FullName: "x", Email: "x@example.com", Department: "Legal"})
			assert.ErrorIs(t, err, util.ErrUserNotFound)
		})
	}
}

func TestUserStoreSavePersistsProgress(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			user, err := store.Create(ctx, testutil.NewUser("1", "one@example.com", "phishing", "password"))
			require.NoError(t, err)

			done := time.Now()
			user.AssignedModules[1].Completed = true
			user.AssignedModules[1].Score = 3
			user.AssignedModules[1].TotalQuestions = 3
			user.AssignedModules[1].Percentage = 100
			user.AssignedModules[1].CompletedAt = &done
			user.OverallScore = 3
			user.OverallPercentage = 100
			require.NoError(t, store.Save(ctx, user))

			got, err := store.FindByEmployeeID(ctx, "1")
			require.NoError(t, err)
			require.Len(t, got.AssignedModules, 2)
			assert.False(t, got.AssignedModules[0].Completed)
			assert.True(t, got.AssignedModules[1].Completed)
			assert.Equal(t, 3, got.AssignedModules[1].Score)
			assert.Equal(t, 100, got.AssignedModules[1].Percentage)
			require.NotNil(t, got.AssignedModules[1].CompletedAt)
			assert.Equal(t, 3, got.OverallScore)
			assert.Equal(t, "password", got.AssignedModules[1].ModuleID)
		})
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryUserRepository()
	ctx := context.Background()

	created, err := store.Create(ctx, testutil.NewUser("1", "one@example.com", "phishing"))
	require.NoError(t, err)
	created.AssignedModules[0].Completed = true
	created.FullName = "changed without save"

	got, err := store.FindByEmployeeID(ctx, "1")
	require.NoError(t, err)
	assert.False(t, got.AssignedModules[0].Completed)
	assert.NotEqual(t, "changed without save", got.FullName)
}

func TestMemoryStoreSaveUnknownUser(t *testing.T) {
	store := NewMemoryUserRepository()
	err := store.Save(context.Background(), testutil.NewUser("nobody", "n@example.com"))
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}
