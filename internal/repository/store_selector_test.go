package repository

import (
	"compliance_training_backend/internal/repository/testutil"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSelectorUsesDurableWhenReachable(t *testing.T) {
	db := testutil.DB(t)
	s := NewStoreSelector(db, NewMemoryUserRepository(), SelectorOptions{ProbeTimeout: time.Second})

	store := s.Select(context.Background())
	assert.Equal(t, BackendDurable, store.Backend())
}

func TestSelectorFallsBackWithoutDatabase(t *testing.T) {
	s := NewStoreSelector(nil, NewMemoryUserRepository(), SelectorOptions{})

	store := s.Select(context.Background())
	assert.Equal(t, BackendVolatile, store.Backend())
}

func TestSelectorFallsBackMidOutage(t *testing.T) {
	db := testutil.DB(t)
	memory := NewMemoryUserRepository()
	s := NewStoreSelector(db, memory, SelectorOptions{ProbeTimeout: time.Second})
	ctx := context.Background()

	require.Equal(t, BackendDurable, s.Select(ctx).Backend())

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	store := s.Select(ctx)
	assert.Equal(t, BackendVolatile, store.Backend())
	assert.Same(t, memory, store)
}

func TestSelectorReconnects(t *testing.T) {
	attempts := 0
	var target *gorm.DB
	s := NewStoreSelector(nil, NewMemoryUserRepository(), SelectorOptions{
		ProbeTimeout:      time.Second,
		ReconnectInterval: 0,
		Connect: func(ctx context.Context) (*gorm.DB, error) {
			attempts++
			if target == nil {
				return nil, errors.New("connection refused")
			}
			return target, nil
		},
	})
	ctx := context.Background()

	assert.Equal(t, BackendVolatile, s.Select(ctx).Backend())
	assert.Equal(t, 1, attempts)

	target = testutil.DB(t)
	assert.Equal(t, BackendDurable, s.Select(ctx).Backend())
	assert.Equal(t, 2, attempts)

	// 连上之后不再重连
	assert.Equal(t, BackendDurable, s.Select(ctx).Backend())
	assert.Equal(t, 2, attempts)
	assert.Same(t, target, s.DB())
}

func TestSelectorReconnectIsThrottled(t *testing.T) {
	attempts := 0
	s := NewStoreSelector(nil, NewMemoryUserRepository(), SelectorOptions{
		ReconnectInterval: time.Hour,
		Connect: func(ctx context.Context) (*gorm.DB, error) {
			attempts++
			return nil, errors.New("down")
		},
	})

	for i := 0; i < 5; i++ {
		s.Select(context.Background())
	}
	assert.Equal(t, 0, attempts)
}
