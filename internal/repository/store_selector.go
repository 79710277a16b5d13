package repository

import (
	"compliance_training_backend/pkg/logger"
	"compliance_training_backend/pkg/monitoring"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConnectFunc 建立持久化存储连接（通常是 database.InitDB + 迁移）
type ConnectFunc func(ctx context.Context) (*gorm.DB, error)

type SelectorOptions struct {
	ProbeTimeout      time.Duration
	ReconnectInterval time.Duration
	// Connect 为空时不会重连，只使用初始连接
	Connect ConnectFunc
}

// StoreSelector 每个请求探测一次持久化存储的连接状态：
// 可用则返回 UserRepository，否则回退到内存存储。结果不跨请求缓存。
type StoreSelector struct {
	memory *MemoryUserRepository
	opts   SelectorOptions

	mu          sync.Mutex
	db          *gorm.DB
	durable     *UserRepository
	lastAttempt time.Time

	wasDurable atomic.Int32 // -1 未知, 0 内存, 1 持久化
}

func NewStoreSelector(db *gorm.DB, memory *MemoryUserRepository, opts SelectorOptions) *StoreSelector {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = time.Second
	}
	s := &StoreSelector{
		memory:      memory,
		opts:        opts,
		lastAttempt: time.Now(),
	}
	s.wasDurable.Store(-1)
	if db != nil {
		s.db = db
		s.durable = NewUserRepository(db)
	}
	return s
}

// Select 返回本次请求应使用的存储
func (s *StoreSelector) Select(ctx context.Context) UserStore {
	durable := s.currentDurable(ctx)
	if durable != nil && s.probe(ctx, durable.DB) {
		s.record(true)
		return durable
	}
	s.record(false)
	return s.memory
}

func (s *StoreSelector) currentDurable(ctx context.Context) *UserRepository {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.durable != nil || s.opts.Connect == nil {
		return s.durable
	}
	if time.Since(s.lastAttempt) < s.opts.ReconnectInterval {
		return nil
	}
	s.lastAttempt = time.Now()

	db, err := s.opts.Connect(ctx)
	if err != nil {
		logger.Log.Debug("durable store reconnect failed", zap.Error(err))
		return nil
	}
	s.db = db
	s.durable = NewUserRepository(db)
	logger.Log.Info("durable store connected")
	return s.durable
}

func (s *StoreSelector) probe(ctx context.Context, db *gorm.DB) bool {
	sqlDB, err := db.DB()
	if err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.ProbeTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx) == nil
}

func (s *StoreSelector) record(durable bool) {
	var v int32
	if durable {
		v = 1
	}
	prev := s.wasDurable.Swap(v)
	if prev == v {
		return
	}
	monitoring.SetStoreBackend(durable)
	if durable {
		logger.Log.Info("user store: using durable backend")
	} else {
		logger.Log.Warn("user store: durable backend unavailable, using in-memory storage")
	}
}

// DB 当前的持久化连接，可能为 nil
func (s *StoreSelector) DB() *gorm.DB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}
