package service

import (
	"compliance_training_backend/pkg/logger"
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// EmailResultsEntry 成绩邮件发送的审计记录
type EmailResultsEntry struct {
	EmployeeID string    `json:"employeeId"`
	FullName   string    `json:"fullName"`
	Recipient  string    `json:"recipient"`
	EmailSent  bool      `json:"emailSent"`
	LoggedAt   time.Time `json:"loggedAt"`
}

// AuditSink 审计记录的落地位置
type AuditSink interface {
	Append(ctx context.Context, entry EmailResultsEntry) error
	Recent(ctx context.Context, limit int64) ([]EmailResultsEntry, error)
}

// RedisAuditSink 写入定长的 Redis 列表（最新的在前）
type RedisAuditSink struct {
	Client *redis.Client
	Key    string
	Cap    int64
}

func NewRedisAuditSink(client *redis.Client, key string, capacity int64) *RedisAuditSink {
	return &RedisAuditSink{Client: client, Key: key, Cap: capacity}
}

func (s *RedisAuditSink) Append(ctx context.Context, entry EmailResultsEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	pipe := s.Client.TxPipeline()
	pipe.LPush(ctx, s.Key, payload)
	if s.Cap > 0 {
		pipe.LTrim(ctx, s.Key, 0, s.Cap-1)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisAuditSink) Recent(ctx context.Context, limit int64) ([]EmailResultsEntry, error) {
	raw, err := s.Client.LRange(ctx, s.Key, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]EmailResultsEntry, 0, len(raw))
	for _, r := range raw {
		var e EmailResultsEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

type EmailResultsRequest struct {
	EmailSent bool   `json:"emailSent"`
	Recipient string `json:"recipient" binding:"required,email"`
}

type AuditService struct {
	Training *TrainingService
	// Sink 为空时只写日志
	Sink AuditSink
}

func NewAuditService(training *TrainingService, sink AuditSink) *AuditService {
	return &AuditService{Training: training, Sink: sink}
}

// LogEmailResults 记录成绩邮件的发送情况；审计存储失败不影响请求结果
func (s *AuditService) LogEmailResults(ctx context.Context, employeeID string, req EmailResultsRequest) (*EmailResultsEntry, error) {
	user, err := s.Training.GetUser(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	entry := EmailResultsEntry{
		EmployeeID: user.EmployeeID,
		FullName:   user.FullName,
		Recipient:  req.Recipient,
		EmailSent:  req.EmailSent,
		LoggedAt:   time.Now(),
	}

	logger.Log.Info("email results sent",
		zap.String("employeeId", entry.EmployeeID),
		zap.String("fullName", entry.FullName),
		zap.String("recipient", entry.Recipient),
		zap.Bool("emailSent", entry.EmailSent))

	if s.Sink != nil {
		if err := s.Sink.Append(ctx, entry); err != nil {
			logger.Log.Warn("failed to append email results audit entry", zap.Error(err))
		}
	}
	return &entry, nil
}

// RecentEmailResults 没有审计存储时返回空列表
func (s *AuditService) RecentEmailResults(ctx context.Context, limit int64) ([]EmailResultsEntry, error) {
	if s.Sink == nil {
		return []EmailResultsEntry{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.Sink.Recent(ctx, limit)
}
