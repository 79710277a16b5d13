package service

import (
	"compliance_training_backend/internal/repository"
	"compliance_training_backend/internal/util"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	entries []EmailResultsEntry
	err     error
}

func (s *recordingSink) Append(_ context.Context, e EmailResultsEntry) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append([]EmailResultsEntry{e}, s.entries...)
	return nil
}

func (s *recordingSink) Recent(_ context.Context, limit int64) ([]EmailResultsEntry, error) {
	if int64(len(s.entries)) < limit {
		return s.entries, nil
	}
	return s.entries[:limit], nil
}

func TestLogEmailResults(t *testing.T) {
	training := newTestTrainingService(t, repository.NewMemoryUserRepository())
	ctx := context.Background()
	_, err := training.Authenticate(ctx, financeLogin("12345"))
	require.NoError(t, err)

	sink := &recordingSink{}
	audit := NewAuditService(training, sink)

	entry, err := audit.LogEmailResults(ctx, "12345", EmailResultsRequest{EmailSent: true, Recipient: "hr@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", entry.FullName)

	recent, err := audit.RecentEmailResults(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "hr@example.com", recent[0].Recipient)
	assert.True(t, recent[0].EmailSent)

	_, err = audit.LogEmailResults(ctx, "nobody", EmailResultsRequest{Recipient: "hr@example.com"})
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestLogEmailResultsToleratesSinkFailure(t *testing.T) {
	training := newTestTrainingService(t, repository.NewMemoryUserRepository())
	ctx := context.Background()
	_, err := training.Authenticate(ctx, financeLogin("12345"))
	require.NoError(t, err)

	audit := NewAuditService(training, &recordingSink{err: errors.New("redis down")})
	_, err = audit.LogEmailResults(ctx, "12345", EmailResultsRequest{Recipient: "hr@example.com"})
	assert.NoError(t, err)

	withoutSink := NewAuditService(training, nil)
	recent, err := withoutSink.RecentEmailResults(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
