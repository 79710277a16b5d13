package configwatcher

import (
	"compliance_training_backend/internal/config"
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("assignment:\n  restricted_id: \"1\"\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var restricted atomic.Value
	require.NoError(t, Watch(ctx, file, func(cfg *config.Config) {
		restricted.Store(cfg.Assignment.RestrictedID)
	}))

	require.NoError(t, os.WriteFile(file, []byte("assignment:\n  restricted_id: \"2\"\n"), 0o644))

	assert.Eventually(t, func() bool {
		v, _ := restricted.Load().(string)
		return v == "2"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatchMissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "missing", "config.yaml"), func(*config.Config) {})
	assert.Error(t, err)
}
