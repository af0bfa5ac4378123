package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Levels(t *testing.T) {
	t.Setenv("LOG_FILE", "")

	logger, err := NewLogger("stockroom", "test", "debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	logger, err = NewLogger("stockroom", "test", "")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))

	_, err = NewLogger("stockroom", "test", "loud")
	assert.Error(t, err)
}

func TestNewLogger_CreatesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "stockroom.log")
	t.Setenv("LOG_FILE", path)

	logger, err := NewLogger("stockroom", "test", "info")
	require.NoError(t, err)
	logger.Info("hello")
	_ = logger.Sync()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
}
