package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New("", "loud")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "tileworld.log")
	log, err := New(path, "info")
	require.NoError(t, err)
	log.Debugf("hidden %d", 1)
	log.Infof("player connected: name=%s", "alice")
	_ = log.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "INFO")
	assert.Contains(t, string(b), "player connected: name=alice")
	assert.NotContains(t, string(b), "hidden")
}

func TestNew_Stderr(t *testing.T) {
	log, err := New("", "warn")
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.NotNil(t, Nop())
}
