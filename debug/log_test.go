package debug

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogDisabledWritesNothing(t *testing.T) {
	Disable()
	Log("loop", "should not appear %d", 1)
	assert.False(t, Enabled())
}

func TestLogWriter(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	defer Disable()

	Log("player", "pass %d done", 3)
	Error("sink", errors.New("port gone"), "send failed")

	out := buf.String()
	assert.Contains(t, out, "Debug logging started")
	assert.Contains(t, out, "pass 3 done")
	assert.Contains(t, out, "cat=player")
	assert.Contains(t, out, "port gone")
}

func TestLogEvery(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	defer Disable()

	for i := 0; i < 10; i++ {
		LogEvery(5, "every-test", "tick")
	}
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("every 5")))
}

func TestEnableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "debug.log")
	require.NoError(t, EnableFile(path))
	Log("file", "hello")
	Disable()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
