package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, log.InfoLevel, lvl)

	lvl, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, lvl)

	_, err = ParseLevel("chatty")
	assert.Error(t, err)
}

func TestSetupWritesToFile(t *testing.T) {
	prev := log.Default()
	t.Cleanup(func() { log.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "suggestbox.log")
	closer, err := Setup(path, "info")
	require.NoError(t, err)

	New("fetch").Info("query issued", "q", "ca")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fetch")
	assert.Contains(t, string(data), "query issued")
}

func TestSetupWithoutPathDiscards(t *testing.T) {
	prev := log.Default()
	t.Cleanup(func() { log.SetDefault(prev) })

	closer, err := Setup("", "warn")
	require.NoError(t, err)
	assert.NoError(t, closer.Close())
	assert.Equal(t, log.WarnLevel, log.Default().GetLevel())
}
