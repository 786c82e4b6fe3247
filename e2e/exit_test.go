//go:build e2e && unix

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestApplicationExit(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	_, err := tf.CreateTestWorkspace()
	require.NoError(t, err, "Failed to create test workspace")
	endpoint := tf.ServeSuggestions(nil)

	require.NoError(t, tf.StartApp("-endpoint", endpoint))
	require.True(t, tf.Ready(), "Should render the form")

	t.Logf("Sending Ctrl+C to quit application...")
	require.NoError(t, tf.SendCtrlC())
	require.NoError(t, tf.WaitExit(2*time.Second), "Process should exit cleanly on Ctrl+C")
}
