package stockfish

import (
	"os/exec"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cat echoes stdin to stdout line by line, which is all the channel
// needs for a round-trip test.
func startCat(t *testing.T) *process {
	t.Helper()
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	p, err := startProcess("cat", nil, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.terminate(100 * time.Millisecond) })
	return p
}

func TestProcessRoundTrip(t *testing.T) {
	p := startCat(t)
	require.True(t, p.alive())

	require.NoError(t, p.send("hello engine"))
	line, err := p.receive(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hello engine", line)
}

func TestProcessReceiveTimeout(t *testing.T) {
	p := startCat(t)
	_, err := p.receive(50 * time.Millisecond)
	assert.ErrorIs(t, err, ErrEngineUnresponsive)
	assert.True(t, p.alive(), "a timeout is not process death")
}

func TestProcessTerminateKillsAndIsIdempotent(t *testing.T) {
	p := startCat(t)
	// cat ignores the quit command, so the grace period expires and the
	// process is killed.
	require.NoError(t, p.terminate(100*time.Millisecond))
	assert.False(t, p.alive())
	require.NoError(t, p.terminate(100*time.Millisecond))

	assert.ErrorIs(t, p.send("position startpos"), ErrEngineClosed)
	_, err := p.receive(time.Second)
	assert.ErrorIs(t, err, ErrEngineClosed)
}

func TestProcessExitObservedByReceive(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	p, err := startProcess("true", nil, zerolog.Nop())
	require.NoError(t, err)
	_, err = p.receive(2 * time.Second)
	assert.ErrorIs(t, err, ErrEngineClosed)
}

func TestProcessLaunchError(t *testing.T) {
	_, err := startProcess("/no/such/engine/binary", nil, zerolog.Nop())
	assert.Error(t, err)
}
