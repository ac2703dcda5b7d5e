package stockfish

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptionSet() optionSet {
	s := newOptionSet()
	for _, line := range []string{
		"option name Threads type spin default 1 min 1 max 1024",
		"option name Hash type spin default 16 min 1 max 2048",
		"option name Ponder type check default false",
		"option name Clear Hash type button",
		"option name Debug Log File type string default",
		"option name Style type combo default Normal var Solid var Normal var Risky",
	} {
		ev := parseLine(line)
		s.ingest(ev.option)
	}
	return s
}

func TestOptionSetCurrentDefaults(t *testing.T) {
	s := testOptionSet()
	v, err := s.current("Threads")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
	v, err = s.current("Style")
	require.NoError(t, err)
	assert.Equal(t, "Normal", v)
}

func TestOptionSetRequestRendersCommand(t *testing.T) {
	s := testOptionSet()

	cmd, err := s.request("Threads", "4")
	require.NoError(t, err)
	assert.Equal(t, "setoption name Threads value 4", cmd)

	cmd, err = s.request("Ponder", "true")
	require.NoError(t, err)
	assert.Equal(t, "setoption name Ponder value true", cmd)

	cmd, err = s.request("Clear Hash", "")
	require.NoError(t, err)
	assert.Equal(t, "setoption name Clear Hash", cmd)

	cmd, err = s.request("Debug Log File", "/tmp/uci.log")
	require.NoError(t, err)
	assert.Equal(t, "setoption name Debug Log File value /tmp/uci.log", cmd)
}

func TestOptionSetValidation(t *testing.T) {
	s := testOptionSet()
	tests := []struct {
		name   string
		value  string
		reason OptionReason
	}{
		{"NoSuchOption", "1", OptionUnknown},
		{"Ponder", "yes", OptionTypeMismatch},
		{"Threads", "lots", OptionTypeMismatch},
		{"Threads", "-1", OptionOutOfRange},
		{"Threads", "100000", OptionOutOfRange},
		{"Style", "Reckless", OptionBadChoice},
		{"Clear Hash", "now", OptionTypeMismatch},
	}
	for _, tt := range tests {
		_, err := s.request(tt.name, tt.value)
		var optErr *OptionError
		require.ErrorAs(t, err, &optErr, "%s=%s", tt.name, tt.value)
		assert.Equal(t, tt.reason, optErr.Reason, "%s=%s", tt.name, tt.value)
	}
}

func TestOptionSetRequestDoesNotStage(t *testing.T) {
	s := testOptionSet()
	_, err := s.request("Threads", "8")
	require.NoError(t, err)
	v, err := s.current("Threads")
	require.NoError(t, err)
	assert.Equal(t, "1", v, "request alone must not change the current value")

	s.apply("Threads", "8")
	v, err = s.current("Threads")
	require.NoError(t, err)
	assert.Equal(t, "8", v)
}

func TestOptionSetComboCaseInsensitive(t *testing.T) {
	s := testOptionSet()
	_, err := s.request("Style", "risky")
	assert.NoError(t, err)
}

func TestOptionSetDuplicateAdvertisementWins(t *testing.T) {
	s := testOptionSet()
	ev := parseLine("option name Threads type spin default 2 min 1 max 512")
	s.ingest(ev.option)
	v, err := s.current("Threads")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
	_, err = s.request("Threads", "1024")
	var optErr *OptionError
	require.ErrorAs(t, err, &optErr)
	assert.Equal(t, OptionOutOfRange, optErr.Reason)
}

func TestOptionErrorMessage(t *testing.T) {
	err := &OptionError{Name: "Threads", Value: "-1", Reason: OptionOutOfRange}
	assert.Contains(t, err.Error(), "Threads")
	assert.Contains(t, err.Error(), "out of range")
	assert.False(t, errors.Is(err, ErrEngineClosed))
}
