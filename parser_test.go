package stockfish

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineSentinels(t *testing.T) {
	assert.Equal(t, eventUCIOk, parseLine("uciok").kind)
	assert.Equal(t, eventReadyOk, parseLine("readyok").kind)
}

func TestParseLineID(t *testing.T) {
	ev := parseLine("id name Stockfish 16")
	require.Equal(t, eventID, ev.kind)
	assert.Equal(t, "name", ev.idField)
	assert.Equal(t, "Stockfish 16", ev.idValue)

	ev = parseLine("id author the Stockfish developers")
	require.Equal(t, eventID, ev.kind)
	assert.Equal(t, "author", ev.idField)
	assert.Equal(t, "the Stockfish developers", ev.idValue)
}

func TestParseLineInfo(t *testing.T) {
	ev := parseLine("info depth 18 seldepth 24 multipv 1 score cp 23 nodes 120530 nps 512000 time 235 pv e2e4 e7e5 g1f3")
	require.Equal(t, eventInfo, ev.kind)
	info := ev.info
	assert.Equal(t, 18, info.Depth)
	assert.Equal(t, 24, info.SelDepth)
	assert.Equal(t, 1, info.MultiPV)
	require.NotNil(t, info.Score.CP)
	assert.Equal(t, 23, *info.Score.CP)
	assert.Nil(t, info.Score.Mate)
	assert.Equal(t, int64(120530), info.Nodes)
	assert.Equal(t, int64(512000), info.NPS)
	assert.Equal(t, int64(235), info.TimeMS)
	assert.Equal(t, []string{"e2e4", "e7e5", "g1f3"}, info.PV)
}

func TestParseLineInfoMateScore(t *testing.T) {
	ev := parseLine("info depth 20 score mate -3 pv h7h8")
	require.Equal(t, eventInfo, ev.kind)
	require.NotNil(t, ev.info.Score.Mate)
	assert.Equal(t, -3, *ev.info.Score.Mate)
	assert.Nil(t, ev.info.Score.CP)
}

func TestParseLineInfoWithoutPV(t *testing.T) {
	ev := parseLine("info depth 5 score cp -14 nodes 900")
	require.Equal(t, eventInfo, ev.kind)
	assert.Empty(t, ev.info.PV)
	assert.NotNil(t, ev.info.PV)
}

func TestParseLineInfoBoundsAndExtras(t *testing.T) {
	ev := parseLine("info depth 12 currmove e2e4 currmovenumber 1 score cp 31 lowerbound wdl 502 480 18 hashfull 12 tbhits 0 pv e2e4")
	require.Equal(t, eventInfo, ev.kind)
	require.NotNil(t, ev.info.Score.CP)
	assert.Equal(t, 31, *ev.info.Score.CP)
	assert.Equal(t, []string{"e2e4"}, ev.info.PV)
}

func TestParseLineMalformedNumericDowngrades(t *testing.T) {
	for _, raw := range []string{
		"info depth twelve score cp 10",
		"info depth 10 score cp ten",
		"info depth 10 score weird 10",
		"bestmove",
	} {
		assert.Equal(t, eventUnknown, parseLine(raw).kind, "line %q", raw)
	}
}

func TestParseLineDiagnosticOutput(t *testing.T) {
	// Engines print free-form lines outside the grammar; they must never
	// be fatal.
	for _, raw := range []string{
		"Stockfish 16 by the Stockfish developers (see AUTHORS file)",
		"",
		"   ",
		"Final evaluation       +0.25 (white side)",
	} {
		assert.Equal(t, eventUnknown, parseLine(raw).kind, "line %q", raw)
	}
}

func TestParseLineBestMove(t *testing.T) {
	ev := parseLine("bestmove e2e4 ponder e7e5")
	require.Equal(t, eventBestMove, ev.kind)
	assert.Equal(t, "e2e4", ev.bestMove)
	assert.Equal(t, "e7e5", ev.ponder)

	ev = parseLine("bestmove d2d4")
	require.Equal(t, eventBestMove, ev.kind)
	assert.Equal(t, "d2d4", ev.bestMove)
	assert.Empty(t, ev.ponder)

	ev = parseLine("bestmove (none)")
	require.Equal(t, eventBestMove, ev.kind)
	assert.Empty(t, ev.bestMove)
}

func TestParseLineOptions(t *testing.T) {
	ev := parseLine("option name Threads type spin default 1 min 1 max 1024")
	require.Equal(t, eventOption, ev.kind)
	opt := ev.option
	assert.Equal(t, "Threads", opt.Name)
	assert.Equal(t, OptionSpin, opt.Type)
	assert.Equal(t, "1", opt.Default)
	assert.Equal(t, 1, opt.Min)
	assert.Equal(t, 1024, opt.Max)

	ev = parseLine("option name Skill Level type spin default 20 min 0 max 20")
	require.Equal(t, eventOption, ev.kind)
	assert.Equal(t, "Skill Level", ev.option.Name)

	ev = parseLine("option name Ponder type check default false")
	require.Equal(t, eventOption, ev.kind)
	assert.Equal(t, OptionCheck, ev.option.Type)
	assert.Equal(t, "false", ev.option.Default)

	ev = parseLine("option name Clear Hash type button")
	require.Equal(t, eventOption, ev.kind)
	assert.Equal(t, OptionButton, ev.option.Type)

	ev = parseLine("option name Debug Log File type string default")
	require.Equal(t, eventOption, ev.kind)
	assert.Equal(t, OptionString, ev.option.Type)
	assert.Empty(t, ev.option.Default)

	ev = parseLine("option name Style type combo default Normal var Solid var Normal var Risky")
	require.Equal(t, eventOption, ev.kind)
	assert.Equal(t, OptionCombo, ev.option.Type)
	assert.Equal(t, "Normal", ev.option.Default)
	assert.Equal(t, []string{"Solid", "Normal", "Risky"}, ev.option.Choices)
}

func TestParseLineOptionMalformed(t *testing.T) {
	for _, raw := range []string{
		"option type spin default 1",
		"option name Threads type widget default 1",
		"option name Threads type spin default 1 min one max 2",
	} {
		assert.Equal(t, eventUnknown, parseLine(raw).kind, "line %q", raw)
	}
}
