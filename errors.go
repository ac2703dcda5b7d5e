package stockfish

import (
	"errors"
	"fmt"
)

var (
	// ErrEngineClosed means the engine process has exited or its pipes
	// are gone. The session is stopped and cannot be reused.
	ErrEngineClosed = errors.New("engine process closed")

	// ErrEngineUnresponsive means the engine failed to answer within the
	// bounded wait for a synchronization point.
	ErrEngineUnresponsive = errors.New("engine unresponsive")

	// ErrProtocolDesync means a state-incompatible event arrived while
	// waiting for a terminating event. The session is stopped.
	ErrProtocolDesync = errors.New("protocol desynchronized")

	// ErrSessionStopped is returned by operations on a stopped session.
	ErrSessionStopped = errors.New("session stopped")

	// ErrInvalidFen means the FEN failed the structural check. The
	// position is unchanged.
	ErrInvalidFen = errors.New("invalid fen")

	// ErrInvalidMoveSyntax means the move is not long algebraic notation.
	ErrInvalidMoveSyntax = errors.New("invalid move syntax")

	// ErrIllegalMove means the engine rejected the move in the current
	// position.
	ErrIllegalMove = errors.New("illegal move")

	// ErrNoMoveAvailable means the position has no legal moves
	// (the engine answered "bestmove (none)"). The session stays usable.
	ErrNoMoveAvailable = errors.New("no move available")

	// ErrNoSearch means no search has completed yet, so there is no
	// evaluation to report.
	ErrNoSearch = errors.New("no search has completed")

	// ErrNoStaticEval means the engine declined to statically evaluate
	// the position (a side is in check).
	ErrNoStaticEval = errors.New("no static evaluation available")
)

// OptionReason classifies a parameter validation failure.
type OptionReason int

const (
	OptionUnknown OptionReason = iota
	OptionTypeMismatch
	OptionOutOfRange
	OptionBadChoice
)

func (r OptionReason) String() string {
	switch r {
	case OptionUnknown:
		return "unknown option"
	case OptionTypeMismatch:
		return "type mismatch"
	case OptionOutOfRange:
		return "out of range"
	case OptionBadChoice:
		return "invalid choice"
	}
	return "invalid option"
}

// OptionError reports a rejected setoption request. No command was sent
// to the engine and the option's current value is unchanged.
type OptionError struct {
	Name   string
	Value  string
	Reason OptionReason
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("option %q: %s (value %q)", e.Name, e.Reason, e.Value)
}
