package stockfish

import (
	"fmt"
	"time"
)

type limitKind int

const (
	limitDefault limitKind = iota
	limitDepth
	limitMoveTime
	limitNodes
	limitInfinite
	limitClock
)

// SearchLimit bounds one search. The zero value uses the session's
// default depth. Construct limits with Depth, MoveTime, Nodes, Infinite
// or RemainingTime.
type SearchLimit struct {
	kind     limitKind
	depth    int
	moveTime time.Duration
	nodes    int64
	wtime    time.Duration
	btime    time.Duration
}

// Depth searches to a fixed depth in plies.
func Depth(n int) SearchLimit {
	return SearchLimit{kind: limitDepth, depth: n}
}

// MoveTime searches for a fixed wall-clock duration.
func MoveTime(d time.Duration) SearchLimit {
	return SearchLimit{kind: limitMoveTime, moveTime: d}
}

// Nodes searches until the given node count is reached.
func Nodes(n int64) SearchLimit {
	return SearchLimit{kind: limitNodes, nodes: n}
}

// Infinite searches until Stop is called.
func Infinite() SearchLimit {
	return SearchLimit{kind: limitInfinite}
}

// RemainingTime lets the engine budget its own time from the players'
// clocks.
func RemainingTime(wtime, btime time.Duration) SearchLimit {
	return SearchLimit{kind: limitClock, wtime: wtime, btime: btime}
}

func (l SearchLimit) goCommand(defaultDepth int) string {
	switch l.kind {
	case limitDepth:
		return fmt.Sprintf("go depth %d", l.depth)
	case limitMoveTime:
		return fmt.Sprintf("go movetime %d", l.moveTime.Milliseconds())
	case limitNodes:
		return fmt.Sprintf("go nodes %d", l.nodes)
	case limitInfinite:
		return "go infinite"
	case limitClock:
		return fmt.Sprintf("go wtime %d btime %d", l.wtime.Milliseconds(), l.btime.Milliseconds())
	}
	return fmt.Sprintf("go depth %d", defaultDepth)
}
