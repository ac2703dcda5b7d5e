package stockfish

// Score is an engine evaluation. Exactly one of CP or Mate is set:
// CP is centipawns, Mate is the number of moves until mate, with the
// sign indicating who is mating.
type Score struct {
	CP   *int `json:"cp,omitempty"`
	Mate *int `json:"mate,omitempty"`
}

// Zero reports whether the score carries no value at all.
func (s Score) Zero() bool {
	return s.CP == nil && s.Mate == nil
}

func (s Score) negated() Score {
	var out Score
	if s.CP != nil {
		v := -*s.CP
		out.CP = &v
	}
	if s.Mate != nil {
		v := -*s.Mate
		out.Mate = &v
	}
	return out
}

// SearchInfo is the payload of one "info" line. Fields the engine did
// not report are left at their zero value; a missing pv is an empty slice.
type SearchInfo struct {
	Depth    int
	SelDepth int
	MultiPV  int
	Score    Score
	Nodes    int64
	NPS      int64
	TimeMS   int64
	PV       []string
}

// Result is the outcome of a completed search.
type Result struct {
	BestMove string
	Ponder   string
}

// MoveEval is one entry of a MultiPV ranking, White-normalized.
type MoveEval struct {
	Move  string
	Score Score
}

type eventKind int

const (
	eventUnknown eventKind = iota
	eventID
	eventOption
	eventUCIOk
	eventReadyOk
	eventInfo
	eventBestMove
)

// event is one parsed engine output line. Which payload fields are
// meaningful depends on kind.
type event struct {
	kind eventKind
	raw  string

	idField string // "name" or "author"
	idValue string

	option advertisedOption

	info SearchInfo

	bestMove string // empty when the engine reported "(none)"
	ponder   string
}
