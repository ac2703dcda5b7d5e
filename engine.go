// Package stockfish drives a UCI chess engine subprocess (Stockfish or
// compatible) through a typed, synchronous API: position management,
// move validation, best-move search and evaluation. One Engine owns one
// engine process; operations are serialized, and the client-side mirror
// of position and parameters stays authoritative.
package stockfish

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type state int32

const (
	stateCreated state = iota
	stateHandshaking
	stateReady
	stateSearching
	stateStopped
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultReadyTimeout     = 10 * time.Second
	defaultSearchDepth      = 15
	killGrace               = 3 * time.Second
)

// Engine is a session with one engine process. All exported methods are
// safe for concurrent use; blocking operations are mutually excluded so
// exactly one command/response exchange is in flight at a time.
type Engine struct {
	mu  sync.Mutex
	ch  lineChannel
	log zerolog.Logger

	st   atomic.Int32
	seq  atomic.Uint64 // pairs each sent command with its awaited response in logs
	pos  position
	opts optionSet

	name   string
	author string

	args             []string
	handshakeTimeout time.Duration
	readyTimeout     time.Duration
	searchDepth      int
	startParams      map[string]string

	lastInfo     SearchInfo
	hasInfo      bool
	lastInfoSide string
}

// Option configures a session at construction time.
type Option func(*Engine)

// WithLogger attaches a structured logger. Sent commands and received
// lines are logged at debug level.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithArgs passes extra command-line arguments to the engine binary.
func WithArgs(args ...string) Option {
	return func(e *Engine) { e.args = args }
}

// WithHandshakeTimeout bounds the uci/uciok handshake.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(e *Engine) { e.handshakeTimeout = d }
}

// WithReadyTimeout bounds every isready/readyok round-trip.
func WithReadyTimeout(d time.Duration) Option {
	return func(e *Engine) { e.readyTimeout = d }
}

// WithDefaultDepth sets the search depth used when a caller does not
// pass an explicit limit.
func WithDefaultDepth(depth int) Option {
	return func(e *Engine) { e.searchDepth = depth }
}

// WithParameters applies setoption values right after the handshake,
// validated against what the engine advertised.
func WithParameters(params map[string]string) Option {
	return func(e *Engine) { e.startParams = params }
}

// New spawns the engine at path and completes the UCI handshake. The
// returned session is ready for position, search and configuration
// calls. Close it when done.
func New(path string, opts ...Option) (*Engine, error) {
	e := newEngineShell(opts...)
	proc, err := startProcess(path, e.args, e.log)
	if err != nil {
		return nil, fmt.Errorf("starting engine %q: %w", path, err)
	}
	e.ch = proc
	if err := e.handshake(); err != nil {
		_ = proc.terminate(killGrace)
		return nil, err
	}
	return e, nil
}

func newEngineShell(opts ...Option) *Engine {
	e := &Engine{
		log:              zerolog.Nop(),
		pos:              newPosition(),
		opts:             newOptionSet(),
		handshakeTimeout: defaultHandshakeTimeout,
		readyTimeout:     defaultReadyTimeout,
		searchDepth:      defaultSearchDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// newSession runs the handshake over an already-open channel. New uses
// it with a real process; tests use it with a scripted one.
func newSession(ch lineChannel, opts ...Option) (*Engine, error) {
	e := newEngineShell(opts...)
	e.ch = ch
	if err := e.handshake(); err != nil {
		_ = ch.terminate(killGrace)
		return nil, err
	}
	return e, nil
}

func (e *Engine) state() state     { return state(e.st.Load()) }
func (e *Engine) setState(s state) { e.st.Store(int32(s)) }

func (e *Engine) handshake() error {
	e.setState(stateHandshaking)
	if err := e.sendLocked("uci"); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	for {
		line, err := e.ch.receive(e.handshakeTimeout)
		if err != nil {
			e.stopLocked()
			return fmt.Errorf("handshake: %w", err)
		}
		ev := parseLine(line)
		if ev.kind == eventUCIOk {
			break
		}
		switch ev.kind {
		case eventID:
			if ev.idField == "name" {
				e.name = ev.idValue
			} else if ev.idField == "author" {
				e.author = ev.idValue
			}
		case eventOption:
			e.opts.ingest(ev.option)
		}
	}
	if err := e.syncLocked(); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	for name, value := range e.startParams {
		if err := e.configureLocked(name, value); err != nil {
			return fmt.Errorf("applying startup parameters: %w", err)
		}
	}
	if err := e.sendLocked("ucinewgame"); err != nil {
		return err
	}
	if err := e.syncLocked(); err != nil {
		return err
	}
	e.setState(stateReady)
	e.log.Info().Str("name", e.name).Str("author", e.author).Msg("engine ready")
	return nil
}

// sendLocked writes one command. Callers hold e.mu (or are still inside
// construction, before the session is shared).
func (e *Engine) sendLocked(cmd string) error {
	if e.state() == stateStopped {
		return ErrSessionStopped
	}
	seq := e.seq.Add(1)
	e.log.Debug().Uint64("seq", seq).Str("cmd", cmd).Msg("command")
	if err := e.ch.send(cmd); err != nil {
		e.stopLocked()
		return err
	}
	return nil
}

// syncLocked runs one isready/readyok round-trip. Info lines seen while
// waiting are absorbed; a bestmove here means the conversation is out of
// step and the session cannot be trusted any further.
func (e *Engine) syncLocked() error {
	if err := e.sendLocked("isready"); err != nil {
		return err
	}
	for {
		line, err := e.ch.receive(e.readyTimeout)
		if err != nil {
			e.stopLocked()
			return fmt.Errorf("waiting for readyok: %w", err)
		}
		ev := parseLine(line)
		switch ev.kind {
		case eventReadyOk:
			return nil
		case eventInfo:
			e.absorbInfo(ev.info)
		case eventBestMove:
			e.stopLocked()
			return fmt.Errorf("%w: bestmove while awaiting readyok", ErrProtocolDesync)
		}
	}
}

func (e *Engine) absorbInfo(info SearchInfo) {
	// Trailing summary lines without a score never clobber the snapshot.
	if info.Score.Zero() {
		return
	}
	e.lastInfo = info
	e.hasInfo = true
}

// collectSearch drains output until the single terminating bestmove.
// Every info event is handed to onInfo; nothing else ends the wait short
// of process death.
func (e *Engine) collectSearch(onInfo func(SearchInfo)) (event, error) {
	for {
		line, err := e.ch.receive(0)
		if err != nil {
			e.stopLocked()
			return event{}, fmt.Errorf("waiting for bestmove: %w", err)
		}
		ev := parseLine(line)
		switch ev.kind {
		case eventBestMove:
			return ev, nil
		case eventInfo:
			onInfo(ev.info)
		}
	}
}

func (e *Engine) stopLocked() {
	if e.state() == stateStopped {
		return
	}
	e.setState(stateStopped)
	e.log.Info().Msg("session stopped")
}

func (e *Engine) requireReady() error {
	switch e.state() {
	case stateReady:
		return nil
	case stateStopped:
		return ErrSessionStopped
	default:
		return fmt.Errorf("%w: session not ready", ErrProtocolDesync)
	}
}

// ID returns the engine's advertised name and author.
func (e *Engine) ID() (name, author string) {
	return e.name, e.author
}

// Configure validates value against the engine's advertised option and
// applies it with an isready synchronization. Validation failures leave
// the engine untouched.
func (e *Engine) Configure(name, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireReady(); err != nil {
		return err
	}
	return e.configureLocked(name, value)
}

func (e *Engine) configureLocked(name, value string) error {
	cmd, err := e.opts.request(name, value)
	if err != nil {
		return err
	}
	if err := e.sendLocked(cmd); err != nil {
		return err
	}
	if err := e.syncLocked(); err != nil {
		return err
	}
	e.opts.apply(name, value)
	return nil
}

// CurrentOption returns the value in effect for an advertised option:
// the last applied value, or the engine's default.
func (e *Engine) CurrentOption(name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts.current(name)
}

// SetSkillLevel caps the engine's playing strength at a Skill Level
// between 0 and 20, clearing any Elo limit.
func (e *Engine) SetSkillLevel(level int) error {
	if err := e.Configure("UCI_LimitStrength", "false"); err != nil {
		return err
	}
	return e.Configure("Skill Level", strconv.Itoa(level))
}

// SetEloRating makes the engine approximate the given Elo, overriding
// any skill-level cap.
func (e *Engine) SetEloRating(elo int) error {
	if err := e.Configure("UCI_LimitStrength", "true"); err != nil {
		return err
	}
	return e.Configure("UCI_Elo", strconv.Itoa(elo))
}

// NewGame tells the engine the next position is from a different game,
// clearing its internal tables and the retained search snapshot.
func (e *Engine) NewGame() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireReady(); err != nil {
		return err
	}
	if err := e.sendLocked("ucinewgame"); err != nil {
		return err
	}
	if err := e.syncLocked(); err != nil {
		return err
	}
	e.hasInfo = false
	e.lastInfo = SearchInfo{}
	return nil
}

// SetStartPosition resets to the standard initial position.
func (e *Engine) SetStartPosition() error {
	return e.SetFEN(StartFEN)
}

// SetFEN replaces the current position. The text must pass the
// structural FEN check; on failure nothing is sent and the previous
// position stays in place.
func (e *Engine) SetFEN(fen string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireReady(); err != nil {
		return err
	}
	if err := validateFEN(fen); err != nil {
		return err
	}
	if err := e.sendLocked("ucinewgame"); err != nil {
		return err
	}
	if err := e.syncLocked(); err != nil {
		return err
	}
	_ = e.pos.setFEN(fen)
	e.hasInfo = false
	e.lastInfo = SearchInfo{}
	return e.sendLocked(e.pos.commandLine())
}

// CurrentPosition returns the base FEN and the moves applied since.
func (e *Engine) CurrentPosition() (fen string, moves []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pos.baseFEN, append([]string(nil), e.pos.moves...)
}

// MakeMoves plays moves from the current position, in order. Each move
// is checked with the engine before it becomes durable; the first
// rejected move rolls back and stops the sequence.
func (e *Engine) MakeMoves(moves ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireReady(); err != nil {
		return err
	}
	for _, move := range moves {
		if !moveRe.MatchString(move) {
			return fmt.Errorf("%w: %q", ErrInvalidMoveSyntax, move)
		}
		ok, err := e.isMoveCorrectLocked(move)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %q", ErrIllegalMove, move)
		}
		_ = e.pos.apply(move)
		if err := e.sendLocked(e.pos.commandLine()); err != nil {
			e.pos.rollback()
			return err
		}
	}
	return nil
}

// IsMoveCorrect asks the engine whether the move is legal in the current
// position, via a single-depth search restricted to that move. The
// session's observable position is identical before and after.
func (e *Engine) IsMoveCorrect(move string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireReady(); err != nil {
		return false, err
	}
	if !moveRe.MatchString(move) {
		return false, nil
	}
	return e.isMoveCorrectLocked(move)
}

func (e *Engine) isMoveCorrectLocked(move string) (bool, error) {
	// An illegal move leaves the restricted search with no root moves,
	// so the engine answers "bestmove (none)". The retained search
	// snapshot is preserved across the probe.
	savedInfo, savedHas, savedSide := e.lastInfo, e.hasInfo, e.lastInfoSide
	e.setState(stateSearching)
	defer e.setState(stateReady)
	if err := e.sendLocked(fmt.Sprintf("go depth 1 searchmoves %s", move)); err != nil {
		return false, err
	}
	ev, err := e.collectSearch(func(SearchInfo) {})
	if err != nil {
		return false, err
	}
	e.lastInfo, e.hasInfo, e.lastInfoSide = savedInfo, savedHas, savedSide
	return ev.bestMove != "", nil
}

// BestMove searches the current position under the given limit and
// returns the engine's move, with the ponder move when offered. A
// position with no legal moves yields ErrNoMoveAvailable and the
// session stays usable.
func (e *Engine) BestMove(limit SearchLimit) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireReady(); err != nil {
		return Result{}, err
	}
	side := e.pos.sideToMove()
	e.setState(stateSearching)
	defer func() {
		if e.state() == stateSearching {
			e.setState(stateReady)
		}
	}()
	if err := e.sendLocked(limit.goCommand(e.searchDepth)); err != nil {
		return Result{}, err
	}
	ev, err := e.collectSearch(e.absorbInfo)
	if err != nil {
		return Result{}, err
	}
	e.lastInfoSide = side
	e.setState(stateReady)
	if ev.bestMove == "" {
		return Result{}, ErrNoMoveAvailable
	}
	return Result{BestMove: ev.bestMove, Ponder: ev.ponder}, nil
}

// Stop cancels an in-flight search. The blocked BestMove call drains the
// resulting bestmove and returns through the normal path; Stop itself
// never consumes engine output.
func (e *Engine) Stop() error {
	if e.state() != stateSearching {
		return nil
	}
	return e.ch.send("stop")
}

// Evaluation returns the score of the most recent completed search,
// normalized to White's perspective: the engine reports scores relative
// to the side to move, so a search issued with Black to move is negated.
func (e *Engine) Evaluation() (Score, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasInfo {
		return Score{}, ErrNoSearch
	}
	if e.lastInfoSide == "b" {
		return e.lastInfo.Score.negated(), nil
	}
	return e.lastInfo.Score, nil
}

// LastSearch returns the raw retained info snapshot from the most recent
// completed search, engine-relative sign and all.
func (e *Engine) LastSearch() (SearchInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastInfo, e.hasInfo
}

// StaticEvaluation asks for the engine's static assessment of the
// current position, in pawns from White's perspective, without running a
// search. When a side is in check the engine has no static answer and
// ErrNoStaticEval is returned.
func (e *Engine) StaticEvaluation() (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireReady(); err != nil {
		return 0, err
	}
	if err := e.sendLocked("eval"); err != nil {
		return 0, err
	}
	for {
		line, err := e.ch.receive(e.readyTimeout)
		if err != nil {
			e.stopLocked()
			return 0, fmt.Errorf("waiting for static evaluation: %w", err)
		}
		if !strings.HasPrefix(line, "Final evaluation") && !strings.HasPrefix(line, "Total Evaluation") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		if fields[2] == "none" {
			return 0, ErrNoStaticEval
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			e.stopLocked()
			return 0, fmt.Errorf("%w: unparseable static evaluation %q", ErrProtocolDesync, line)
		}
		return v, nil
	}
}

// TopMoves ranks the n best moves in the current position using the
// engine's MultiPV mode, restoring the previous MultiPV value before
// returning. Scores are White-normalized. An empty slice means the
// position has no legal moves.
func (e *Engine) TopMoves(n int) ([]MoveEval, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("top moves: n must be positive, got %d", n)
	}
	prev, err := e.opts.current("MultiPV")
	if err != nil {
		return nil, err
	}
	want := strconv.Itoa(n)
	if prev != want {
		if err := e.configureLocked("MultiPV", want); err != nil {
			return nil, err
		}
		defer func() {
			if e.state() != stateStopped {
				_ = e.configureLocked("MultiPV", prev)
			}
		}()
	}

	side := e.pos.sideToMove()
	byLine := make(map[int]SearchInfo)
	e.setState(stateSearching)
	defer func() {
		if e.state() == stateSearching {
			e.setState(stateReady)
		}
	}()
	if err := e.sendLocked(fmt.Sprintf("go depth %d", e.searchDepth)); err != nil {
		return nil, err
	}
	ev, err := e.collectSearch(func(info SearchInfo) {
		e.absorbInfo(info)
		if info.MultiPV > 0 && !info.Score.Zero() && len(info.PV) > 0 {
			if cur, ok := byLine[info.MultiPV]; !ok || info.Depth >= cur.Depth {
				byLine[info.MultiPV] = info
			}
		}
	})
	if err != nil {
		return nil, err
	}
	e.lastInfoSide = side
	e.setState(stateReady)
	if ev.bestMove == "" {
		return []MoveEval{}, nil
	}

	ranked := make([]MoveEval, 0, n)
	for i := 1; i <= n; i++ {
		info, ok := byLine[i]
		if !ok {
			break
		}
		score := info.Score
		if side == "b" {
			score = score.negated()
		}
		ranked = append(ranked, MoveEval{Move: info.PV[0], Score: score})
	}
	return ranked, nil
}

// Close shuts the session down: quit, a grace period, then a kill if the
// engine lingers. Safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	return e.ch.terminate(killGrace)
}
