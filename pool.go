package stockfish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/py-stockfish/stockfish/config"
)

// PoolConfig configures a batch-evaluation pool. Zero fields get
// sensible defaults; only Path is required.
type PoolConfig struct {
	Path       string
	Workers    int               // parallel engine sessions
	Limit      SearchLimit       // per-position search limit
	Parameters map[string]string // setoption values per session
	Logger     zerolog.Logger
}

// PositionEval is the evaluation of one input FEN. BestMove is empty
// when the position has no legal moves.
type PositionEval struct {
	FEN      string
	BestMove string
	Score    Score
}

// EvalPool evaluates batches of positions across several independent
// engine sessions. Sessions share nothing; each worker owns one process.
type EvalPool struct {
	cfg   PoolConfig
	log   zerolog.Logger
	start func() (poolSession, error)
}

// poolSession is the slice of Engine the pool needs per worker.
type poolSession interface {
	SetFEN(fen string) error
	BestMove(limit SearchLimit) (Result, error)
	Evaluation() (Score, error)
	Close() error
}

// NewEvalPool validates the config and fills in defaults.
func NewEvalPool(cfg PoolConfig) (*EvalPool, error) {
	if cfg.Path == "" {
		return nil, errors.New("eval pool: engine path required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	p := &EvalPool{cfg: cfg, log: cfg.Logger}
	p.start = func() (poolSession, error) {
		return New(cfg.Path, WithLogger(p.log), WithParameters(cfg.Parameters))
	}
	return p, nil
}

// NewEvalPoolFromConfig builds a pool from the ambient configuration,
// searching by depth or by move time per the engine settings.
func NewEvalPoolFromConfig(cfg *config.Config) (*EvalPool, error) {
	limit := Depth(cfg.Engine.Depth)
	if cfg.Engine.UseMoveTime {
		limit = MoveTime(time.Duration(cfg.Engine.MoveTimeMS) * time.Millisecond)
	}
	return NewEvalPool(PoolConfig{
		Path:       cfg.Engine.Path,
		Workers:    cfg.Engine.Workers,
		Limit:      limit,
		Parameters: cfg.Engine.Parameters,
		Logger:     cfg.Logger(),
	})
}

// Run evaluates every FEN and returns the results in input order. A
// worker failure cancels the whole batch.
func (p *EvalPool) Run(ctx context.Context, fens []string) ([]PositionEval, error) {
	results := make([]PositionEval, len(fens))
	jobs := make(chan int)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < p.cfg.Workers; w++ {
		worker := w
		g.Go(func() error {
			eng, err := p.start()
			if err != nil {
				return fmt.Errorf("worker %d: %w", worker, err)
			}
			defer eng.Close()
			for i := range jobs {
				ev, err := p.evalOne(eng, fens[i])
				if err != nil {
					return fmt.Errorf("worker %d, fen %q: %w", worker, fens[i], err)
				}
				results[i] = ev
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for i := range fens {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	p.log.Info().Int("positions", len(fens)).Int("workers", p.cfg.Workers).Msg("batch evaluated")
	return results, nil
}

func (p *EvalPool) evalOne(eng poolSession, fen string) (PositionEval, error) {
	ev := PositionEval{FEN: fen}
	if err := eng.SetFEN(fen); err != nil {
		return ev, err
	}
	res, err := eng.BestMove(p.cfg.Limit)
	switch {
	case errors.Is(err, ErrNoMoveAvailable):
		// Terminal position: no move, and usually no score either.
	case err != nil:
		return ev, err
	default:
		ev.BestMove = res.BestMove
	}
	score, err := eng.Evaluation()
	if err == nil {
		ev.Score = score
	} else if !errors.Is(err, ErrNoSearch) {
		return ev, err
	}
	return ev, nil
}
