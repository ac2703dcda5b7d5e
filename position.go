package stockfish

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	moveRe     = regexp.MustCompile(`^[a-h][1-8][a-h][1-8][nbrq]?$`)
	castleRe   = regexp.MustCompile(`^(-|[KQkq]{1,4})$`)
	epSquareRe = regexp.MustCompile(`^(-|[a-h][1-8])$`)
)

// position mirrors the engine's board: a base FEN plus the moves applied
// since. It is the authoritative client-side model; the engine's own
// output is never replayed to reconstruct it.
type position struct {
	baseFEN string
	moves   []string
}

func newPosition() position {
	return position{baseFEN: StartFEN}
}

func (p *position) setStart() {
	p.baseFEN = StartFEN
	p.moves = nil
}

func (p *position) setFEN(fen string) error {
	if err := validateFEN(fen); err != nil {
		return err
	}
	p.baseFEN = fen
	p.moves = nil
	return nil
}

// apply appends a move provisionally. The caller confirms legality with
// the engine before treating the append as durable; rollback undoes it.
func (p *position) apply(move string) error {
	if !moveRe.MatchString(move) {
		return fmt.Errorf("%w: %q", ErrInvalidMoveSyntax, move)
	}
	p.moves = append(p.moves, move)
	return nil
}

func (p *position) rollback() {
	if len(p.moves) > 0 {
		p.moves = p.moves[:len(p.moves)-1]
	}
}

// commandLine renders the position command. It is rebuilt on every call
// so a rolled-back move can never leak through a cached copy.
func (p *position) commandLine() string {
	if len(p.moves) == 0 {
		return "position fen " + p.baseFEN
	}
	return "position fen " + p.baseFEN + " moves " + strings.Join(p.moves, " ")
}

// sideToMove is "w" or "b" for the position after the applied moves.
func (p *position) sideToMove() string {
	side := strings.Fields(p.baseFEN)[1]
	if len(p.moves)%2 == 1 {
		if side == "w" {
			return "b"
		}
		return "w"
	}
	return side
}

// IsFENValid reports whether the text passes the structural FEN check
// used by SetFEN. It does not judge whether the position is reachable or
// legal; that remains the engine's call.
func IsFENValid(fen string) bool {
	return validateFEN(fen) == nil
}

// validateFEN checks structural shape only: six fields, eight ranks each
// covering eight squares, both kings present, and well-formed trailing
// fields. Legality beyond that is the engine's business.
func validateFEN(fen string) error {
	fields := strings.Fields(fen)
	if len(fields) != 6 {
		return fmt.Errorf("%w: expected 6 fields, got %d", ErrInvalidFen, len(fields))
	}
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: expected 8 ranks, got %d", ErrInvalidFen, len(ranks))
	}
	for _, rank := range ranks {
		sum := 0
		prevDigit := false
		for _, c := range rank {
			switch {
			case c >= '1' && c <= '8':
				if prevDigit {
					return fmt.Errorf("%w: adjacent digits in rank %q", ErrInvalidFen, rank)
				}
				sum += int(c - '0')
				prevDigit = true
			case strings.ContainsRune("pnbrqkPNBRQK", c):
				sum++
				prevDigit = false
			default:
				return fmt.Errorf("%w: bad piece character %q", ErrInvalidFen, string(c))
			}
		}
		if sum != 8 {
			return fmt.Errorf("%w: rank %q covers %d squares", ErrInvalidFen, rank, sum)
		}
	}
	if !strings.Contains(fields[0], "K") || !strings.Contains(fields[0], "k") {
		return fmt.Errorf("%w: both kings must be present", ErrInvalidFen)
	}
	if fields[1] != "w" && fields[1] != "b" {
		return fmt.Errorf("%w: bad side to move %q", ErrInvalidFen, fields[1])
	}
	if !castleRe.MatchString(fields[2]) {
		return fmt.Errorf("%w: bad castling rights %q", ErrInvalidFen, fields[2])
	}
	if !epSquareRe.MatchString(fields[3]) {
		return fmt.Errorf("%w: bad en passant square %q", ErrInvalidFen, fields[3])
	}
	halfmove, err := strconv.Atoi(fields[4])
	if err != nil || halfmove < 0 {
		return fmt.Errorf("%w: bad halfmove clock %q", ErrInvalidFen, fields[4])
	}
	fullmove, err := strconv.Atoi(fields[5])
	if err != nil || fullmove < 1 {
		return fmt.Errorf("%w: bad fullmove number %q", ErrInvalidFen, fields[5])
	}
	if halfmove >= fullmove*2 {
		return fmt.Errorf("%w: halfmove clock %d impossible at move %d", ErrInvalidFen, halfmove, fullmove)
	}
	return nil
}
