// Package game runs a chess game on top of the board package: move history,
// turn flow, result detection and engine replies.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hailam/chessplay/internal/board"
)

var (
	// ErrIllegalMove is returned for move text that names no legal move.
	ErrIllegalMove = errors.New("illegal move")

	// ErrGameOver is returned when a move is attempted after the game ended.
	ErrGameOver = errors.New("game is over")
)

// Status is the state of a game.
type Status int

const (
	Ongoing Status = iota
	WhiteWins
	BlackWins
	Stalemate
	InsufficientMaterial
)

func (s Status) String() string {
	switch s {
	case WhiteWins:
		return "white wins"
	case BlackWins:
		return "black wins"
	case Stalemate:
		return "stalemate"
	case InsufficientMaterial:
		return "insufficient material"
	default:
		return "ongoing"
	}
}

// Result returns the PGN result token.
func (s Status) Result() string {
	switch s {
	case WhiteWins:
		return "1-0"
	case BlackWins:
		return "0-1"
	case Stalemate, InsufficientMaterial:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// Searcher returns one move, in coordinate notation, for the position reached
// from fen by history. *uci.Client implements it.
type Searcher interface {
	BestMove(ctx context.Context, fen string, history []board.Move) (string, error)
}

// Session is one game. It is not safe for concurrent use.
type Session struct {
	ID      string
	Created time.Time

	startFEN  string
	pos       *board.Position
	history   []board.Move
	snapshots []board.Snapshot
}

// New starts a game from fen, or from the standard start position if fen is empty.
func New(fen string) (*Session, error) {
	if fen == "" {
		fen = board.StartFEN
	}
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	if err := pos.Validate(); err != nil {
		return nil, fmt.Errorf("unplayable position: %w", err)
	}

	now := time.Now()
	return &Session{
		ID:       fmt.Sprintf("%x", now.UnixNano()),
		Created:  now,
		startFEN: pos.FEN(),
		pos:      pos,
	}, nil
}

// Replay rebuilds a game from its start position and coordinate moves.
func Replay(id, fen string, moves []string) (*Session, error) {
	s, err := New(fen)
	if err != nil {
		return nil, err
	}
	if id != "" {
		s.ID = id
	}
	for i, text := range moves {
		if _, err := s.Play(text); err != nil {
			return nil, fmt.Errorf("replay move %d (%s): %w", i+1, text, err)
		}
	}
	return s, nil
}

// Play applies a move given as coordinate text ("e2e4", "e7e8q") or SAN ("Nf3").
func (s *Session) Play(text string) (board.Move, error) {
	if s.Status() != Ongoing {
		return board.NoMove, ErrGameOver
	}

	text = strings.TrimSpace(text)
	m := s.pos.ParseUserMove(text)
	if m == board.NoMove {
		san, err := board.ParseSAN(text, s.pos)
		if err != nil || san == board.NoMove {
			return board.NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, text)
		}
		m = san
	}

	if err := s.PlayMove(m); err != nil {
		return board.NoMove, err
	}
	return m, nil
}

// PlayMove applies an encoded move.
func (s *Session) PlayMove(m board.Move) error {
	if s.Status() != Ongoing {
		return ErrGameOver
	}

	if !isLegal(s.pos, m) {
		return fmt.Errorf("%w: %v", ErrIllegalMove, m)
	}

	snap := s.pos.Snapshot()
	s.pos.Apply(m, board.AllMoves)

	s.snapshots = append(s.snapshots, snap)
	s.history = append(s.history, m)
	return nil
}

// isLegal reports whether m is one of the moves generated for pos that Apply accepts.
func isLegal(pos *board.Position, m board.Move) bool {
	for _, legal := range pos.LegalMoves() {
		if legal == m {
			return true
		}
	}
	return false
}

// EngineReply asks e for a move and plays it.
func (s *Session) EngineReply(ctx context.Context, e Searcher) (board.Move, error) {
	if s.Status() != Ongoing {
		return board.NoMove, ErrGameOver
	}

	text, err := e.BestMove(ctx, s.startFEN, s.History())
	if err != nil {
		return board.NoMove, fmt.Errorf("engine: %w", err)
	}

	m := s.pos.ParseUserMove(text)
	if m == board.NoMove {
		return board.NoMove, fmt.Errorf("engine played %q: %w", text, ErrIllegalMove)
	}
	if err := s.PlayMove(m); err != nil {
		return board.NoMove, err
	}
	return m, nil
}

// TakeBack undoes the last move. It returns false if no move was played.
func (s *Session) TakeBack() bool {
	n := len(s.history)
	if n == 0 {
		return false
	}
	s.pos.Undo(s.snapshots[n-1])
	s.snapshots = s.snapshots[:n-1]
	s.history = s.history[:n-1]
	return true
}

// Status reports whether the game goes on and, if not, how it ended.
func (s *Session) Status() Status {
	if !s.pos.HasLegalMoves() {
		if !s.pos.InCheck() {
			return Stalemate
		}
		if s.pos.Side == board.White {
			return BlackWins
		}
		return WhiteWins
	}
	if s.pos.IsInsufficientMaterial() {
		return InsufficientMaterial
	}
	return Ongoing
}

// Position returns a copy of the current position.
func (s *Session) Position() *board.Position {
	return s.pos.Copy()
}

// Turn returns the side to move.
func (s *Session) Turn() board.Color {
	return s.pos.Side
}

// FEN returns the current position as FEN.
func (s *Session) FEN() string {
	return s.pos.FEN()
}

// StartFEN returns the position the game started from.
func (s *Session) StartFEN() string {
	return s.startFEN
}

// History returns a copy of the moves played so far.
func (s *Session) History() []board.Move {
	return append([]board.Move(nil), s.history...)
}

// Moves returns the moves played so far in coordinate notation.
func (s *Session) Moves() []string {
	moves := make([]string, len(s.history))
	for i, m := range s.history {
		moves[i] = m.String()
	}
	return moves
}

// SAN returns the moves played so far in Standard Algebraic Notation.
func (s *Session) SAN() []string {
	start, _ := board.ParseFEN(s.startFEN)
	return board.MovesToSAN(start, s.history)
}

// LastMove returns the most recent move, or NoMove.
func (s *Session) LastMove() board.Move {
	if len(s.history) == 0 {
		return board.NoMove
	}
	return s.history[len(s.history)-1]
}

// PositionAfter returns the position reached from fen (the start position if
// empty) by playing history.
func PositionAfter(fen string, history []board.Move) (*board.Position, error) {
	if fen == "" {
		fen = board.StartFEN
	}
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	for i, m := range history {
		if !isLegal(pos, m) {
			return nil, fmt.Errorf("%w: move %d (%v)", ErrIllegalMove, i+1, m)
		}
		pos.Apply(m, board.AllMoves)
	}
	return pos, nil
}
