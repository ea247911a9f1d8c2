// Package tablebase looks up endgame positions with few pieces and answers
// engine move requests from the result.
package tablebase

import (
	"context"

	"github.com/hailam/chessplay/internal/board"
)

// WDL represents Win/Draw/Loss result for the side to move.
type WDL int

const (
	WDLLoss        WDL = -2
	WDLBlessedLoss WDL = -1 // Loss that the 50-move rule turns into a draw
	WDLDraw        WDL = 0
	WDLCursedWin   WDL = 1 // Win that the 50-move rule turns into a draw
	WDLWin         WDL = 2
)

func (w WDL) String() string {
	switch w {
	case WDLLoss:
		return "loss"
	case WDLBlessedLoss:
		return "blessed-loss"
	case WDLCursedWin:
		return "cursed-win"
	case WDLWin:
		return "win"
	default:
		return "draw"
	}
}

// ProbeResult contains the result of a tablebase probe.
type ProbeResult struct {
	Found bool
	WDL   WDL
	DTZ   int // Distance to zeroing move (pawn move or capture)
}

// RootResult contains the best move from tablebase at root position.
type RootResult struct {
	Found bool
	Move  board.Move
	WDL   WDL
	DTZ   int
}

// Prober is the interface for tablebase probing.
type Prober interface {
	// Probe looks up a position in the tablebase.
	// Returns win/draw/loss information if the position is in the tablebase.
	Probe(ctx context.Context, pos *board.Position) ProbeResult

	// ProbeRoot finds the best move from the tablebase at the root position.
	ProbeRoot(ctx context.Context, pos *board.Position) RootResult

	// MaxPieces returns the maximum number of pieces supported.
	MaxPieces() int
}

// NoopProber is a prober that always returns "not found".
type NoopProber struct{}

func (NoopProber) Probe(ctx context.Context, pos *board.Position) ProbeResult {
	return ProbeResult{Found: false}
}

func (NoopProber) ProbeRoot(ctx context.Context, pos *board.Position) RootResult {
	return RootResult{Found: false}
}

func (NoopProber) MaxPieces() int {
	return 0
}

// CountPieces returns the total number of pieces on the board, kings included.
func CountPieces(pos *board.Position) int {
	return pos.Occupancies[board.Both].PopCount()
}
