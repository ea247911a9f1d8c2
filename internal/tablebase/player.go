package tablebase

import (
	"context"
	"errors"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/game"
)

// ErrNotInTablebase is returned by Player when the tablebase has no answer
// and there is no fallback.
var ErrNotInTablebase = errors.New("position not in tablebase")

// Player answers move requests from the tablebase once few enough pieces
// remain, and from Fallback otherwise.
type Player struct {
	Prober   Prober
	Fallback game.Searcher // optional
}

// BestMove implements game.Searcher.
func (p *Player) BestMove(ctx context.Context, fen string, history []board.Move) (string, error) {
	pos, err := game.PositionAfter(fen, history)
	if err != nil {
		return "", err
	}
	if CountPieces(pos) <= p.Prober.MaxPieces() {
		if root := p.Prober.ProbeRoot(ctx, pos); root.Found {
			return root.Move.String(), nil
		}
	}
	if p.Fallback == nil {
		return "", ErrNotInTablebase
	}
	return p.Fallback.BestMove(ctx, fen, history)
}
