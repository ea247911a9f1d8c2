package book

import (
	"context"
	"errors"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/game"
)

// ErrOutOfBook is returned by Player when the position is not in the book
// and there is no fallback.
var ErrOutOfBook = errors.New("position not in book")

// Player answers move requests from the book while it can, then from Fallback.
type Player struct {
	Book     *Book
	Fallback game.Searcher // optional
}

// BestMove implements game.Searcher.
func (p *Player) BestMove(ctx context.Context, fen string, history []board.Move) (string, error) {
	pos, err := game.PositionAfter(fen, history)
	if err != nil {
		return "", err
	}
	if m, ok := p.Book.Probe(pos); ok {
		return m.String(), nil
	}
	if p.Fallback == nil {
		return "", ErrOutOfBook
	}
	return p.Fallback.BestMove(ctx, fen, history)
}
