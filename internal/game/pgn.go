package game

import (
	"fmt"

	"github.com/notnil/chess"

	"github.com/hailam/chessplay/internal/board"
)

// PGN exports the game with the Seven Tag Roster. Moves are replayed through
// notnil/chess, which also renders the movetext.
func (s *Session) PGN() (string, error) {
	var opts []func(*chess.Game)
	if s.startFEN != board.StartFEN {
		fen, err := chess.FEN(s.startFEN)
		if err != nil {
			return "", fmt.Errorf("pgn: start position: %w", err)
		}
		opts = append(opts, fen)
	}

	g := chess.NewGame(opts...)
	for i, m := range s.history {
		mv, err := chess.UCINotation{}.Decode(g.Position(), m.String())
		if err != nil {
			return "", fmt.Errorf("pgn: move %d (%v): %w", i+1, m, err)
		}
		if err := g.Move(mv); err != nil {
			return "", fmt.Errorf("pgn: move %d (%v): %w", i+1, m, err)
		}
	}

	status := s.Status()
	g.AddTagPair("Event", "Casual game")
	g.AddTagPair("Site", "chessplay")
	g.AddTagPair("Date", s.Created.Format("2006.01.02"))
	g.AddTagPair("Round", "-")
	g.AddTagPair("White", "White")
	g.AddTagPair("Black", "Black")
	g.AddTagPair("Result", status.Result())
	if len(opts) > 0 {
		g.AddTagPair("SetUp", "1")
		g.AddTagPair("FEN", s.startFEN)
	}

	return g.String(), nil
}
