package board

import "testing"

func TestMovesToSAN(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		moves []string
		want  []string
	}{
		{
			"opening",
			StartFEN,
			[]string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5"},
			[]string{"e4", "e5", "Nf3", "Nc6", "Bb5"},
		},
		{
			"scholar's mate",
			StartFEN,
			[]string{"e2e4", "e7e5", "d1h5", "b8c6", "f1c4", "g8f6", "h5f7"},
			[]string{"e4", "e5", "Qh5", "Nc6", "Bc4", "Nf6", "Qxf7#"},
		},
		{
			"castling and check",
			"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1",
			[]string{"e1c1", "e8g8"},
			[]string{"O-O-O", "O-O"},
		},
		{
			"file disambiguation",
			"4k3/8/8/8/8/8/4K3/R6R w - - 0 1",
			[]string{"a1d1"},
			[]string{"Rad1"},
		},
		{
			"rank disambiguation",
			"4k3/8/8/R7/8/8/8/R3K3 w - - 0 1",
			[]string{"a1a3"},
			[]string{"R1a3"},
		},
		{
			"promotion and en passant",
			"4k3/P7/8/3pP3/8/8/8/4K3 w - d6 0 1",
			[]string{"e5d6", "e8d7", "a7a8q"},
			[]string{"exd6", "Kd7", "a8=Q"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatalf("ParseFEN: %v", err)
			}

			var moves []Move
			replay := pos.Copy()
			for _, text := range tc.moves {
				m := findMove(t, replay, text)
				replay.Apply(m, AllMoves)
				moves = append(moves, m)
			}

			got := MovesToSAN(pos, moves)
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("move %d: got %s, want %s", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestParseSAN(t *testing.T) {
	pos := NewPosition()
	for _, san := range []string{"e4", "e5", "Nf3", "Nc6", "Bb5", "a6", "O-O"} {
		m, err := ParseSAN(san, pos)
		if err != nil {
			t.Fatalf("ParseSAN(%s): %v", san, err)
		}
		if got := m.SAN(pos); got != san {
			t.Errorf("SAN round trip: %s -> %s", san, got)
		}
		pos.Apply(m, AllMoves)
	}

	if _, err := ParseSAN("Qd5", pos); err == nil {
		t.Error("expected error for impossible move")
	}
}

func TestHash(t *testing.T) {
	a := NewPosition()
	b := NewPosition()

	// Same position reached by transposition
	for _, text := range []string{"g1f3", "g8f6", "b1c3"} {
		a.Apply(findMove(t, a, text), AllMoves)
	}
	for _, text := range []string{"b1c3", "g8f6", "g1f3"} {
		b.Apply(findMove(t, b, text), AllMoves)
	}
	if a.Hash() != b.Hash() {
		t.Error("transposed positions hash differently")
	}

	white, _ := ParseFEN("4k3/8/8/8/8/8/8/4K3 w - - 0 1")
	black, _ := ParseFEN("4k3/8/8/8/8/8/8/4K3 b - - 0 1")
	if white.Hash() == black.Hash() {
		t.Error("side to move does not affect hash")
	}

	ep, _ := ParseFEN("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	noEP, _ := ParseFEN("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1")
	if ep.Hash() == noEP.Hash() {
		t.Error("en passant square does not affect hash")
	}
}
