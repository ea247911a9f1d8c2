package board

import (
	"math/rand"
	"testing"
)

var playoutFENs = []string{
	StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
}

// playout walks random legal games and calls check before and after every move.
func playout(t *testing.T, seed int64, check func(t *testing.T, before Snapshot, m Move, pos *Position)) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))

	for _, fen := range playoutFENs {
		for game := 0; game < 10; game++ {
			pos, err := ParseFEN(fen)
			if err != nil {
				t.Fatalf("Failed to parse FEN: %v", err)
			}
			for ply := 0; ply < 80; ply++ {
				legal := pos.LegalMoves()
				if len(legal) == 0 {
					break
				}
				m := legal[rng.Intn(len(legal))]
				before := pos.Snapshot()
				if !pos.Apply(m, AllMoves) {
					t.Fatalf("%s: legal move %v rejected", before.fen(), m)
				}
				check(t, before, m, pos)
			}
		}
	}
}

func (s Snapshot) fen() string {
	p := &Position{}
	p.Undo(s)
	return p.FEN()
}

func TestApplyUndoRestores(t *testing.T) {
	for _, fen := range playoutFENs {
		pos, _ := ParseFEN(fen)
		before := pos.Snapshot()

		var ml MoveList
		pos.GenerateMoves(&ml)
		for _, m := range ml.Slice() {
			legal := pos.Apply(m, AllMoves)
			if !legal && !before.Matches(pos) {
				t.Fatalf("%s: rejected move %v changed the position", fen, m)
			}
			pos.Undo(before)
			if !before.Matches(pos) {
				t.Fatalf("%s: undo after %v did not restore the position", fen, m)
			}
		}
	}
}

func TestOccupancyConsistency(t *testing.T) {
	playout(t, 1, func(t *testing.T, before Snapshot, m Move, pos *Position) {
		var white, black Bitboard
		for pc := WhitePawn; pc <= WhiteKing; pc++ {
			white |= pos.Pieces[pc]
		}
		for pc := BlackPawn; pc <= BlackKing; pc++ {
			if black&pos.Pieces[pc] != 0 || white&pos.Pieces[pc] != 0 {
				t.Fatalf("after %v two pieces share a square", m)
			}
			black |= pos.Pieces[pc]
		}
		if pos.Occupancies[White] != white || pos.Occupancies[Black] != black {
			t.Fatalf("after %v occupancies do not match pieces", m)
		}
		if pos.Occupancies[Both] != pos.Occupancies[White]|pos.Occupancies[Black] {
			t.Fatalf("after %v both occupancy is not the union", m)
		}
	})
}

func TestCastlingRightsNeverGrow(t *testing.T) {
	playout(t, 2, func(t *testing.T, before Snapshot, m Move, pos *Position) {
		if pos.Castling&before.Castling != pos.Castling {
			t.Fatalf("%v grew castling rights from %v to %v", m, before.Castling, pos.Castling)
		}
	})
}

func TestEnPassantOnlyAfterDoublePush(t *testing.T) {
	playout(t, 3, func(t *testing.T, before Snapshot, m Move, pos *Position) {
		if m.IsDoublePush() {
			want := (m.Source() + m.Target()) / 2
			if pos.EnPassant != want {
				t.Fatalf("double push %v set en passant to %v, want %v", m, pos.EnPassant, want)
			}
		} else if pos.EnPassant != NoSquare {
			t.Fatalf("%v left en passant square %v", m, pos.EnPassant)
		}
	})
}

func TestSideFlipsAfterApply(t *testing.T) {
	playout(t, 4, func(t *testing.T, before Snapshot, m Move, pos *Position) {
		if pos.Side != before.Side.Other() {
			t.Fatalf("%v did not flip side to move", m)
		}
		// The mover's king is never left attacked.
		if pos.IsSquareAttacked(pos.KingSquare(before.Side), pos.Side) {
			t.Fatalf("%v left the %v king attacked", m, before.Side)
		}
	})
}

func findMove(t *testing.T, pos *Position, text string) Move {
	t.Helper()
	m := pos.ParseUserMove(text)
	if m == NoMove {
		t.Fatalf("%s: move %s not found", pos.FEN(), text)
	}
	return m
}

func TestApplySpecialMoves(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		move  string
		after string
	}{
		{
			"white king side castle",
			"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1",
			"e1g1",
			"r3k2r/8/8/8/8/8/8/R4RK1 b kq - 0 1",
		},
		{
			"white queen side castle",
			"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1",
			"e1c1",
			"r3k2r/8/8/8/8/8/8/2KR3R b kq - 0 1",
		},
		{
			"black king side castle",
			"r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1",
			"e8g8",
			"r4rk1/8/8/8/8/8/8/R3K2R w KQ - 0 1",
		},
		{
			"black queen side castle",
			"r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1",
			"e8c8",
			"2kr3r/8/8/8/8/8/8/R3K2R w KQ - 0 1",
		},
		{
			"rook capture removes rights",
			"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1",
			"a1a8",
			"R3k2r/8/8/8/8/8/8/4K2R b Kk - 0 1",
		},
		{
			"white en passant",
			"4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 1",
			"e5d6",
			"4k3/8/3P4/8/8/8/8/4K3 b - - 0 1",
		},
		{
			"black en passant",
			"4k3/8/8/8/3Pp3/8/8/4K3 b - d3 0 1",
			"e4d3",
			"4k3/8/8/8/8/3p4/8/4K3 w - - 0 1",
		},
		{
			"white double push",
			StartFEN,
			"e2e4",
			"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
		},
		{
			"black double push",
			"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
			"c7c5",
			"rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq c6 0 1",
		},
		{
			"capture promotion",
			"1r2k3/P7/8/8/8/8/8/4K3 w - - 0 1",
			"a7b8n",
			"1N2k3/8/8/8/8/8/8/4K3 b - - 0 1",
		},
		{
			"black push promotion",
			"4k3/8/8/8/8/8/p7/4K3 b - - 0 1",
			"a2a1q",
			"4k3/8/8/8/8/8/8/q3K3 w - - 0 1",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatalf("ParseFEN: %v", err)
			}
			m := findMove(t, pos, tc.move)
			if !pos.Apply(m, AllMoves) {
				t.Fatalf("Apply(%v) rejected", m)
			}
			if got := pos.FEN(); got != tc.after {
				t.Errorf("after %s: got %q, want %q", tc.move, got, tc.after)
			}
		})
	}
}

func TestApplyRejectsSelfCheck(t *testing.T) {
	// The knight on e2 is pinned by the rook on e8.
	pos, _ := ParseFEN("4r1k1/8/8/8/8/8/4N3/4K3 w - - 0 1")
	before := pos.Snapshot()

	m := EncodeMove(E2, C3, WhiteKnight, 0, false, false, false, false)
	if pos.Apply(m, AllMoves) {
		t.Fatal("pinned knight move was accepted")
	}
	if !before.Matches(pos) {
		t.Fatal("rejected move changed the position")
	}
	if pos.ParseUserMove("e2c3") != NoMove {
		t.Error("ParseUserMove returned an illegal move")
	}
}

func TestApplyCapturesOnly(t *testing.T) {
	pos, _ := ParseFEN("4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1")
	before := pos.Snapshot()

	quiet := findMove(t, pos, "e4e5")
	if pos.Apply(quiet, CapturesOnly) {
		t.Fatal("quiet move accepted in captures-only mode")
	}
	if !before.Matches(pos) {
		t.Fatal("rejected quiet move changed the position")
	}

	capture := findMove(t, pos, "e4d5")
	if !pos.Apply(capture, CapturesOnly) {
		t.Fatal("capture rejected in captures-only mode")
	}
	if pos.Pieces[BlackPawn] != 0 {
		t.Error("captured pawn still on the board")
	}
}

func TestCastlingThroughCheck(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		move string
		ok   bool
	}{
		{"clear path", "4k3/8/8/8/8/8/8/4K2R w K - 0 1", "e1g1", true},
		{"king in check", "4k3/8/8/8/8/8/4r3/4K2R w K - 0 1", "e1g1", false},
		{"f1 attacked", "4k3/8/8/8/8/8/5r2/4K2R w K - 0 1", "e1g1", false},
		{"g1 attacked", "4k3/8/8/8/8/8/6r1/4K2R w K - 0 1", "e1g1", false},
		{"b1 attacked only", "4k3/8/8/8/8/8/1r6/R3K3 w Q - 0 1", "e1c1", true},
		{"d1 attacked", "4k3/8/8/8/8/8/3r4/R3K3 w Q - 0 1", "e1c1", false},
		{"b1 occupied", "4k3/8/8/8/8/8/8/RN2K3 w Q - 0 1", "e1c1", false},
		{"no rights", "4k3/8/8/8/8/8/8/4K2R w - - 0 1", "e1g1", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatalf("ParseFEN: %v", err)
			}
			got := pos.ParseUserMove(tc.move) != NoMove
			if got != tc.ok {
				t.Errorf("castling %s available = %v, want %v", tc.move, got, tc.ok)
			}
		})
	}
}

func TestCheckmate(t *testing.T) {
	// Back rank mate: black king on h8 boxed in by its own pawns
	pos, err := ParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	if !pos.InCheck() {
		t.Error("expected black to be in check")
	}
	if pos.HasLegalMoves() {
		t.Errorf("expected no legal moves, got %v", pos.LegalMoves())
	}
	if !pos.IsCheckmate() {
		t.Error("Expected checkmate but got false")
	}
}

func TestNotCheckmate(t *testing.T) {
	// The king can capture the checking rook
	pos, err := ParseFEN("6Rk/8/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	if !pos.InCheck() {
		t.Error("expected black to be in check")
	}
	if pos.IsCheckmate() {
		t.Error("Expected NOT checkmate but got true")
	}
}

func TestStalemate(t *testing.T) {
	pos, _ := ParseFEN("7k/5Q2/8/8/8/8/8/K7 b - - 0 1")
	if !pos.IsStalemate() {
		t.Error("expected stalemate")
	}
}

func TestInsufficientMaterial(t *testing.T) {
	tests := []struct {
		fen  string
		want bool
	}{
		{"4k3/8/8/8/8/8/8/4K3 w - - 0 1", true},
		{"4k3/8/8/8/8/8/8/4KB2 w - - 0 1", true},
		{"4k3/8/8/8/8/8/8/3NKB2 w - - 0 1", false},
		{"4k3/8/8/8/8/8/4P3/4K3 w - - 0 1", false},
	}
	for _, tc := range tests {
		pos, _ := ParseFEN(tc.fen)
		if got := pos.IsInsufficientMaterial(); got != tc.want {
			t.Errorf("%s: IsInsufficientMaterial = %v, want %v", tc.fen, got, tc.want)
		}
	}
}
