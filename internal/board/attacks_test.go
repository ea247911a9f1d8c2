package board

import (
	"math/rand"
	"testing"
)

func TestLeaperAttacks(t *testing.T) {
	tests := []struct {
		name     string
		attacks  Bitboard
		expected []Square
	}{
		{"knight a8", KnightAttacks(A8), []Square{C7, B6}},
		{"knight h1", KnightAttacks(H1), []Square{F2, G3}},
		{"knight d4", KnightAttacks(D4), []Square{C6, E6, B5, F5, B3, F3, C2, E2}},
		{"king a1", KingAttacks(A1), []Square{A2, B2, B1}},
		{"king e4", KingAttacks(E4), []Square{D5, E5, F5, D4, F4, D3, E3, F3}},
		{"white pawn e4", PawnAttacks(E4, White), []Square{D5, F5}},
		{"white pawn a2", PawnAttacks(A2, White), []Square{B3}},
		{"black pawn h7", PawnAttacks(H7, Black), []Square{G6}},
		{"black pawn d5", PawnAttacks(D5, Black), []Square{C4, E4}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var want Bitboard
			for _, sq := range tc.expected {
				want = want.Set(sq)
			}
			if tc.attacks != want {
				t.Errorf("got\n%v\nwant\n%v", tc.attacks, want)
			}
		})
	}
}

// bruteForceAttacked reports whether any pseudo-legal move of side by reaches sq,
// counting pawn diagonals whether or not they capture.
func bruteForceAttacked(p *Position, sq Square, by Color) bool {
	trial := p.Copy()
	trial.Side = by
	trial.EnPassant = NoSquare
	trial.Castling = NoCastling

	// Put an enemy piece on sq so pawn captures toward it are generated.
	if trial.IsEmpty(sq) {
		trial.Pieces[NewPiece(Knight, by.Other())] |= SquareBB(sq)
		trial.updateOccupancies()
	}

	var ml MoveList
	trial.GenerateMoves(&ml)
	for _, m := range ml.Slice() {
		if m.Target() != sq {
			continue
		}
		// Pawn pushes do not attack
		if m.Piece().Type() == Pawn && !m.IsCapture() {
			continue
		}
		return true
	}
	return false
}

func TestIsSquareAttackedMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	}

	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("Failed to parse FEN: %v", err)
		}

		for ply := 0; ply < 40; ply++ {
			for sq := A8; sq <= H1; sq++ {
				for _, by := range []Color{White, Black} {
					// Squares holding a piece of the attacker itself are excluded: a move can't target them.
					if pos.Occupancies[by].IsSet(sq) {
						continue
					}
					got := pos.IsSquareAttacked(sq, by)
					want := bruteForceAttacked(pos, sq, by)
					if got != want {
						t.Fatalf("%s: attacked(%v, %v) = %v, brute force %v", pos.FEN(), sq, by, got, want)
					}
				}
			}

			legal := pos.LegalMoves()
			if len(legal) == 0 {
				break
			}
			pos.Apply(legal[rng.Intn(len(legal))], AllMoves)
		}
	}
}

func TestIsSquareAttackedNoSquare(t *testing.T) {
	pos := NewPosition()
	if pos.Attacked(NoSquare, White) {
		t.Error("NoSquare should never be attacked")
	}
}
