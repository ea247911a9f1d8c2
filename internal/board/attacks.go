package board

// Pre-computed attack tables for non-sliding pieces
var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard // [Color][Square]
)

func init() {
	initKnightAttacks()
	initKingAttacks()
	initPawnAttacks()
	initMagics() // From magic.go
}

func initKnightAttacks() {
	for sq := A8; sq <= H1; sq++ {
		bb := SquareBB(sq)

		// Knight moves: 2+1 or 1+2 in any direction
		attacks := Empty

		attacks |= (bb >> 17) & NotFileH
		attacks |= (bb >> 15) & NotFileA
		attacks |= (bb >> 10) & NotFileGH
		attacks |= (bb >> 6) & NotFileAB
		attacks |= (bb << 17) & NotFileA
		attacks |= (bb << 15) & NotFileH
		attacks |= (bb << 10) & NotFileAB
		attacks |= (bb << 6) & NotFileGH

		knightAttacks[sq] = attacks
	}
}

func initKingAttacks() {
	for sq := A8; sq <= H1; sq++ {
		bb := SquareBB(sq)

		attacks := bb>>8 | bb<<8
		attacks |= (bb >> 9) & NotFileH
		attacks |= (bb >> 7) & NotFileA
		attacks |= (bb >> 1) & NotFileH
		attacks |= (bb << 9) & NotFileA
		attacks |= (bb << 7) & NotFileH
		attacks |= (bb << 1) & NotFileA

		kingAttacks[sq] = attacks
	}
}

func initPawnAttacks() {
	for sq := A8; sq <= H1; sq++ {
		bb := SquareBB(sq)

		// White pawns capture toward rank 8 (lower indexes)
		pawnAttacks[White][sq] = (bb>>7)&NotFileA | (bb>>9)&NotFileH

		// Black pawns capture toward rank 1 (higher indexes)
		pawnAttacks[Black][sq] = (bb<<7)&NotFileH | (bb<<9)&NotFileA
	}
}

// KnightAttacks returns the knight attack bitboard for a square.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the king attack bitboard for a square.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the pawn attack bitboard for a square and color.
func PawnAttacks(sq Square, c Color) Bitboard {
	return pawnAttacks[c][sq]
}

// BishopAttacks returns the bishop attack bitboard for a square with given occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return getBishopAttacks(sq, occupied)
}

// RookAttacks returns the rook attack bitboard for a square with given occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return getRookAttacks(sq, occupied)
}

// QueenAttacks returns the queen attack bitboard for a square with given occupancy.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return getBishopAttacks(sq, occupied) | getRookAttacks(sq, occupied)
}

// IsSquareAttacked returns true if the square is attacked by any piece of the given color.
// It stops at the first attacker found.
func (p *Position) IsSquareAttacked(sq Square, by Color) bool {
	if sq >= NoSquare {
		return false
	}

	first, _ := piecesOf(by)
	occupied := p.Occupancies[Both]

	// A pawn of color `by` attacks sq if a pawn of the other color on sq would attack it back.
	if pawnAttacks[by.Other()][sq]&p.Pieces[first+Piece(Pawn)] != 0 {
		return true
	}
	if knightAttacks[sq]&p.Pieces[first+Piece(Knight)] != 0 {
		return true
	}
	if getBishopAttacks(sq, occupied)&p.Pieces[first+Piece(Bishop)] != 0 {
		return true
	}
	if getRookAttacks(sq, occupied)&p.Pieces[first+Piece(Rook)] != 0 {
		return true
	}
	if QueenAttacks(sq, occupied)&p.Pieces[first+Piece(Queen)] != 0 {
		return true
	}
	return kingAttacks[sq]&p.Pieces[first+Piece(King)] != 0
}

// Attacked is shorthand for IsSquareAttacked.
func (p *Position) Attacked(sq Square, by Color) bool {
	return p.IsSquareAttacked(sq, by)
}
