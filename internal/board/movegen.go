package board

// DebugMoveValidation enables diagnostic logging when Apply rejects a move
// or finds the position in an inconsistent state.
var DebugMoveValidation = false

// GenerateMoves fills ml with every pseudo-legal move for the side to move.
// Moves are emitted piece by piece in bitboard order (P N B R Q K or p n b r q k),
// squares in ascending index order. Moves may leave the mover's king attacked;
// Apply filters those out.
func (p *Position) GenerateMoves(ml *MoveList) {
	ml.Clear()

	us := p.Side
	first, last := piecesOf(us)
	own := p.Occupancies[us]
	occupied := p.Occupancies[Both]

	for piece := first; piece <= last; piece++ {
		bb := p.Pieces[piece]

		switch piece.Type() {
		case Pawn:
			p.generatePawnMoves(ml, piece, bb)
			continue
		case King:
			p.generateCastlingMoves(ml, us)
		}

		for bb != 0 {
			from := bb.PopLSB()

			var attacks Bitboard
			switch piece.Type() {
			case Knight:
				attacks = KnightAttacks(from)
			case Bishop:
				attacks = BishopAttacks(from, occupied)
			case Rook:
				attacks = RookAttacks(from, occupied)
			case Queen:
				attacks = QueenAttacks(from, occupied)
			case King:
				attacks = KingAttacks(from)
			}
			attacks &^= own

			for attacks != 0 {
				to := attacks.PopLSB()
				capture := p.Occupancies[us.Other()].IsSet(to)
				ml.Add(EncodeMove(from, to, piece, 0, capture, false, false, false))
			}
		}
	}
}

// generatePawnMoves generates pushes, captures, promotions and en passant for one pawn bitboard.
func (p *Position) generatePawnMoves(ml *MoveList, piece Piece, pawns Bitboard) {
	us := piece.Color()
	enemies := p.Occupancies[us.Other()]
	occupied := p.Occupancies[Both]

	// White pawns move toward index 0, black toward index 63.
	dir := -8
	promoRank, startRank := Rank7, Rank2
	if us == Black {
		dir = 8
		promoRank, startRank = Rank2, Rank7
	}

	for pawns != 0 {
		from := pawns.PopLSB()
		fromBB := SquareBB(from)
		to := Square(int(from) + dir)

		// Quiet pushes
		if to < NoSquare && !occupied.IsSet(to) {
			if fromBB&promoRank != 0 {
				addPromotions(ml, from, to, piece, false)
			} else {
				ml.Add(EncodeMove(from, to, piece, 0, false, false, false, false))

				double := Square(int(to) + dir)
				if fromBB&startRank != 0 && !occupied.IsSet(double) {
					ml.Add(EncodeMove(from, double, piece, 0, false, true, false, false))
				}
			}
		}

		// Captures
		attacks := pawnAttacks[us][from] & enemies
		for attacks != 0 {
			target := attacks.PopLSB()
			if fromBB&promoRank != 0 {
				addPromotions(ml, from, target, piece, true)
			} else {
				ml.Add(EncodeMove(from, target, piece, 0, true, false, false, false))
			}
		}

		// En passant
		if p.EnPassant != NoSquare && pawnAttacks[us][from]&SquareBB(p.EnPassant) != 0 {
			ml.Add(EncodeMove(from, p.EnPassant, piece, 0, true, false, true, false))
		}
	}
}

// addPromotions adds all four promotion moves, queen first.
func addPromotions(ml *MoveList, from, to Square, pawn Piece, capture bool) {
	c := pawn.Color()
	for _, pt := range [...]PieceType{Queen, Rook, Bishop, Knight} {
		ml.Add(EncodeMove(from, to, pawn, NewPiece(pt, c), capture, false, false, false))
	}
}

// generateCastlingMoves generates castling moves. The squares between king and
// rook must be empty and neither the king's square nor the square it passes
// over may be attacked. The destination square is checked by Apply.
func (p *Position) generateCastlingMoves(ml *MoveList, us Color) {
	them := us.Other()
	occupied := p.Occupancies[Both]
	king := NewPiece(King, us)

	if us == White {
		// Kingside (O-O)
		if p.Castling&WhiteKingSideCastle != 0 &&
			occupied&(SquareBB(F1)|SquareBB(G1)) == 0 &&
			!p.IsSquareAttacked(E1, them) && !p.IsSquareAttacked(F1, them) {
			ml.Add(EncodeMove(E1, G1, king, 0, false, false, false, true))
		}

		// Queenside (O-O-O)
		if p.Castling&WhiteQueenSideCastle != 0 &&
			occupied&(SquareBB(D1)|SquareBB(C1)|SquareBB(B1)) == 0 &&
			!p.IsSquareAttacked(E1, them) && !p.IsSquareAttacked(D1, them) {
			ml.Add(EncodeMove(E1, C1, king, 0, false, false, false, true))
		}
		return
	}

	if p.Castling&BlackKingSideCastle != 0 &&
		occupied&(SquareBB(F8)|SquareBB(G8)) == 0 &&
		!p.IsSquareAttacked(E8, them) && !p.IsSquareAttacked(F8, them) {
		ml.Add(EncodeMove(E8, G8, king, 0, false, false, false, true))
	}

	if p.Castling&BlackQueenSideCastle != 0 &&
		occupied&(SquareBB(D8)|SquareBB(C8)|SquareBB(B8)) == 0 &&
		!p.IsSquareAttacked(E8, them) && !p.IsSquareAttacked(D8, them) {
		ml.Add(EncodeMove(E8, C8, king, 0, false, false, false, true))
	}
}
