package board

import "log"

// MoveMode selects which moves Apply accepts.
type MoveMode uint8

const (
	// AllMoves applies any pseudo-legal move.
	AllMoves MoveMode = iota
	// CapturesOnly rejects moves without the capture flag before touching the position.
	CapturesOnly
)

// castlingRightsMask narrows castling rights when a move touches a king or rook home square.
// Rights are ANDed with the entry for both source and target.
var castlingRightsMask = [64]CastlingRights{
	7, 15, 15, 15, 3, 15, 15, 11,
	15, 15, 15, 15, 15, 15, 15, 15,
	15, 15, 15, 15, 15, 15, 15, 15,
	15, 15, 15, 15, 15, 15, 15, 15,
	15, 15, 15, 15, 15, 15, 15, 15,
	15, 15, 15, 15, 15, 15, 15, 15,
	15, 15, 15, 15, 15, 15, 15, 15,
	13, 15, 15, 15, 12, 15, 15, 14,
}

// Apply plays a pseudo-legal move. It returns false and leaves the position
// bit-for-bit unchanged when the move is rejected by mode or would leave the
// mover's king attacked.
func (p *Position) Apply(m Move, mode MoveMode) bool {
	if mode == CapturesOnly && !m.IsCapture() {
		return false
	}

	snap := p.Snapshot()

	from, to := m.Source(), m.Target()
	piece := m.Piece()
	us := p.Side
	them := us.Other()

	// Move the piece
	p.Pieces[piece] = p.Pieces[piece].Clear(from).Set(to)

	if m.IsCapture() {
		first, last := piecesOf(them)
		for pc := first; pc <= last; pc++ {
			if p.Pieces[pc].IsSet(to) {
				p.Pieces[pc] = p.Pieces[pc].Clear(to)
				break
			}
		}
	}

	if m.IsPromotion() {
		p.Pieces[piece] = p.Pieces[piece].Clear(to)
		promoted := m.Promoted()
		p.Pieces[promoted] = p.Pieces[promoted].Set(to)
	}

	if m.IsEnPassant() {
		if us == White {
			p.Pieces[BlackPawn] = p.Pieces[BlackPawn].Clear(to + 8)
		} else {
			p.Pieces[WhitePawn] = p.Pieces[WhitePawn].Clear(to - 8)
		}
	}

	p.EnPassant = NoSquare
	if m.IsDoublePush() {
		if us == White {
			p.EnPassant = to + 8
		} else {
			p.EnPassant = to - 8
		}
	}

	if m.IsCastling() {
		var rookFrom, rookTo Square
		switch to {
		case G1:
			rookFrom, rookTo = H1, F1
		case C1:
			rookFrom, rookTo = A1, D1
		case G8:
			rookFrom, rookTo = H8, F8
		case C8:
			rookFrom, rookTo = A8, D8
		}
		if rookFrom != rookTo {
			rook := NewPiece(Rook, us)
			p.Pieces[rook] = p.Pieces[rook].Clear(rookFrom).Set(rookTo)
		}
	}

	p.Castling &= castlingRightsMask[from]
	p.Castling &= castlingRightsMask[to]

	p.updateOccupancies()
	p.Side = them

	// The mover is now the side not to move; its king must not be attacked by the new side to move.
	kingSq := p.Pieces[NewPiece(King, p.Side.Other())].LSB()
	if kingSq != NoSquare && p.IsSquareAttacked(kingSq, p.Side) {
		if DebugMoveValidation {
			log.Printf("apply: %v leaves %v king on %v attacked", m, us, kingSq)
		}
		p.Undo(snap)
		return false
	}

	return true
}

// LegalMoves returns the pseudo-legal moves that Apply accepts, in generation order.
func (p *Position) LegalMoves() []Move {
	var ml MoveList
	p.GenerateMoves(&ml)

	legal := make([]Move, 0, ml.Len())
	snap := p.Snapshot()
	for _, m := range ml.Slice() {
		if p.Apply(m, AllMoves) {
			legal = append(legal, m)
		}
		p.Undo(snap)
	}
	return legal
}

// HasLegalMoves returns true if the side to move has any legal moves.
func (p *Position) HasLegalMoves() bool {
	var ml MoveList
	p.GenerateMoves(&ml)

	snap := p.Snapshot()
	for _, m := range ml.Slice() {
		legal := p.Apply(m, AllMoves)
		p.Undo(snap)
		if legal {
			return true
		}
	}
	return false
}

// InCheck returns true if the side to move is in check.
func (p *Position) InCheck() bool {
	kingSq := p.KingSquare(p.Side)
	return kingSq != NoSquare && p.IsSquareAttacked(kingSq, p.Side.Other())
}

// IsCheckmate returns true if the position is checkmate.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate returns true if the position is stalemate.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsInsufficientMaterial returns true if neither side can checkmate.
func (p *Position) IsInsufficientMaterial() bool {
	if p.Pieces[WhitePawn]|p.Pieces[BlackPawn]|
		p.Pieces[WhiteRook]|p.Pieces[BlackRook]|
		p.Pieces[WhiteQueen]|p.Pieces[BlackQueen] != 0 {
		return false
	}

	whiteMinors := (p.Pieces[WhiteKnight] | p.Pieces[WhiteBishop]).PopCount()
	blackMinors := (p.Pieces[BlackKnight] | p.Pieces[BlackBishop]).PopCount()

	// K vs K, K+minor vs K
	return whiteMinors+blackMinors <= 1
}
