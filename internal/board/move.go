package board

import "fmt"

// Move encodes a chess move in 24 bits:
// bits 0-5:   source square (0-63)
// bits 6-11:  target square (0-63)
// bits 12-15: moving piece
// bits 16-19: promoted piece (0 = none)
// bit 20:     capture flag
// bit 21:     double pawn push flag
// bit 22:     en passant flag
// bit 23:     castling flag
type Move uint32

// Move flags
const (
	FlagCapture   Move = 0x100000
	FlagDouble    Move = 0x200000
	FlagEnPassant Move = 0x400000
	FlagCastling  Move = 0x800000
)

// NoMove represents an invalid or null move.
const NoMove Move = 0

// EncodeMove packs a move. No validation is performed; promoted is WhitePawn
// (zero) when the move is not a promotion.
func EncodeMove(source, target Square, piece, promoted Piece, capture, double, enPassant, castling bool) Move {
	m := Move(source) | Move(target)<<6 | Move(piece)<<12 | Move(promoted)<<16
	if capture {
		m |= FlagCapture
	}
	if double {
		m |= FlagDouble
	}
	if enPassant {
		m |= FlagEnPassant
	}
	if castling {
		m |= FlagCastling
	}
	return m
}

// Source returns the origin square.
func (m Move) Source() Square {
	return Square(m & 0x3F)
}

// Target returns the destination square.
func (m Move) Target() Square {
	return Square((m >> 6) & 0x3F)
}

// Piece returns the moving piece.
func (m Move) Piece() Piece {
	return Piece((m >> 12) & 0xF)
}

// Promoted returns the promoted piece, or WhitePawn (zero) when the move does not promote.
func (m Move) Promoted() Piece {
	return Piece((m >> 16) & 0xF)
}

// IsPromotion returns true if this is a promotion move.
func (m Move) IsPromotion() bool {
	return m.Promoted() != 0
}

// IsCapture returns true if this move captures a piece.
func (m Move) IsCapture() bool {
	return m&FlagCapture != 0
}

// IsDoublePush returns true if this is a pawn's two-square advance.
func (m Move) IsDoublePush() bool {
	return m&FlagDouble != 0
}

// IsEnPassant returns true if this is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m&FlagEnPassant != 0
}

// IsCastling returns true if this is a castling move (king's movement).
func (m Move) IsCastling() bool {
	return m&FlagCastling != 0
}

// IsQuiet returns true if this is not a capture or promotion.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// String returns the coordinate form of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	s := m.Source().String() + m.Target().String()

	if m.IsPromotion() {
		s += string(promotionChar(m.Promoted().Type()))
	}

	return s
}

func promotionChar(pt PieceType) byte {
	switch pt {
	case Queen:
		return 'q'
	case Rook:
		return 'r'
	case Bishop:
		return 'b'
	case Knight:
		return 'n'
	}
	return 0
}

// ParseUserMove matches coordinate text such as "e2e4" or "e7e8q" against the
// moves available in the position. It returns NoMove when the text is malformed
// or names no legal move. A promotion needs its lowercase piece letter.
func (p *Position) ParseUserMove(text string) Move {
	if len(text) != 4 && len(text) != 5 {
		return NoMove
	}

	source, err := ParseSquare(text[0:2])
	if err != nil {
		return NoMove
	}
	target, err := ParseSquare(text[2:4])
	if err != nil {
		return NoMove
	}

	var ml MoveList
	p.GenerateMoves(&ml)

	for _, m := range ml.Slice() {
		if m.Source() != source || m.Target() != target {
			continue
		}
		if m.IsPromotion() {
			if len(text) != 5 || text[4] != promotionChar(m.Promoted().Type()) {
				continue
			}
		} else if len(text) == 5 {
			continue
		}

		// The generator is pseudo-legal; only report moves that keep the king safe.
		snap := p.Snapshot()
		legal := p.Apply(m, AllMoves)
		p.Undo(snap)
		if legal {
			return m
		}
	}

	return NoMove
}

// ParseMove is ParseUserMove with an error for callers that want one.
func ParseMove(s string, pos *Position) (Move, error) {
	m := pos.ParseUserMove(s)
	if m == NoMove {
		return NoMove, fmt.Errorf("illegal or invalid move: %s", s)
	}
	return m, nil
}

// MaxMoves is the capacity of a MoveList, above the worst-case branching factor.
const MaxMoves = 256

// MoveList is a fixed-size list of moves to avoid allocations.
// Insertion order is generation order.
type MoveList struct {
	moves [MaxMoves]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Clear clears the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}
