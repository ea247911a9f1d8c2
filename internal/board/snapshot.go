package board

// Snapshot is a value copy of every mutable Position field.
// It is captured before a move is applied and restored verbatim by Undo.
// Size: ~130 bytes, stack-allocated, no GC pressure.
type Snapshot struct {
	Pieces      [PieceCount]Bitboard
	Occupancies [3]Bitboard
	Side        Color
	EnPassant   Square
	Castling    CastlingRights
}

// Snapshot captures the current state of the position.
func (p *Position) Snapshot() Snapshot {
	return Snapshot{
		Pieces:      p.Pieces,
		Occupancies: p.Occupancies,
		Side:        p.Side,
		EnPassant:   p.EnPassant,
		Castling:    p.Castling,
	}
}

// Undo overwrites the position with a previously captured snapshot.
func (p *Position) Undo(s Snapshot) {
	p.Pieces = s.Pieces
	p.Occupancies = s.Occupancies
	p.Side = s.Side
	p.EnPassant = s.EnPassant
	p.Castling = s.Castling
}

// Matches reports whether the position is bit-for-bit equal to the snapshot.
func (s Snapshot) Matches(p *Position) bool {
	return s == p.Snapshot()
}
