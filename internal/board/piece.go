package board

// Color represents the side a piece belongs to. Both indexes the combined occupancy.
type Color uint8

const (
	White Color = iota
	Black
	Both
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "both"
	}
}

// PieceType represents the kind of a chess piece regardless of color.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType PieceType = 6
)

// String returns the piece type name.
func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return "None"
	}
}

// Piece is one of the 12 colored pieces, encoded as pieceType + color*6.
// The numeric order P N B R Q K p n b r q k is also the bitboard index order.
type Piece uint8

const (
	WhitePawn Piece = iota
	WhiteKnight
	WhiteBishop
	WhiteRook
	WhiteQueen
	WhiteKing
	BlackPawn
	BlackKnight
	BlackBishop
	BlackRook
	BlackQueen
	BlackKing

	// NoPiece marks an empty square in board lookups. It is never stored in a move.
	NoPiece Piece = 12
)

// PieceCount is the number of piece bitboards in a position.
const PieceCount = 12

// NewPiece creates a Piece from PieceType and Color.
func NewPiece(pt PieceType, c Color) Piece {
	if pt >= NoPieceType || c >= Both {
		return NoPiece
	}
	return Piece(pt) + Piece(c)*6
}

// PieceFromIndex converts an int to a Piece. Out-of-range values map to WhitePawn.
func PieceFromIndex(i int) Piece {
	if i < 0 || i >= PieceCount {
		return WhitePawn
	}
	return Piece(i)
}

// Type returns the PieceType of the piece.
func (p Piece) Type() PieceType {
	if p >= NoPiece {
		return NoPieceType
	}
	return PieceType(p % 6)
}

// Color returns the Color of the piece.
func (p Piece) Color() Color {
	if p >= NoPiece {
		return Both
	}
	return Color(p / 6)
}

const pieceChars = "PNBRQKpnbrqk"

// String returns the FEN character for the piece.
// Uppercase for white, lowercase for black.
func (p Piece) String() string {
	if p >= NoPiece {
		return " "
	}
	return string(pieceChars[p])
}

// PieceFromChar converts a FEN character to a Piece.
func PieceFromChar(c byte) Piece {
	for i := 0; i < PieceCount; i++ {
		if pieceChars[i] == c {
			return Piece(i)
		}
	}
	return NoPiece
}

// piecesOf returns the first and last piece index belonging to a color.
func piecesOf(c Color) (Piece, Piece) {
	if c == White {
		return WhitePawn, WhiteKing
	}
	return BlackPawn, BlackKing
}
