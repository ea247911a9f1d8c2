package board

import (
	"fmt"
	"strings"
)

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// CanCastle returns true if the given side can castle in the given direction.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	if c == White {
		if kingSide {
			return cr&WhiteKingSideCastle != 0
		}
		return cr&WhiteQueenSideCastle != 0
	}
	if kingSide {
		return cr&BlackKingSideCastle != 0
	}
	return cr&BlackQueenSideCastle != 0
}

// Position represents a complete chess position.
// A Position is owned by a single goroutine; the attack tables it reads are shared.
type Position struct {
	// Piece bitboards indexed by Piece (P N B R Q K p n b r q k)
	Pieces [PieceCount]Bitboard

	// Occupancy bitboards indexed by White, Black and Both.
	// Occupancies[Both] == Occupancies[White] | Occupancies[Black] after every mutation.
	Occupancies [3]Bitboard

	Side      Color
	EnPassant Square // Target square for en passant, NoSquare if none
	Castling  CastlingRights
}

// NewPosition creates the starting position.
func NewPosition() *Position {
	pos, _ := ParseFEN(StartFEN)
	return pos
}

// Copy creates a deep copy of the position.
func (p *Position) Copy() *Position {
	newPos := *p
	return &newPos
}

// SideToMove returns the side to move.
func (p *Position) SideToMove() Color {
	return p.Side
}

// Bitboards returns the 12 raw piece bitboards.
func (p *Position) Bitboards() [PieceCount]Bitboard {
	return p.Pieces
}

// Occupied reports whether the square with the given index holds any piece.
// Indexes outside 0-63 are never occupied.
func (p *Position) Occupied(index int) bool {
	sq := SquareFromIndex(index)
	if sq == NoSquare {
		return false
	}
	return p.Occupancies[Both].IsSet(sq)
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	if sq >= NoSquare {
		return NoPiece
	}
	bb := SquareBB(sq)

	if p.Occupancies[Both]&bb == 0 {
		return NoPiece
	}

	first, last := piecesOf(White)
	if p.Occupancies[Black]&bb != 0 {
		first, last = piecesOf(Black)
	}

	for pc := first; pc <= last; pc++ {
		if p.Pieces[pc]&bb != 0 {
			return pc
		}
	}

	return NoPiece
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return p.Occupancies[Both]&SquareBB(sq) == 0
}

// KingSquare returns the king square of the given color, or NoSquare if it has no king.
func (p *Position) KingSquare(c Color) Square {
	return p.Pieces[NewPiece(King, c)].LSB()
}

// updateOccupancies recalculates occupancy bitboards from piece bitboards.
func (p *Position) updateOccupancies() {
	p.Occupancies[White] = Empty
	p.Occupancies[Black] = Empty

	for pc := WhitePawn; pc <= WhiteKing; pc++ {
		p.Occupancies[White] |= p.Pieces[pc]
	}
	for pc := BlackPawn; pc <= BlackKing; pc++ {
		p.Occupancies[Black] |= p.Pieces[pc]
	}

	p.Occupancies[Both] = p.Occupancies[White] | p.Occupancies[Black]
}

// Clear resets the position to an empty board.
func (p *Position) Clear() {
	*p = Position{EnPassant: NoSquare}
}

// String returns the diagnostic dump of the position: rank 8 at the top,
// '0' for empty squares, followed by side, en passant and castling lines.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteByte('\n')
	for row := 0; row < 8; row++ {
		fmt.Fprintf(&sb, "  %d ", 8-row)
		for file := 0; file < 8; file++ {
			piece := p.PieceAt(NewSquare(file, row))
			if piece == NoPiece {
				sb.WriteString(" 0")
			} else {
				sb.WriteString(" " + piece.String())
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("     a b c d e f g h\n\n")

	fmt.Fprintf(&sb, "     Side:      %s\n", p.Side)
	if p.EnPassant != NoSquare {
		fmt.Fprintf(&sb, "     Enpassant: %s\n", p.EnPassant)
	} else {
		sb.WriteString("     Enpassant: no\n")
	}

	castle := []byte("----")
	for i, c := range "KQkq" {
		if p.Castling&(1<<i) != 0 {
			castle[i] = byte(c)
		}
	}
	fmt.Fprintf(&sb, "     Castling:  %s\n", castle)
	return sb.String()
}

// Validate checks that the position is playable.
func (p *Position) Validate() error {
	if p.Pieces[WhiteKing].PopCount() != 1 {
		return fmt.Errorf("white must have exactly one king")
	}
	if p.Pieces[BlackKing].PopCount() != 1 {
		return fmt.Errorf("black must have exactly one king")
	}
	if (p.Pieces[WhitePawn]|p.Pieces[BlackPawn])&(Rank1|Rank8) != 0 {
		return fmt.Errorf("pawns cannot be on rank 1 or 8")
	}
	if reason := p.castlingProblem(); reason != "" {
		return fmt.Errorf("%s", reason)
	}
	if reason := p.enPassantProblem(); reason != "" {
		return fmt.Errorf("%s", reason)
	}
	if p.IsSquareAttacked(p.KingSquare(p.Side.Other()), p.Side) {
		return fmt.Errorf("side not to move is in check")
	}
	return nil
}
