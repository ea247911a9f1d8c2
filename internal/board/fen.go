package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// InvalidFenError reports a FEN string that does not describe a position.
type InvalidFenError struct {
	FEN    string
	Reason string
}

func (e *InvalidFenError) Error() string {
	return fmt.Sprintf("invalid FEN %q: %s", e.FEN, e.Reason)
}

// ParseFEN parses a FEN string and returns a Position.
// The half-move clock and full-move number are optional; when present they
// must be non-negative integers but are not kept.
func ParseFEN(fen string) (*Position, error) {
	invalid := func(format string, args ...any) error {
		return &InvalidFenError{FEN: fen, Reason: fmt.Sprintf(format, args...)}
	}

	parts := strings.Fields(fen)
	if len(parts) < 4 || len(parts) > 6 {
		return nil, invalid("need 4 to 6 fields, got %d", len(parts))
	}

	pos := &Position{EnPassant: NoSquare}

	// Parse piece placement (field 0)
	if reason := parsePiecePlacement(pos, parts[0]); reason != "" {
		return nil, invalid("%s", reason)
	}

	// Parse side to move (field 1)
	switch parts[1] {
	case "w":
		pos.Side = White
	case "b":
		pos.Side = Black
	default:
		return nil, invalid("invalid side to move: %s", parts[1])
	}

	// Parse castling rights (field 2)
	if reason := parseCastlingRights(pos, parts[2]); reason != "" {
		return nil, invalid("%s", reason)
	}

	// Parse en passant square (field 3)
	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, invalid("invalid en passant square: %s", parts[3])
		}
		pos.EnPassant = sq
	}

	pos.updateOccupancies()

	if reason := pos.castlingProblem(); reason != "" {
		return nil, invalid("%s", reason)
	}
	if reason := pos.enPassantProblem(); reason != "" {
		return nil, invalid("%s", reason)
	}

	// Half-move clock and full-move number (fields 4 and 5, optional)
	for i, name := range []string{"half-move clock", "full-move number"} {
		if len(parts) > 4+i {
			n, err := strconv.Atoi(parts[4+i])
			if err != nil || n < 0 {
				return nil, invalid("invalid %s: %s", name, parts[4+i])
			}
		}
	}

	return pos, nil
}

// parsePiecePlacement parses the piece placement section of a FEN string.
// It returns a non-empty reason when the placement is malformed.
func parsePiecePlacement(pos *Position, placement string) string {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Sprintf("need 8 ranks, got %d", len(ranks))
	}

	for row, rankStr := range ranks {
		rank := 8 - row // FEN starts from rank 8
		file := 0

		for _, c := range rankStr {
			if file > 7 {
				return fmt.Sprintf("too many squares in rank %d", rank)
			}

			if c >= '1' && c <= '8' {
				// Skip empty squares
				file += int(c - '0')
				continue
			}

			piece := PieceFromChar(byte(c))
			if c > 0x7f || piece == NoPiece {
				return fmt.Sprintf("invalid piece character: %c", c)
			}
			pos.Pieces[piece] = pos.Pieces[piece].Set(NewSquare(file, row))
			file++
		}

		if file != 8 {
			return fmt.Sprintf("invalid number of squares in rank %d: got %d", rank, file)
		}
	}

	return ""
}

// parseCastlingRights parses the castling rights section of a FEN string.
func parseCastlingRights(pos *Position, castling string) string {
	if castling == "-" {
		pos.Castling = NoCastling
		return ""
	}

	for _, c := range castling {
		var right CastlingRights
		switch c {
		case 'K':
			right = WhiteKingSideCastle
		case 'Q':
			right = WhiteQueenSideCastle
		case 'k':
			right = BlackKingSideCastle
		case 'q':
			right = BlackQueenSideCastle
		default:
			return fmt.Sprintf("invalid castling character: %c", c)
		}
		if pos.Castling&right != 0 {
			return fmt.Sprintf("repeated castling character: %c", c)
		}
		pos.Castling |= right
	}

	return ""
}

// castlingHomes lists the king and rook squares each castling right depends on.
var castlingHomes = [...]struct {
	right      CastlingRights
	letter     byte
	king, rook Piece
	kingSq     Square
	rookSq     Square
}{
	{WhiteKingSideCastle, 'K', WhiteKing, WhiteRook, E1, H1},
	{WhiteQueenSideCastle, 'Q', WhiteKing, WhiteRook, E1, A1},
	{BlackKingSideCastle, 'k', BlackKing, BlackRook, E8, H8},
	{BlackQueenSideCastle, 'q', BlackKing, BlackRook, E8, A8},
}

// castlingProblem returns a non-empty reason when a castling right is set
// but its king or rook is not on its home square.
func (p *Position) castlingProblem() string {
	for _, h := range castlingHomes {
		if p.Castling&h.right == 0 {
			continue
		}
		if !p.Pieces[h.king].IsSet(h.kingSq) || !p.Pieces[h.rook].IsSet(h.rookSq) {
			return fmt.Sprintf("castling right %c needs king on %v and rook on %v", h.letter, h.kingSq, h.rookSq)
		}
	}
	return ""
}

// enPassantProblem returns a non-empty reason when the en passant square does
// not follow a double push by the side not to move: it must be on rank 6 with
// white to move (rank 3 with black), empty, with the pushed pawn right beyond
// it and the square it came from empty.
func (p *Position) enPassantProblem() string {
	ep := p.EnPassant
	if ep == NoSquare {
		return ""
	}

	// White moves toward lower indexes, so the pushed black pawn is one row below the square.
	rank, pawn, pushed, origin := 6, BlackPawn, ep+8, ep-8
	if p.Side == Black {
		rank, pawn, pushed, origin = 3, WhitePawn, ep-8, ep+8
	}

	switch {
	case ep.Rank() != rank:
		return fmt.Sprintf("en passant square %v must be on rank %d with %v to move", ep, rank, p.Side)
	case !p.Pieces[pawn].IsSet(pushed):
		return fmt.Sprintf("en passant square %v has no %v pawn on %v", ep, p.Side.Other(), pushed)
	case p.Occupancies[Both]&(SquareBB(ep)|SquareBB(origin)) != 0:
		return fmt.Sprintf("en passant square %v or %v is occupied", ep, origin)
	}
	return ""
}

// FEN returns the FEN representation of the position.
// Move counters are not tracked, so they are always written as "0 1".
func (p *Position) FEN() string {
	var sb strings.Builder

	// Piece placement
	for row := 0; row < 8; row++ {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := p.PieceAt(NewSquare(file, row))
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if row < 7 {
			sb.WriteByte('/')
		}
	}

	// Side to move
	sb.WriteByte(' ')
	if p.Side == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	// Castling rights
	sb.WriteByte(' ')
	sb.WriteString(p.Castling.String())

	// En passant
	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())

	sb.WriteString(" 0 1")

	return sb.String()
}
