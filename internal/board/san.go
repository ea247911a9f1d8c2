package board

import (
	"fmt"
	"strings"
)

// SAN converts a move to Standard Algebraic Notation.
// The move must be legal in pos.
func (m Move) SAN(pos *Position) string {
	if m == NoMove {
		return "-"
	}

	from := m.Source()
	to := m.Target()

	// Castling
	if m.IsCastling() {
		if to > from {
			return "O-O" + checkSuffix(pos, m)
		}
		return "O-O-O" + checkSuffix(pos, m)
	}

	var sb strings.Builder
	pt := m.Piece().Type()

	// Piece letter and disambiguation (not for pawns)
	if pt != Pawn {
		sb.WriteByte("PNBRQK"[pt])
		sb.WriteString(getDisambiguation(pos, m))
	}

	// Capture marker
	if m.IsCapture() {
		if pt == Pawn {
			// Pawn captures include the file of origin
			sb.WriteByte('a' + byte(from.File()))
		}
		sb.WriteByte('x')
	}

	sb.WriteString(to.String())

	if m.IsPromotion() {
		sb.WriteByte('=')
		sb.WriteByte("PNBRQK"[m.Promoted().Type()])
	}

	sb.WriteString(checkSuffix(pos, m))
	return sb.String()
}

// checkSuffix plays the move on a copy and returns "#", "+" or "".
func checkSuffix(pos *Position, m Move) string {
	next := pos.Copy()
	if !next.Apply(m, AllMoves) {
		return ""
	}
	if next.InCheck() {
		if !next.HasLegalMoves() {
			return "#"
		}
		return "+"
	}
	return ""
}

// getDisambiguation returns the disambiguation string needed for a move.
func getDisambiguation(pos *Position, m Move) string {
	from := m.Source()
	to := m.Target()

	// Find other pieces of the same kind that can legally reach the same square
	var candidates []Square
	for _, other := range pos.LegalMoves() {
		if other.Target() != to || other.Source() == from || other.Piece() != m.Piece() {
			continue
		}
		candidates = append(candidates, other.Source())
	}

	if len(candidates) == 0 {
		return ""
	}

	sameFile := false
	sameRank := false
	for _, sq := range candidates {
		if sq.File() == from.File() {
			sameFile = true
		}
		if sq.Rank() == from.Rank() {
			sameRank = true
		}
	}

	if !sameFile {
		return string(rune('a' + from.File()))
	}
	if !sameRank {
		return string(rune('0' + from.Rank()))
	}
	return from.String()
}

// ParseSAN parses a SAN string and returns the corresponding legal move.
func ParseSAN(s string, pos *Position) (Move, error) {
	s = strings.TrimSpace(s)
	orig := s

	// Remove check/checkmate markers
	s = strings.TrimRight(s, "+#")

	legal := pos.LegalMoves()

	// Handle castling
	if s == "O-O" || s == "0-0" || s == "O-O-O" || s == "0-0-0" {
		long := len(s) == 5
		for _, m := range legal {
			if m.IsCastling() && (m.Target() < m.Source()) == long {
				return m, nil
			}
		}
		return NoMove, fmt.Errorf("castling not available: %s", orig)
	}

	// Parse promotion
	promoPiece := NoPieceType
	if idx := strings.Index(s, "="); idx >= 0 && idx+1 < len(s) {
		switch s[idx+1] {
		case 'N':
			promoPiece = Knight
		case 'B':
			promoPiece = Bishop
		case 'R':
			promoPiece = Rook
		case 'Q':
			promoPiece = Queen
		}
		s = s[:idx]
	}

	// Remove capture marker
	isCapture := strings.Contains(s, "x")
	s = strings.ReplaceAll(s, "x", "")

	// Determine piece type
	pt := Pawn
	if len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z' {
		switch s[0] {
		case 'N':
			pt = Knight
		case 'B':
			pt = Bishop
		case 'R':
			pt = Rook
		case 'Q':
			pt = Queen
		case 'K':
			pt = King
		default:
			return NoMove, fmt.Errorf("invalid piece in SAN: %s", orig)
		}
		s = s[1:]
	}

	// Parse destination (last 2 characters)
	if len(s) < 2 {
		return NoMove, fmt.Errorf("invalid SAN: %s", orig)
	}
	dest, err := ParseSquare(s[len(s)-2:])
	if err != nil {
		return NoMove, err
	}
	s = s[:len(s)-2]

	// Parse disambiguation (file, rank, or both)
	disambigFile, disambigRank := -1, -1
	for _, c := range s {
		if c >= 'a' && c <= 'h' {
			disambigFile = int(c - 'a')
		} else if c >= '1' && c <= '8' {
			disambigRank = int(c - '0')
		}
	}

	for _, m := range legal {
		if m.Target() != dest || m.Piece().Type() != pt {
			continue
		}

		from := m.Source()
		if disambigFile >= 0 && from.File() != disambigFile {
			continue
		}
		if disambigRank >= 0 && from.Rank() != disambigRank {
			continue
		}
		if isCapture && !m.IsCapture() {
			continue
		}
		if promoPiece != NoPieceType {
			if !m.IsPromotion() || m.Promoted().Type() != promoPiece {
				continue
			}
		} else if m.IsPromotion() {
			continue
		}

		return m, nil
	}

	return NoMove, fmt.Errorf("no legal move matches %s", orig)
}

// MovesToSAN converts a sequence of moves played from pos to SAN.
// pos is not modified.
func MovesToSAN(pos *Position, moves []Move) []string {
	result := make([]string, len(moves))
	p := pos.Copy()

	for i, m := range moves {
		result[i] = m.SAN(p)
		p.Apply(m, AllMoves)
	}

	return result
}
