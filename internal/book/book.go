// Package book is an opening book: weighted moves keyed by position hash.
package book

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"sort"
	"strings"

	"github.com/hailam/chessplay/internal/board"
)

// BookEntry represents a single book entry.
type BookEntry struct {
	Move   board.Move
	Weight uint16
}

// Book represents an opening book.
type Book struct {
	entries map[uint64][]BookEntry
}

// New creates an empty book.
func New() *Book {
	return &Book{
		entries: make(map[uint64][]BookEntry),
	}
}

// entrySize is the size of one record in the binary format:
// 8 bytes position hash, 2 bytes move, 2 bytes weight (all big-endian).
const entrySize = 12

// LoadFile loads a book from a file. Files ending in .txt are read as move
// lines, anything else as the binary format.
func LoadFile(filename string) (*Book, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if strings.HasSuffix(filename, ".txt") {
		return LoadLines(file)
	}
	return Load(file)
}

// Load reads the binary format written by WriteTo.
func Load(r io.Reader) (*Book, error) {
	book := New()

	var entry [entrySize]byte
	for {
		_, err := io.ReadFull(r, entry[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		key := binary.BigEndian.Uint64(entry[0:8])
		move := binary.BigEndian.Uint16(entry[8:10])
		weight := binary.BigEndian.Uint16(entry[10:12])

		book.entries[key] = append(book.entries[key], BookEntry{
			Move:   decodeMove(move),
			Weight: weight,
		})
	}

	return book, nil
}

// WriteTo writes the book in binary format, positions in key order.
func (b *Book) WriteTo(w io.Writer) (int64, error) {
	keys := make([]uint64, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var n int64
	var entry [entrySize]byte
	for _, k := range keys {
		for _, e := range b.entries[k] {
			binary.BigEndian.PutUint64(entry[0:8], k)
			binary.BigEndian.PutUint16(entry[8:10], encodeMove(e.Move))
			binary.BigEndian.PutUint16(entry[10:12], e.Weight)
			written, err := w.Write(entry[:])
			n += int64(written)
			if err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

// LoadLines builds a book from text, one game prefix per line from the
// standard start position. Moves are coordinate text or SAN; every move of a
// line adds one to its weight. Blank lines and lines starting with # are skipped.
func LoadLines(r io.Reader) (*Book, error) {
	book := New()
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		pos := board.NewPosition()
		for _, text := range strings.Fields(line) {
			m := pos.ParseUserMove(text)
			if m == board.NoMove {
				san, err := board.ParseSAN(text, pos)
				if err != nil {
					return nil, fmt.Errorf("line %d: %q: %w", lineNo, text, err)
				}
				m = san
			}
			book.Add(pos, m, 1)
			if !pos.Apply(m, board.AllMoves) {
				return nil, fmt.Errorf("line %d: illegal move %q", lineNo, text)
			}
		}
	}

	return book, scanner.Err()
}

// Add adds weight to m in pos, creating the entry if needed.
func (b *Book) Add(pos *board.Position, m board.Move, weight uint16) {
	key := pos.Hash()
	entries := b.entries[key]
	for i := range entries {
		if entries[i].Move == m {
			// Weights saturate at math.MaxUint16.
			sum := uint32(entries[i].Weight) + uint32(weight)
			entries[i].Weight = uint16(min(sum, math.MaxUint16))
			return
		}
	}
	b.entries[key] = append(entries, BookEntry{Move: m, Weight: weight})
}

// encodeMove packs a move into 16 bits:
// 0-5: target square
// 6-11: source square
// 12-14: promotion piece (0=none, 1=knight, 2=bishop, 3=rook, 4=queen)
func encodeMove(m board.Move) uint16 {
	data := uint16(m.Target()) | uint16(m.Source())<<6
	if m.IsPromotion() {
		data |= uint16(m.Promoted().Type()) << 12
	}
	return data
}

// decodeMove unpacks a 16-bit move. The result carries no piece or flags;
// verifyAndConvert matches it against the position.
func decodeMove(data uint16) board.Move {
	target := board.Square(data & 63)
	source := board.Square((data >> 6) & 63)
	promo := board.PieceType((data >> 12) & 7)

	promoted := board.WhitePawn
	if promo >= board.Knight && promo <= board.Queen {
		promoted = board.NewPiece(promo, board.White)
	}
	return board.EncodeMove(source, target, board.WhitePawn, promoted, false, false, false, false)
}

// Probe looks up a position in the book and returns a move using weighted random selection.
func (b *Book) Probe(pos *board.Position) (board.Move, bool) {
	entries := b.ProbeAll(pos)
	if len(entries) == 0 {
		return board.NoMove, false
	}

	// Weighted random selection
	totalWeight := uint32(0)
	for _, e := range entries {
		totalWeight += uint32(e.Weight)
	}

	if totalWeight == 0 {
		// All weights are 0, just pick the first
		return entries[0].Move, true
	}

	r := rand.Uint32() % totalWeight
	cumulative := uint32(0)
	for _, e := range entries {
		cumulative += uint32(e.Weight)
		if r < cumulative {
			return e.Move, true
		}
	}

	// Fallback to first entry
	return entries[0].Move, true
}

// ProbeAll returns the legal book moves for the position, sorted by weight.
func (b *Book) ProbeAll(pos *board.Position) []BookEntry {
	if b == nil {
		return nil
	}

	entries, ok := b.entries[pos.Hash()]
	if !ok {
		return nil
	}

	result := make([]BookEntry, 0, len(entries))
	for _, e := range entries {
		if m := verifyAndConvert(pos, e.Move); m != board.NoMove {
			result = append(result, BookEntry{Move: m, Weight: e.Weight})
		}
	}

	// Sort by weight (highest first)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Weight > result[j].Weight
	})

	return result
}

// verifyAndConvert returns the legal move of pos with the same squares and
// promotion as move, or NoMove. Hash collisions end up here as NoMove.
func verifyAndConvert(pos *board.Position, move board.Move) board.Move {
	for _, lm := range pos.LegalMoves() {
		if lm.Source() != move.Source() || lm.Target() != move.Target() {
			continue
		}
		if lm.IsPromotion() != move.IsPromotion() {
			continue
		}
		if !move.IsPromotion() || lm.Promoted().Type() == move.Promoted().Type() {
			return lm
		}
	}

	return board.NoMove
}

// Size returns the number of unique positions in the book.
func (b *Book) Size() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}
