package board

import "fmt"

// Magic bitboard implementation for sliding piece attacks.
// Uses pre-computed magic numbers for fast lookup.

// Magic holds the magic bitboard data for a single square.
type Magic struct {
	Mask   Bitboard // Relevant occupancy mask (excludes edges)
	Magic  uint64   // Magic multiplier
	Shift  uint8    // 64 - relevant bits
	Offset uint32   // Index into attack table
}

var (
	bishopMagics [64]Magic
	rookMagics   [64]Magic

	// Attack tables, one contiguous block of 2^bits entries per square
	bishopTable [5248]Bitboard
	rookTable   [102400]Bitboard
)

// Relevant occupancy bit counts per square.
var bishopRelevantBits = [64]int{
	6, 5, 5, 5, 5, 5, 5, 6,
	5, 5, 5, 5, 5, 5, 5, 5,
	5, 5, 7, 7, 7, 7, 5, 5,
	5, 5, 7, 9, 9, 7, 5, 5,
	5, 5, 7, 9, 9, 7, 5, 5,
	5, 5, 7, 7, 7, 7, 5, 5,
	5, 5, 5, 5, 5, 5, 5, 5,
	6, 5, 5, 5, 5, 5, 5, 6,
}

var rookRelevantBits = [64]int{
	12, 11, 11, 11, 11, 11, 11, 12,
	11, 10, 10, 10, 10, 10, 10, 11,
	11, 10, 10, 10, 10, 10, 10, 11,
	11, 10, 10, 10, 10, 10, 10, 11,
	11, 10, 10, 10, 10, 10, 10, 11,
	11, 10, 10, 10, 10, 10, 10, 11,
	11, 10, 10, 10, 10, 10, 10, 11,
	12, 11, 11, 11, 11, 11, 11, 12,
}

// Pre-computed magic numbers (indexed a8 = 0)
var rookMagicNumbers = [64]uint64{
	0x8A80104000800020, 0x0140002000100040, 0x02801880A0017001, 0x0100081001000420,
	0x0200020010080420, 0x03001C0002010008, 0x8480008002000100, 0x2080088004402900,
	0x0000800098204000, 0x2024401000200040, 0x0100802000801000, 0x0120800800801000,
	0x0208808088000400, 0x0002802200800400, 0x2200800100020080, 0x0801000060821100,
	0x0080044006422000, 0x0100808020004000, 0x12108A0010204200, 0x0140848010000802,
	0x0481828014002800, 0x8094004002004100, 0x4010040010010802, 0x0000020008806104,
	0x0100400080208000, 0x2040002120081000, 0x0021200680100081, 0x0020100080080080,
	0x0002000A00200410, 0x0000020080800400, 0x0080088400100102, 0x0080004600042881,
	0x4040008040800020, 0x0440003000200801, 0x0004200011004500, 0x0188020010100100,
	0x0014800401802800, 0x2080040080800200, 0x0124080204001001, 0x0200046502000484,
	0x0480400080088020, 0x1000422010034000, 0x0030200100110040, 0x0000100021010009,
	0x2002080100110004, 0x0202008004008002, 0x0020020004010100, 0x2048440040820001,
	0x0101002200408200, 0x0040802000401080, 0x4008142004410100, 0x02060820C0120200,
	0x0001001004080100, 0x020C020080040080, 0x2935610830022400, 0x0044440041009200,
	0x0280001040802101, 0x2100190040002085, 0x80C0084100102001, 0x4024081001000421,
	0x00020030A0244872, 0x0012001008414402, 0x02006104900A0804, 0x0001004081002402,
}

var bishopMagicNumbers = [64]uint64{
	0x0040040844404084, 0x002004208A004208, 0x0010190041080202, 0x0108060845042010,
	0x0581104180800210, 0x2112080446200010, 0x1080820820060210, 0x03C0808410220200,
	0x0004050404440404, 0x0000021001420088, 0x24D0080801082102, 0x0001020A0A020400,
	0x0000040308200402, 0x0004011002100800, 0x0401484104104005, 0x0801010402020200,
	0x00400210C3880100, 0x0404022024108200, 0x0810018200204102, 0x0004002801A02003,
	0x0085040820080400, 0x810102C808880400, 0x000E900410884800, 0x8002020480840102,
	0x0220200865090201, 0x2010100A02021202, 0x0152048408022401, 0x0020080002081110,
	0x4001001021004000, 0x800040400A011002, 0x00E4004081011002, 0x001C004001012080,
	0x8004200962A00220, 0x8422100208500202, 0x2000402200300C08, 0x8646020080080080,
	0x80020A0200100808, 0x2010004880111000, 0x623000A080011400, 0x42008C0340209202,
	0x0209188240001000, 0x400408A884001800, 0x00110400A6080400, 0x1840060A44020800,
	0x0090080104000041, 0x0201011000808101, 0x1A2208080504F080, 0x8012020600211212,
	0x0500861011240000, 0x0180806108200800, 0x4000020E01040044, 0x300000261044000A,
	0x0802241102020002, 0x0020906061210001, 0x5A84841004010310, 0x0004010801011C04,
	0x000A010109502200, 0x0000004A02012000, 0x500201010098B028, 0x8040002811040900,
	0x0028000010020204, 0x06000020202D0240, 0x8918844842082200, 0x4010011029020020,
}

func initMagics() {
	initSliderMagics(bishopMagics[:], bishopTable[:], &bishopMagicNumbers, &bishopRelevantBits, bishopMask, bishopAttacksSlow)
	initSliderMagics(rookMagics[:], rookTable[:], &rookMagicNumbers, &rookRelevantBits, rookMask, rookAttacksSlow)
}

func initSliderMagics(magics []Magic, table []Bitboard, numbers *[64]uint64, relevant *[64]int,
	maskFn func(Square) Bitboard, slowFn func(Square, Bitboard) Bitboard) {
	var offset uint32
	for sq := A8; sq <= H1; sq++ {
		mask := maskFn(sq)
		bits := relevant[sq]

		magics[sq] = Magic{
			Mask:   mask,
			Magic:  numbers[sq],
			Shift:  uint8(64 - bits),
			Offset: offset,
		}

		// Generate all possible occupancies and compute attacks
		numEntries := 1 << bits
		for i := 0; i < numEntries; i++ {
			occ := indexToOccupancy(i, bits, mask)
			idx := (uint64(occ) * numbers[sq]) >> (64 - bits)
			table[offset+uint32(idx)] = slowFn(sq, occ)
		}
		offset += uint32(numEntries)
	}
}

// bishopMask returns the relevant occupancy mask for a bishop at square.
// Edge squares are excluded since they never block anything behind them.
func bishopMask(sq Square) Bitboard {
	var mask Bitboard
	file, row := sq.File(), sq.Row()

	for f, r := file+1, row+1; f <= 6 && r <= 6; f, r = f+1, r+1 {
		mask |= SquareBB(NewSquare(f, r))
	}
	for f, r := file+1, row-1; f <= 6 && r >= 1; f, r = f+1, r-1 {
		mask |= SquareBB(NewSquare(f, r))
	}
	for f, r := file-1, row+1; f >= 1 && r <= 6; f, r = f-1, r+1 {
		mask |= SquareBB(NewSquare(f, r))
	}
	for f, r := file-1, row-1; f >= 1 && r >= 1; f, r = f-1, r-1 {
		mask |= SquareBB(NewSquare(f, r))
	}

	return mask
}

// rookMask returns the relevant occupancy mask for a rook at square.
func rookMask(sq Square) Bitboard {
	var mask Bitboard
	file, row := sq.File(), sq.Row()

	for r := row + 1; r <= 6; r++ {
		mask |= SquareBB(NewSquare(file, r))
	}
	for r := row - 1; r >= 1; r-- {
		mask |= SquareBB(NewSquare(file, r))
	}
	for f := file + 1; f <= 6; f++ {
		mask |= SquareBB(NewSquare(f, row))
	}
	for f := file - 1; f >= 1; f-- {
		mask |= SquareBB(NewSquare(f, row))
	}

	return mask
}

// indexToOccupancy converts an index to an occupancy bitboard.
func indexToOccupancy(index, bits int, mask Bitboard) Bitboard {
	var occ Bitboard
	for i := 0; i < bits; i++ {
		sq := mask.PopLSB()
		if index&(1<<i) != 0 {
			occ |= SquareBB(sq)
		}
	}
	return occ
}

// bishopAttacksSlow computes bishop attacks by ray casting (used during initialization).
// Each ray includes the first blocker and stops at the board edge.
func bishopAttacksSlow(sq Square, occupied Bitboard) Bitboard {
	var attacks Bitboard
	file, row := sq.File(), sq.Row()

	for f, r := file+1, row+1; f <= 7 && r <= 7; f, r = f+1, r+1 {
		s := SquareBB(NewSquare(f, r))
		attacks |= s
		if occupied&s != 0 {
			break
		}
	}
	for f, r := file+1, row-1; f <= 7 && r >= 0; f, r = f+1, r-1 {
		s := SquareBB(NewSquare(f, r))
		attacks |= s
		if occupied&s != 0 {
			break
		}
	}
	for f, r := file-1, row+1; f >= 0 && r <= 7; f, r = f-1, r+1 {
		s := SquareBB(NewSquare(f, r))
		attacks |= s
		if occupied&s != 0 {
			break
		}
	}
	for f, r := file-1, row-1; f >= 0 && r >= 0; f, r = f-1, r-1 {
		s := SquareBB(NewSquare(f, r))
		attacks |= s
		if occupied&s != 0 {
			break
		}
	}

	return attacks
}

// rookAttacksSlow computes rook attacks by ray casting (used during initialization).
func rookAttacksSlow(sq Square, occupied Bitboard) Bitboard {
	var attacks Bitboard
	file, row := sq.File(), sq.Row()

	for r := row + 1; r <= 7; r++ {
		s := SquareBB(NewSquare(file, r))
		attacks |= s
		if occupied&s != 0 {
			break
		}
	}
	for r := row - 1; r >= 0; r-- {
		s := SquareBB(NewSquare(file, r))
		attacks |= s
		if occupied&s != 0 {
			break
		}
	}
	for f := file + 1; f <= 7; f++ {
		s := SquareBB(NewSquare(f, row))
		attacks |= s
		if occupied&s != 0 {
			break
		}
	}
	for f := file - 1; f >= 0; f-- {
		s := SquareBB(NewSquare(f, row))
		attacks |= s
		if occupied&s != 0 {
			break
		}
	}

	return attacks
}

// getBishopAttacks returns bishop attacks using magic bitboards.
func getBishopAttacks(sq Square, occupied Bitboard) Bitboard {
	m := &bishopMagics[sq]
	idx := (uint64(occupied&m.Mask) * m.Magic) >> m.Shift
	return bishopTable[m.Offset+uint32(idx)]
}

// getRookAttacks returns rook attacks using magic bitboards.
func getRookAttacks(sq Square, occupied Bitboard) Bitboard {
	m := &rookMagics[sq]
	idx := (uint64(occupied&m.Mask) * m.Magic) >> m.Shift
	return rookTable[m.Offset+uint32(idx)]
}

// MagicCollisionError reports two occupancy subsets that hash to the same
// table slot but produce different attack sets.
type MagicCollisionError struct {
	Slider     string
	Square     Square
	Index      uint64
	Existing   Bitboard
	Conflicted Bitboard
}

func (e *MagicCollisionError) Error() string {
	return fmt.Sprintf("%s magic collision at %s (index %d):\n%s\nvs\n%s",
		e.Slider, e.Square, e.Index, e.Existing, e.Conflicted)
}

// VerifyMagics recomputes every occupancy subset of both slider tables and
// reports the first collision. A non-nil result means the magic constants are corrupt.
func VerifyMagics() error {
	if err := verifyMagicNumbers("bishop", &bishopMagicNumbers, &bishopRelevantBits, bishopMask, bishopAttacksSlow); err != nil {
		return err
	}
	return verifyMagicNumbers("rook", &rookMagicNumbers, &rookRelevantBits, rookMask, rookAttacksSlow)
}

func verifyMagicNumbers(slider string, numbers *[64]uint64, relevant *[64]int,
	maskFn func(Square) Bitboard, slowFn func(Square, Bitboard) Bitboard) error {
	for sq := A8; sq <= H1; sq++ {
		mask := maskFn(sq)
		bits := relevant[sq]
		if mask.PopCount() != bits {
			return fmt.Errorf("%s relevant bits at %s: table says %d, mask has %d", slider, sq, bits, mask.PopCount())
		}

		seen := make(map[uint64]Bitboard, 1<<bits)
		for i := 0; i < 1<<bits; i++ {
			occ := indexToOccupancy(i, bits, mask)
			attack := slowFn(sq, occ)
			idx := (uint64(occ) * numbers[sq]) >> (64 - bits)

			if prev, ok := seen[idx]; ok && prev != attack {
				return &MagicCollisionError{Slider: slider, Square: sq, Index: idx, Existing: prev, Conflicted: attack}
			}
			seen[idx] = attack
		}
	}
	return nil
}
