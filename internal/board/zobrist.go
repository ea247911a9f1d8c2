package board

// Zobrist hash keys for position hashing.
// Uses PRNG with fixed seed so keys are stable across runs; stored perft results depend on it.
var (
	zobristPiece      [PieceCount][64]uint64 // [Piece][Square]
	zobristEnPassant  [8]uint64              // One per file
	zobristCastling   [16]uint64             // All 16 castling combinations
	zobristSideToMove uint64                 // XOR when black to move
)

func init() {
	initZobrist()
}

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(0x98F107A2BEEF1234) // Fixed seed

	for pc := WhitePawn; pc <= BlackKing; pc++ {
		for sq := A8; sq <= H1; sq++ {
			zobristPiece[pc][sq] = rng.next()
		}
	}

	for file := 0; file < 8; file++ {
		zobristEnPassant[file] = rng.next()
	}

	for i := 0; i < 16; i++ {
		zobristCastling[i] = rng.next()
	}

	zobristSideToMove = rng.next()
}

// Hash computes the Zobrist key of the position from scratch.
// Positions that differ in pieces, side, castling rights or en passant file hash differently.
func (p *Position) Hash() uint64 {
	var hash uint64

	for pc := WhitePawn; pc <= BlackKing; pc++ {
		bb := p.Pieces[pc]
		for bb != 0 {
			hash ^= zobristPiece[pc][bb.PopLSB()]
		}
	}

	if p.Side == Black {
		hash ^= zobristSideToMove
	}

	hash ^= zobristCastling[p.Castling&AllCastling]

	if p.EnPassant != NoSquare {
		hash ^= zobristEnPassant[p.EnPassant.File()]
	}

	return hash
}
