package board

// Perft counts the leaf nodes of the legal move tree at the given depth.
// This is the standard way to verify move generation correctness.
// The position is restored before Perft returns.
func (p *Position) Perft(depth int) int64 {
	if depth <= 0 {
		return 1
	}

	var ml MoveList
	p.GenerateMoves(&ml)

	var nodes int64
	snap := p.Snapshot()
	for _, m := range ml.Slice() {
		if p.Apply(m, AllMoves) {
			nodes += p.Perft(depth - 1)
		}
		p.Undo(snap)
	}
	return nodes
}

// DivideResult is the node count below one root move.
type DivideResult struct {
	Move  Move
	Nodes int64
}

// PerftDivide returns the perft count below each legal root move, in generation order.
// The sum of Nodes equals Perft(depth). Depth values below 1 are treated as 1.
func (p *Position) PerftDivide(depth int) []DivideResult {
	if depth < 1 {
		depth = 1
	}

	var ml MoveList
	p.GenerateMoves(&ml)

	results := make([]DivideResult, 0, ml.Len())
	snap := p.Snapshot()
	for _, m := range ml.Slice() {
		if p.Apply(m, AllMoves) {
			results = append(results, DivideResult{Move: m, Nodes: p.Perft(depth - 1)})
		}
		p.Undo(snap)
	}
	return results
}
