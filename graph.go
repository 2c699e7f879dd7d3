package context

// GraphStats summarizes the size of a graph.
type GraphStats struct {
	BlockCount          int
	DerivationEdgeCount int
	ReferenceEdgeCount  int
}

// Graph is the single-owner block store: a mapping blockHash -> Block plus
// two edge maps (derivedFrom, references). Edges are stored as two maps from
// hash to sequences, never as a pointer graph (REDESIGN FLAGS §9). A block's
// hash covers only its stable metadata and payload, not its edges, and
// AddBlock records the given edges without checking them for cycles.
//
// Graph is not safe for concurrent writers; concurrent readers are safe as
// long as no write is in flight (spec.md §5).
type Graph struct {
	blocks      map[string]Block
	derivedFrom map[string][]BlockRef
	references  map[string][]string
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		blocks:      make(map[string]Block),
		derivedFrom: make(map[string][]BlockRef),
		references:  make(map[string][]string),
	}
}

// AddBlock adds block, idempotent on block.Hash: re-adding an existing hash
// is a no-op and the edges recorded on first add are preserved (I2).
func (g *Graph) AddBlock(block Block, derivedFrom []BlockRef, references []string) {
	if _, exists := g.blocks[block.Hash]; exists {
		return
	}
	g.blocks[block.Hash] = block
	if len(derivedFrom) > 0 {
		g.derivedFrom[block.Hash] = append([]BlockRef(nil), derivedFrom...)
	}
	if len(references) > 0 {
		g.references[block.Hash] = append([]string(nil), references...)
	}
}

// RemoveBlock deletes block and its outgoing edges. Inbound references held
// by other blocks are not rewritten — dangling references are permitted (I3).
func (g *Graph) RemoveBlock(hash string) bool {
	if _, exists := g.blocks[hash]; !exists {
		return false
	}
	delete(g.blocks, hash)
	delete(g.derivedFrom, hash)
	delete(g.references, hash)
	return true
}

// GetBlock looks up a block by hash.
func (g *Graph) GetBlock(hash string) (Block, bool) {
	b, ok := g.blocks[hash]
	return b, ok
}

// GetAllBlocks returns every block in the graph, in unspecified order.
func (g *Graph) GetAllBlocks() []Block {
	out := make([]Block, 0, len(g.blocks))
	for _, b := range g.blocks {
		out = append(out, b)
	}
	return out
}

// GetDerivedFrom returns the recorded parent hashes for hash, empty if none.
func (g *Graph) GetDerivedFrom(hash string) []BlockRef {
	return append([]BlockRef(nil), g.derivedFrom[hash]...)
}

// GetReferences returns the recorded citation hashes for hash, empty if none.
func (g *Graph) GetReferences(hash string) []string {
	return append([]string(nil), g.references[hash]...)
}

// Select filters blocks by query. Ordering is NOT guaranteed; callers wanting
// a deterministic order use CreateView.
func (g *Graph) Select(query Query) []Block {
	var out []Block
	for hash, block := range g.blocks {
		if query.matches(block, g.derivedFrom[hash], g.references[hash]) {
			out = append(out, block)
		}
	}
	return out
}

// Stats reports the current graph size.
func (g *Graph) Stats() GraphStats {
	refEdges := 0
	for _, refs := range g.references {
		refEdges += len(refs)
	}
	derivEdges := 0
	for _, parents := range g.derivedFrom {
		derivEdges += len(parents)
	}
	return GraphStats{
		BlockCount:          len(g.blocks),
		DerivationEdgeCount: derivEdges,
		ReferenceEdgeCount:  refEdges,
	}
}
