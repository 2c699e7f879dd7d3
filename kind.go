package context

import "sort"

// BlockKind is the closed enumeration of block kinds. Order matters: it is the
// single source of truth for compiled-context ordering.
type BlockKind string

const (
	KindPinned     BlockKind = "pinned"
	KindReference  BlockKind = "reference"
	KindMemory     BlockKind = "memory"
	KindState      BlockKind = "state"
	KindToolOutput BlockKind = "tool_output"
	KindHistory    BlockKind = "history"
	KindTurn       BlockKind = "turn"
)

var kindOrder = map[BlockKind]int{
	KindPinned:     0,
	KindReference:  1,
	KindMemory:     2,
	KindState:      3,
	KindToolOutput: 4,
	KindHistory:    5,
	KindTurn:       6,
}

// Order returns the canonical position of kind, 0..6. Panics on an unknown
// kind: an unregistered kind is a programmer error, not a validation failure.
func Order(kind BlockKind) int {
	order, ok := kindOrder[kind]
	if !ok {
		panic("context: unknown block kind " + string(kind))
	}
	return order
}

// Compare returns -1, 0, or 1 comparing the canonical order of a and b.
func Compare(a, b BlockKind) int {
	oa, ob := Order(a), Order(b)
	switch {
	case oa < ob:
		return -1
	case oa > ob:
		return 1
	default:
		return 0
	}
}

// SortStable sorts blocks by (kindOrder, blockHash), stable and deterministic.
func SortStable(blocks []Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		oi, oj := Order(blocks[i].Meta.Kind), Order(blocks[j].Meta.Kind)
		if oi != oj {
			return oi < oj
		}
		return blocks[i].Hash < blocks[j].Hash
	})
}

// ValidateOrdered panics if blocks are not in non-decreasing kind order.
// Used internally as a sanity check, never exposed as a user-facing validation
// error — kind-order violations are a programmer error.
func ValidateOrdered(blocks []Block) {
	for i := 1; i < len(blocks); i++ {
		if Order(blocks[i-1].Meta.Kind) > Order(blocks[i].Meta.Kind) {
			panic("context: blocks not in canonical kind order")
		}
	}
}
