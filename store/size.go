package store

import (
	"encoding/json"

	ctx "github.com/iota-uz/context"
)

// estimateRecordBytes approximates a block's storage footprint via its JSON
// encoding. It is a sizing heuristic for GetStats, not a wire format.
func estimateRecordBytes(block ctx.Block) int64 {
	data, err := json.Marshal(block)
	if err != nil {
		return 0
	}
	return int64(len(data))
}
