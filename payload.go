package context

// HistoryMessage is the compactor's view of one conversation message. Codecs
// whose payload carries conversation messages implement HistoryPayload to
// expose them this way without the core knowing the codec's concrete payload
// type.
type HistoryMessage struct {
	Role    string
	Content any
	// Error is a non-empty string, or IsError is true: either marks the
	// message as an error message for history_trim's keepErrorMessages
	// check (DESIGN.md Open Question #1 — a non-empty Error string wins
	// when both are set).
	Error   string
	IsError bool
}

func (m HistoryMessage) isErrorMessage() bool {
	return m.Error != "" || m.IsError
}

// HistoryPayload is implemented by conversation-history-shaped payloads so
// the compactor's history_trim step can inspect messages without importing
// the codec package.
type HistoryPayload interface {
	HistoryMessages() []HistoryMessage
}

// ToolOutputPayload is implemented by tool-output-shaped payloads so the
// compactor's tool_output_prune step can inspect and replace output without
// importing the codec package.
type ToolOutputPayload interface {
	// IsErrorOutput reports whether this tool call's output represents an
	// error (payload.error truthy, or payload.status == "error").
	IsErrorOutput() bool
	// RawOutputText returns the string form of the output and whether the
	// output is in fact a string (non-string outputs are never truncated).
	RawOutputText() (string, bool)
	// WithTruncatedOutput returns a copy of the payload with its output
	// field replaced by truncated, marked _truncated: true.
	WithTruncatedOutput(truncated string) any
}
