package context

// Provider identifies a target LLM provider for compilation.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
)

// OverflowStrategy names the response to a compiled context exceeding the
// available token budget. Policy carries it; no compiler, view, or compactor
// in this module reads it.
type OverflowStrategy string

const (
	OverflowError    OverflowStrategy = "error"
	OverflowTruncate OverflowStrategy = "truncate"
	OverflowCompact  OverflowStrategy = "compact"
)

// KindPriority is advisory for higher-level schedulers; the view itself only
// enforces the single MaxTokens budget (spec.md §6).
type KindPriority struct {
	Kind        BlockKind
	MinTokens   int
	MaxTokens   int
	Truncatable bool
}

// DefaultKindPriorities returns a conservative default: pinned/reference/
// state are not truncatable, history and tool_output are.
func DefaultKindPriorities() []KindPriority {
	return []KindPriority{
		{Kind: KindPinned, Truncatable: false},
		{Kind: KindReference, Truncatable: false},
		{Kind: KindMemory, Truncatable: true},
		{Kind: KindState, Truncatable: false},
		{Kind: KindToolOutput, Truncatable: true},
		{Kind: KindHistory, Truncatable: true},
		{Kind: KindTurn, Truncatable: false},
	}
}

// CompactionConfig holds a Policy's compaction settings. Nothing in this
// module reads it; Compact is configured through PipelineCompactionConfig.
type CompactionConfig struct {
	PruneToolOutputs     bool
	MaxToolOutputAge     int64 // unix seconds; 0 = unset
	MaxToolOutputsPerKind int
	SummarizeHistory     bool
	MaxHistoryMessages   int
}

// AttachmentPolicy configures attachment selection (spec.md §6).
type AttachmentPolicy struct {
	MaxTokensTotal   int
	RankBy           []string // purpose, user_mention, recency
	PurposePriority  map[string]int
}

// Policy is the caller-facing compilation configuration.
type Policy struct {
	Provider          Provider
	ModelID           string
	ContextWindow     int
	CompletionReserve int
	OverflowStrategy  OverflowStrategy
	KindPriorities    []KindPriority

	Compaction *CompactionConfig

	MaxSensitivity   SensitivityLevel
	RedactRestricted bool

	Attachments *AttachmentPolicy

	// Estimator fills CompiledContext.EstimatedTokens in the provider
	// compilers; a nil Estimator leaves it at 0. CreateView and Compact take
	// their own estimator argument and do not read this field.
	Estimator TokenEstimator
	// Summarizer is a compactor-facing HistorySummarizer carried with the
	// policy. Nothing in this module reads it: Compact takes its summarizer
	// as an argument and skips summarize_history when that is nil.
	Summarizer HistorySummarizer
}

// AvailableTokens returns ContextWindow - CompletionReserve.
func (p Policy) AvailableTokens() int {
	return p.ContextWindow - p.CompletionReserve
}
