package context

import (
	stdctx "context"
	"sort"
	"strconv"
)

// CompactionStep names one compactor pass.
type CompactionStep string

const (
	StepDedupe           CompactionStep = "dedupe"
	StepToolOutputPrune  CompactionStep = "tool_output_prune"
	StepHistoryTrim      CompactionStep = "history_trim"
	StepSummarizeHistory CompactionStep = "summarize_history"
)

// summarizeHistoryRetainCount and summarizeHistoryTargetFraction are fixed by
// spec.md §4.6 ("the last 10 ... retained verbatim", "target of 30% of the
// prefix's estimated tokens") — not caller-configurable.
const (
	summarizeHistoryRetainCount    = 10
	summarizeHistoryTargetFraction = 0.3
)

// PipelineCompactionConfig configures an ordered sequence of compactor steps.
type PipelineCompactionConfig struct {
	Steps []CompactionStep

	MaxOutputsPerTool int  // default 3
	MaxRawTailChars   int  // default 500
	PreserveErrorTail bool // true: error tails are never truncated; false (zero value) truncates them too

	KeepRecentMessages int // default 20 (history blocks, not messages)
	KeepErrorMessages  bool

	MinMessages int // summarize_history: minimum history blocks required
}

func (c PipelineCompactionConfig) withDefaults() PipelineCompactionConfig {
	if c.MaxOutputsPerTool == 0 {
		c.MaxOutputsPerTool = 3
	}
	if c.MaxRawTailChars == 0 {
		c.MaxRawTailChars = 500
	}
	if c.KeepRecentMessages == 0 {
		c.KeepRecentMessages = 20
	}
	return c
}

// CodecLookup resolves a codec by id; codecs.Registry implements this.
type CodecLookup interface {
	Get(id string) (Codec, error)
}

// HistorySummarizer is the compactor-facing summarization capability. It
// differs from the fork-facing Summarizer: it returns a single replacement
// payload rather than a schema-validated result with citations (DESIGN.md
// Open Question #3).
type HistorySummarizer interface {
	Summarize(ctx stdctx.Context, blocks []Block, targetTokens int) (HistoryPayload, int, error)
}

// StepReport describes the effect of one compactor step.
type StepReport struct {
	Step           CompactionStep
	BlocksRemoved  int
	BlocksReplaced int
	TokensSaved    int
	Lossy          bool
	Description    string
}

// CompactionReport is the compactor's overall account of what happened.
type CompactionReport struct {
	BeforeTokens int
	AfterTokens  int
	SavedTokens  int
	StepsApplied []CompactionStep
	StepReports  []StepReport
}

// CompactResult is the compactor's output: a new block list, what was
// removed, provenance for any successor blocks, and a report.
type CompactResult struct {
	Blocks        []Block
	RemovedBlocks []Block
	// Provenance maps a successor block's hash to the parent hashes it was
	// derived from, for callers that want to record derivation edges in
	// their own graph.
	Provenance map[string][]string
	Report     CompactionReport
}

func estimateTokens(ctx stdctx.Context, estimator TokenEstimator, blocks []Block) int {
	if estimator == nil || len(blocks) == 0 {
		return 0
	}
	est, err := estimator.Estimate(ctx, blocks)
	if err != nil {
		return 0
	}
	return est.Tokens
}

// compactedMeta applies the provenance law to meta for the given step: the
// source gets a ":compacted" suffix and tags gain "compacted:<step>".
func compactedMeta(meta BlockMeta, step CompactionStep) BlockMeta {
	source := meta.Source
	if source == "" {
		source = "compacted"
	} else {
		source = source + ":compacted"
	}
	tag := "compacted:" + string(step)
	tags := append([]string{}, meta.Tags...)
	found := false
	for _, t := range tags {
		if t == tag {
			found = true
			break
		}
	}
	if !found {
		tags = append(tags, tag)
	}
	meta.Source = source
	meta.Tags = tags
	return meta
}

func buildSuccessor(codec Codec, kind BlockKind, payload any, base BlockMeta, step CompactionStep) (Block, error) {
	meta := compactedMeta(base, step)
	return NewBlock(codec, kind, payload, BlockOptions{
		Sensitivity: meta.Sensitivity,
		Source:      meta.Source,
		Tags:        meta.Tags,
		CreatedAt:   meta.CreatedAt,
	})
}

// Compact runs cfg's steps over view.Blocks in order. It never mutates the
// graph or view that produced view (P9): all outputs are fresh block lists.
func Compact(
	ctx stdctx.Context,
	view View,
	cfg PipelineCompactionConfig,
	codecs CodecLookup,
	estimator TokenEstimator,
	summarizer HistorySummarizer,
) (CompactResult, error) {
	cfg = cfg.withDefaults()

	blocks := append([]Block(nil), view.Blocks...)
	var removed []Block
	provenance := make(map[string][]string)
	var stepReports []StepReport

	beforeTokens := estimateTokens(ctx, estimator, blocks)

	for _, step := range cfg.Steps {
		var report StepReport
		var err error
		switch step {
		case StepDedupe:
			blocks, report = compactDedupe(blocks)
		case StepToolOutputPrune:
			blocks, report, err = compactToolOutputPrune(blocks, cfg, codecs, provenance)
		case StepHistoryTrim:
			blocks, report = compactHistoryTrim(blocks, cfg)
		case StepSummarizeHistory:
			blocks, report, err = compactSummarizeHistory(ctx, blocks, cfg, codecs, estimator, summarizer, provenance)
		default:
			continue
		}
		if err != nil {
			return CompactResult{}, err
		}
		stepReports = append(stepReports, report)
	}

	// Every entry of view.Blocks not matched by an occurrence of its hash in
	// the final list is removed, whether by dedupe, pruning, or trimming.
	final := make(map[string]int, len(blocks))
	for _, b := range blocks {
		final[b.Hash]++
	}
	removed = nil
	for _, b := range view.Blocks {
		if final[b.Hash] > 0 {
			final[b.Hash]--
			continue
		}
		removed = append(removed, b)
	}

	afterTokens := estimateTokens(ctx, estimator, blocks)

	steps := append([]CompactionStep(nil), cfg.Steps...)
	return CompactResult{
		Blocks:        blocks,
		RemovedBlocks: removed,
		Provenance:    provenance,
		Report: CompactionReport{
			BeforeTokens: beforeTokens,
			AfterTokens:  afterTokens,
			SavedTokens:  beforeTokens - afterTokens,
			StepsApplied: steps,
			StepReports:  stepReports,
		},
	}, nil
}

func compactDedupe(blocks []Block) ([]Block, StepReport) {
	seen := make(map[string]bool, len(blocks))
	var kept []Block
	removedCount := 0
	for _, b := range blocks {
		if seen[b.Hash] {
			removedCount++
			continue
		}
		seen[b.Hash] = true
		kept = append(kept, b)
	}
	return kept, StepReport{
		Step:          StepDedupe,
		BlocksRemoved: removedCount,
		Lossy:         false,
		Description:   "removed duplicate blocks by hash",
	}
}

func compactToolOutputPrune(
	blocks []Block,
	cfg PipelineCompactionConfig,
	lookup CodecLookup,
	provenance map[string][]string,
) ([]Block, StepReport, error) {
	var toolBlocks []Block
	var rest []Block
	for _, b := range blocks {
		if b.Meta.Kind == KindToolOutput {
			toolBlocks = append(toolBlocks, b)
		} else {
			rest = append(rest, b)
		}
	}

	byIdentity := make(map[string][]Block)
	for _, b := range toolBlocks {
		byIdentity[b.Meta.CodecID] = append(byIdentity[b.Meta.CodecID], b)
	}

	removedCount := 0
	replacedCount := 0
	var keptTool []Block

	for _, group := range byIdentity {
		sort.SliceStable(group, func(i, j int) bool { return group[i].Meta.CreatedAt < group[j].Meta.CreatedAt })
		keepFrom := 0
		if len(group) > cfg.MaxOutputsPerTool {
			keepFrom = len(group) - cfg.MaxOutputsPerTool
			removedCount += keepFrom
		}
		kept := group[keepFrom:]
		for _, b := range kept {
			payload, ok := b.Payload.(ToolOutputPayload)
			if !ok {
				keptTool = append(keptTool, b)
				continue
			}
			text, isString := payload.RawOutputText()
			isError := payload.IsErrorOutput()
			shouldTruncate := isString && len(text) > cfg.MaxRawTailChars && (!isError || !cfg.PreserveErrorTail)
			if !shouldTruncate {
				keptTool = append(keptTool, b)
				continue
			}
			codec, err := lookup.Get(b.Meta.CodecID)
			if err != nil {
				return nil, StepReport{}, NewError(KindUnknownCodec, b.Meta.CodecID, "tool_output_prune: codec lookup failed", err)
			}
			tail := text[len(text)-cfg.MaxRawTailChars:]
			truncatedText := "... [truncated " + strconv.Itoa(len(text)-cfg.MaxRawTailChars) + " chars] ...\n" + tail
			newPayload := payload.WithTruncatedOutput(truncatedText)
			successor, err := buildSuccessor(codec, KindToolOutput, newPayload, b.Meta, StepToolOutputPrune)
			if err != nil {
				return nil, StepReport{}, err
			}
			provenance[successor.Hash] = []string{b.Hash}
			keptTool = append(keptTool, successor)
			replacedCount++
		}
	}

	out := append(rest, keptTool...)
	SortStable(out)

	return out, StepReport{
		Step:           StepToolOutputPrune,
		BlocksRemoved:  removedCount,
		BlocksReplaced: replacedCount,
		Lossy:          removedCount > 0 || replacedCount > 0,
		Description:    "pruned stale tool outputs and truncated oversized raw tails",
	}, nil
}

func compactHistoryTrim(blocks []Block, cfg PipelineCompactionConfig) ([]Block, StepReport) {
	var history []Block
	var rest []Block
	for _, b := range blocks {
		if b.Meta.Kind == KindHistory {
			history = append(history, b)
		} else {
			rest = append(rest, b)
		}
	}

	sort.SliceStable(history, func(i, j int) bool { return history[i].Meta.CreatedAt < history[j].Meta.CreatedAt })

	keepFrom := 0
	if len(history) > cfg.KeepRecentMessages {
		keepFrom = len(history) - cfg.KeepRecentMessages
	}
	var kept []Block
	removedCount := 0
	for i, b := range history {
		if i >= keepFrom {
			kept = append(kept, b)
			continue
		}
		if cfg.KeepErrorMessages && blockHasErrorMessage(b) {
			kept = append(kept, b)
			continue
		}
		removedCount++
	}

	out := append(rest, kept...)
	SortStable(out)

	return out, StepReport{
		Step:          StepHistoryTrim,
		BlocksRemoved: removedCount,
		Lossy:         removedCount > 0,
		Description:   "trimmed conversation history to the most recent messages",
	}
}

func blockHasErrorMessage(b Block) bool {
	hp, ok := b.Payload.(HistoryPayload)
	if !ok {
		return false
	}
	for _, m := range hp.HistoryMessages() {
		if m.isErrorMessage() {
			return true
		}
	}
	return false
}

func compactSummarizeHistory(
	ctx stdctx.Context,
	blocks []Block,
	cfg PipelineCompactionConfig,
	lookup CodecLookup,
	estimator TokenEstimator,
	summarizer HistorySummarizer,
	provenance map[string][]string,
) ([]Block, StepReport, error) {
	if summarizer == nil {
		return blocks, StepReport{
			Step:        StepSummarizeHistory,
			Description: "no summarizer configured; step skipped",
		}, nil
	}

	var history []Block
	var rest []Block
	for _, b := range blocks {
		if b.Meta.Kind == KindHistory {
			history = append(history, b)
		} else {
			rest = append(rest, b)
		}
	}
	sort.SliceStable(history, func(i, j int) bool { return history[i].Meta.CreatedAt < history[j].Meta.CreatedAt })

	minMessages := cfg.MinMessages
	if len(history) < minMessages {
		return blocks, StepReport{
			Step:        StepSummarizeHistory,
			Description: "insufficient history blocks to summarize",
		}, nil
	}

	splitAt := len(history) - summarizeHistoryRetainCount
	if splitAt <= 0 {
		return blocks, StepReport{
			Step:        StepSummarizeHistory,
			Description: "history at or below retention floor; nothing to summarize",
		}, nil
	}

	prefix := history[:splitAt]
	retained := history[splitAt:]

	prefixTokens := estimateTokens(ctx, estimator, prefix)
	targetTokens := int(float64(prefixTokens) * summarizeHistoryTargetFraction)

	payload, _, err := summarizer.Summarize(ctx, prefix, targetTokens)
	if err != nil {
		return nil, StepReport{}, NewError(KindValidation, "", "history summarization failed", err)
	}

	codec, err := lookup.Get("conversation-history")
	if err != nil {
		return nil, StepReport{}, NewError(KindUnknownCodec, "conversation-history", "summarize_history: codec lookup failed", err)
	}

	var parents []string
	for _, p := range prefix {
		parents = append(parents, p.Hash)
	}
	base := prefix[len(prefix)-1].Meta
	successor, err := buildSuccessor(codec, KindHistory, payload, base, StepSummarizeHistory)
	if err != nil {
		return nil, StepReport{}, err
	}
	provenance[successor.Hash] = parents

	out := append(rest, retained...)
	out = append(out, successor)
	SortStable(out)

	return out, StepReport{
		Step:           StepSummarizeHistory,
		BlocksRemoved:  len(prefix),
		BlocksReplaced: 1,
		Lossy:          true,
		Description:    "summarized older history into a single successor block",
	}, nil
}
