package context

import (
	stdctx "context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ForkOptions configures CreateFork.
type ForkOptions struct {
	MaxSensitivity SensitivityLevel // default SensitivityPublic
	IncludeHistory bool
	IncludeState   bool
}

// DefaultForkOptions returns the spec default: redact above public,
// include both history and state.
func DefaultForkOptions() ForkOptions {
	return ForkOptions{MaxSensitivity: SensitivityPublic, IncludeHistory: true, IncludeState: true}
}

// CreateFork returns a new view whose blocks are derived from parent: blocks
// exceeding options.MaxSensitivity are replaced with redacted-stub
// successors (sensitivity forced to public); history/state blocks are
// dropped when the corresponding Include flag is false. The parent view and
// its graph are never mutated.
func CreateFork(parent View, options ForkOptions, redactedStubCodec Codec) (View, error) {
	maxSensitivity := options.MaxSensitivity
	if maxSensitivity == "" {
		maxSensitivity = SensitivityPublic
	}

	var out []Block
	for _, block := range parent.Blocks {
		if block.Meta.Kind == KindHistory && !options.IncludeHistory {
			continue
		}
		if block.Meta.Kind == KindState && !options.IncludeState {
			continue
		}

		if !SensitivityAtMost(block.Meta.Sensitivity, maxSensitivity) {
			stub, err := buildRedactedStub(block, maxSensitivity, redactedStubCodec)
			if err != nil {
				return View{}, err
			}
			out = append(out, stub)
			continue
		}
		out = append(out, block)
	}

	SortStable(out)

	return View{
		Blocks:           out,
		StablePrefixHash: StablePrefixHash(out),
		CreatedAt:        Now(),
	}, nil
}

// RedactedStubPayload is the payload shape the redacted-stub codec expects.
// Defined here (rather than in codecs) because fork.go is the only producer.
type RedactedStubPayload struct {
	OriginalBlockHash string `json:"originalBlockHash"`
	Reason            string `json:"reason"`
	Placeholder       string `json:"placeholder,omitempty"`
}

func buildRedactedStub(block Block, maxSensitivity SensitivityLevel, codec Codec) (Block, error) {
	payload := RedactedStubPayload{
		OriginalBlockHash: block.Hash,
		Reason:            fmt.Sprintf("Sensitivity level '%s' exceeds maximum '%s'", block.Meta.Sensitivity, maxSensitivity),
	}
	return NewBlock(codec, block.Meta.Kind, payload, BlockOptions{
		Sensitivity: SensitivityPublic,
		Source:      block.Meta.Source,
		Tags:        block.Meta.Tags,
		CreatedAt:   block.Meta.CreatedAt,
	})
}

// ExecutionHashInput is the deterministic fingerprint input for a sub-agent
// invocation.
type ExecutionHashInput struct {
	Model          string
	ViewHash       string
	Instruction    string
	SchemaHash     string
	ToolsetVersion string
}

// ComputeExecutionHash computes executionHash = SHA256(JSON({model, viewHash,
// instruction, schemaHash, toolsetVersion})) with a fixed key order: canonical
// sorting always emits the keys alphabetically (instruction, model,
// schemaHash, toolsetVersion, viewHash).
// Identical inputs yield identical hashes; any single difference changes it
// (P12).
func ComputeExecutionHash(input ExecutionHashInput) (string, error) {
	toolsetVersion := input.ToolsetVersion
	if toolsetVersion == "" {
		toolsetVersion = "none"
	}
	envelope := map[string]any{
		"model":          input.Model,
		"viewHash":       input.ViewHash,
		"instruction":    input.Instruction,
		"schemaHash":     input.SchemaHash,
		"toolsetVersion": toolsetVersion,
	}
	canonical, err := CanonicalizeValue(envelope)
	if err != nil {
		return "", err
	}
	return sha256Hex(canonical), nil
}

// ComputeSchemaHash is a stable digest of an output-schema structure. Any
// pure, collision-resistant function over structurally distinct schemas
// satisfies the spec; this one reuses the same canonicalization the rest of
// the engine relies on.
func ComputeSchemaHash(schema any) (string, error) {
	if schema == nil {
		return EmptyCanonicalHash, nil
	}
	canonical, err := CanonicalizeValue(schema)
	if err != nil {
		return "", err
	}
	return sha256Hex(canonical), nil
}

// TokenUsage reports token accounting from an executor or summarizer call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Artifact is a named side-output of a sub-agent execution (a file, a chart,
// a generated query — opaque to the core).
type Artifact struct {
	Name    string
	Content any
}

// ExecutorResult is what a caller-supplied executor callback returns.
type ExecutorResult struct {
	Output    any
	Summary   string
	Artifacts []Artifact
	Citations []string
	Usage     TokenUsage
}

// Executor runs a sub-agent task against instruction and a forked view. It is
// the "LLM execution itself" collaborator the core never implements
// (spec.md §1 Non-goals).
type Executor func(ctx stdctx.Context, instruction string, fork View) (ExecutorResult, error)

// ForkTask describes one sub-agent invocation.
type ForkTask struct {
	Model           string
	Instruction     string
	OutputSchema    any
	ForbiddenFields []string
	ToolsetVersion  string
}

// ForkProvenance records where a fork result came from.
type ForkProvenance struct {
	SourceViewHash string
	ExecutionHash  string
	ForkedAt       time.Time
	CompletedAt    time.Time
}

// ForkResult is what ExecuteFork returns.
type ForkResult struct {
	AgentID    string
	Model      string
	Summary    string
	Output     any
	Artifacts  []Artifact
	Citations  []string
	Usage      TokenUsage
	Provenance ForkProvenance
}

// SchemaValidator validates an executor's output against a task's output
// schema. Supplied by the caller; the core has no opinion on schema
// representation (JSON Schema, a struct tag set, anything else).
type SchemaValidator func(output any, schema any) error

// ExecuteFork builds a fork from parent, optionally appends a
// forbidden-fields directive to the instruction, invokes executor, validates
// the result against task.OutputSchema, and re-checks the serialized output
// for forbidden-field leakage (fail-closed: ForbiddenFieldLeak). It never
// mutates parent or parent's graph.
func ExecuteFork(
	ctx stdctx.Context,
	parent View,
	options ForkOptions,
	task ForkTask,
	executor Executor,
	redactedStubCodec Codec,
	validate SchemaValidator,
) (ForkResult, error) {
	forkedAt := Now()

	fork, err := CreateFork(parent, options, redactedStubCodec)
	if err != nil {
		return ForkResult{}, err
	}

	instruction := task.Instruction
	if len(task.ForbiddenFields) > 0 {
		instruction += "\n\nDo not include the following fields in your output: " + strings.Join(task.ForbiddenFields, ", ")
	}

	result, err := executor(ctx, instruction, fork)
	if err != nil {
		return ForkResult{}, err
	}

	if task.OutputSchema != nil && validate != nil {
		if err := validate(result.Output, task.OutputSchema); err != nil {
			return ForkResult{}, NewError(KindValidation, task.Model, "fork output failed schema validation", err)
		}
	}

	if len(task.ForbiddenFields) > 0 {
		serialized, err := CanonicalizeValue(result.Output)
		if err != nil {
			return ForkResult{}, err
		}
		for _, field := range task.ForbiddenFields {
			if strings.Contains(string(serialized), field) {
				return ForkResult{}, NewError(KindForbiddenFieldLeak, field, "fork output leaked a forbidden field", nil)
			}
		}
	}

	schemaHash, err := ComputeSchemaHash(task.OutputSchema)
	if err != nil {
		return ForkResult{}, err
	}
	execHash, err := ComputeExecutionHash(ExecutionHashInput{
		Model:          task.Model,
		ViewHash:       fork.StablePrefixHash,
		Instruction:    instruction,
		SchemaHash:     schemaHash,
		ToolsetVersion: task.ToolsetVersion,
	})
	if err != nil {
		return ForkResult{}, err
	}

	return ForkResult{
		AgentID:   uuid.NewString(),
		Model:     task.Model,
		Summary:   result.Summary,
		Output:    result.Output,
		Artifacts: result.Artifacts,
		Citations: result.Citations,
		Usage:     result.Usage,
		Provenance: ForkProvenance{
			SourceViewHash: parent.StablePrefixHash,
			ExecutionHash:  execHash,
			ForkedAt:       forkedAt,
			CompletedAt:    Now(),
		},
	}, nil
}

// IngestForkResult wraps result as a derivable block (kind defaults to
// KindMemory) using codec/payload supplied by the caller, records
// derivedFrom = result.Citations, and inserts it into graph.
func IngestForkResult(graph *Graph, result ForkResult, codec Codec, payload any, kind BlockKind, opts BlockOptions) (Block, error) {
	if kind == "" {
		kind = KindMemory
	}
	block, err := NewBlock(codec, kind, payload, opts)
	if err != nil {
		return Block{}, err
	}
	var parents []BlockRef
	for _, c := range result.Citations {
		parents = append(parents, BlockRef{Hash: c})
	}
	graph.AddBlock(block, parents, nil)
	return block, nil
}

// Summarizer is the fork-facing summarization capability: unlike
// HistorySummarizer, it validates against a caller schema and returns
// citations (DESIGN.md Open Question #3).
type Summarizer interface {
	Summarize(ctx stdctx.Context, blocks []Block, schema any, options SummarizeOptions) (SummarizeResult, error)
}

// SummarizeOptions configures a Summarizer call.
type SummarizeOptions struct {
	TargetTokens int
}

// SummarizeResult is a Summarizer's output.
type SummarizeResult struct {
	Summary    string
	Provenance map[string]any
	Usage      TokenUsage
	Citations  []string
}

// SummarizeFork runs summarizer over blocks after rejecting any non-public
// input: a fork-facing summarizer that sees restricted or internal content
// unfiltered would defeat the point of forking in the first place.
func SummarizeFork(ctx stdctx.Context, summarizer Summarizer, blocks []Block, schema any, options SummarizeOptions) (SummarizeResult, error) {
	for _, b := range blocks {
		if !SensitivityAtMost(b.Meta.Sensitivity, SensitivityPublic) {
			return SummarizeResult{}, NewError(KindSensitivityViolation, b.Hash, "summarizer input exceeds public sensitivity", nil)
		}
	}
	return summarizer.Summarize(ctx, blocks, schema, options)
}
