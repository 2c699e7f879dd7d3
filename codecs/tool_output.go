package codecs

import (
	ctx "github.com/iota-uz/context"
)

const toolOutputVersion = "1"

// ToolOutputPayload is one tool invocation's result (kind tool_output).
// DurationMs is volatile and dropped during canonicalization (DESIGN.md Open
// Question #2): two runs of the same tool call with the same result but
// different latency must hash identically. Truncated marks a
// tool_output_prune successor (the spec's "_truncated: true").
type ToolOutputPayload struct {
	ToolName     string
	ToolCallID   string
	Success      bool
	Result       any
	ErrorMessage string
	DurationMs   int64
	Truncated    bool
}

// IsErrorOutput implements ctx.ToolOutputPayload.
func (p ToolOutputPayload) IsErrorOutput() bool {
	return !p.Success || p.ErrorMessage != ""
}

// RawOutputText implements ctx.ToolOutputPayload.
func (p ToolOutputPayload) RawOutputText() (string, bool) {
	if p.Success {
		s, ok := p.Result.(string)
		return s, ok
	}
	return p.ErrorMessage, p.ErrorMessage != ""
}

// WithTruncatedOutput implements ctx.ToolOutputPayload.
func (p ToolOutputPayload) WithTruncatedOutput(truncated string) any {
	if p.Success {
		p.Result = truncated
	} else {
		p.ErrorMessage = truncated
	}
	p.Truncated = true
	return p
}

// ToolOutput codec.
type ToolOutput struct{}

// NewToolOutput returns the tool-output codec.
func NewToolOutput() *ToolOutput { return &ToolOutput{} }

func (ToolOutput) ID() string      { return "tool-output" }
func (ToolOutput) Version() string { return toolOutputVersion }

func (ToolOutput) Validate(payload any) error {
	p, ok := payload.(ToolOutputPayload)
	if !ok {
		return ctx.NewError(ctx.KindValidation, "tool-output", "payload must be a ToolOutputPayload", nil)
	}
	if p.ToolName == "" {
		return ctx.NewError(ctx.KindValidation, "tool-output", "toolName must not be empty", nil)
	}
	if p.ToolCallID == "" {
		return ctx.NewError(ctx.KindValidation, "tool-output", "toolCallId must not be empty", nil)
	}
	if !p.Success && p.ErrorMessage == "" {
		return ctx.NewError(ctx.KindValidation, "tool-output", "a failed output must carry an error message", nil)
	}
	return nil
}

func (ToolOutput) Canonicalize(payload any) ([]byte, error) {
	p := payload.(ToolOutputPayload)
	output := map[string]any{"success": p.Success}
	if p.Success {
		output["result"] = p.Result
	} else {
		output["error"] = p.ErrorMessage
	}
	return ctx.CanonicalizeValue(map[string]any{
		"toolName":   p.ToolName,
		"toolCallId": p.ToolCallID,
		"output":     output,
	})
}

func (ToolOutput) Render(block ctx.Block) (ctx.RenderedContent, error) {
	p, ok := block.Payload.(ToolOutputPayload)
	if !ok {
		return ctx.RenderedContent{}, ctx.NewError(ctx.KindValidation, block.Hash, "render: payload is not a ToolOutputPayload", nil)
	}
	var content any
	if p.Success {
		content = p.Result
	} else {
		content = p.ErrorMessage
	}

	anthropic := ctx.ProviderMessage{Role: "user", Content: content, ToolCallID: p.ToolCallID, ToolName: p.ToolName, IsToolResult: true}
	openai := ctx.ProviderMessage{Role: "tool", Content: content, ToolCallID: p.ToolCallID, ToolName: p.ToolName, IsToolResult: true}
	gemini := ctx.ProviderMessage{Role: "user", Content: content, ToolCallID: p.ToolCallID, ToolName: p.ToolName, IsToolResult: true}

	return ctx.RenderedContent{
		Anthropic: []ctx.ProviderMessage{anthropic},
		OpenAI:    []ctx.ProviderMessage{openai},
		Gemini:    []ctx.ProviderMessage{gemini},
	}, nil
}
