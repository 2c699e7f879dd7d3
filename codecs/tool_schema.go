package codecs

import (
	"strings"

	ctx "github.com/iota-uz/context"
)

const toolSchemaVersion = "1"

// ToolSchemaPayload describes one tool's contract (kind reference).
type ToolSchemaPayload struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema"`
	Cacheable   bool           `json:"cacheable,omitempty"`
}

// ToolSchema renders a tool definition into the compiled system text. The
// core has no first-class "tools" slot in RenderedContent (only system text
// and message lists), so tool-schema blocks fold into the same system
// stream pinned blocks use — documented in DESIGN.md.
type ToolSchema struct{}

// NewToolSchema returns the tool-schema codec.
func NewToolSchema() *ToolSchema { return &ToolSchema{} }

func (ToolSchema) ID() string      { return "tool-schema" }
func (ToolSchema) Version() string { return toolSchemaVersion }

func (ToolSchema) Validate(payload any) error {
	p, ok := payload.(ToolSchemaPayload)
	if !ok {
		return ctx.NewError(ctx.KindValidation, "tool-schema", "payload must be a ToolSchemaPayload", nil)
	}
	if strings.TrimSpace(p.Name) == "" {
		return ctx.NewError(ctx.KindValidation, "tool-schema", "name must not be empty", nil)
	}
	if p.InputSchema == nil {
		return ctx.NewError(ctx.KindValidation, "tool-schema", "inputSchema must not be nil", nil)
	}
	return nil
}

func (ToolSchema) Canonicalize(payload any) ([]byte, error) {
	p := payload.(ToolSchemaPayload)
	return ctx.CanonicalizeValue(map[string]any{
		"name":        strings.TrimSpace(p.Name),
		"description": p.Description,
		"inputSchema": p.InputSchema,
		"cacheable":   p.Cacheable,
	})
}

func (ToolSchema) Render(block ctx.Block) (ctx.RenderedContent, error) {
	p, ok := block.Payload.(ToolSchemaPayload)
	if !ok {
		return ctx.RenderedContent{}, ctx.NewError(ctx.KindValidation, block.Hash, "render: payload is not a ToolSchemaPayload", nil)
	}
	var sb strings.Builder
	sb.WriteString("Tool `")
	sb.WriteString(p.Name)
	sb.WriteString("`")
	if p.Description != "" {
		sb.WriteString(": ")
		sb.WriteString(p.Description)
	}
	text := sb.String()
	return ctx.RenderedContent{
		AnthropicSystem: text,
		OpenAISystem:    text,
		GeminiSystem:    text,
	}, nil
}
