package codecs

import (
	"strings"

	ctx "github.com/iota-uz/context"
)

const structuredReferenceVersion = "1"

// StructuredReferencePayload is a titled reference document (kind reference).
type StructuredReferencePayload struct {
	Title     string `json:"title"`
	Content   any    `json:"content"`
	SourceURL string `json:"sourceUrl,omitempty"`
	MimeType  string `json:"mimeType,omitempty"`
	Cacheable bool   `json:"cacheable,omitempty"`
}

// StructuredReference renders into system text alongside tool-schema blocks.
type StructuredReference struct{}

// NewStructuredReference returns the structured-reference codec.
func NewStructuredReference() *StructuredReference { return &StructuredReference{} }

func (StructuredReference) ID() string      { return "structured-reference" }
func (StructuredReference) Version() string { return structuredReferenceVersion }

func (StructuredReference) Validate(payload any) error {
	p, ok := payload.(StructuredReferencePayload)
	if !ok {
		return ctx.NewError(ctx.KindValidation, "structured-reference", "payload must be a StructuredReferencePayload", nil)
	}
	if strings.TrimSpace(p.Title) == "" {
		return ctx.NewError(ctx.KindValidation, "structured-reference", "title must not be empty", nil)
	}
	if p.Content == nil {
		return ctx.NewError(ctx.KindValidation, "structured-reference", "content must not be nil", nil)
	}
	return nil
}

func (StructuredReference) Canonicalize(payload any) ([]byte, error) {
	p := payload.(StructuredReferencePayload)
	return ctx.CanonicalizeValue(map[string]any{
		"title":     strings.TrimSpace(p.Title),
		"content":   p.Content,
		"sourceUrl": p.SourceURL,
		"mimeType":  p.MimeType,
		"cacheable": p.Cacheable,
	})
}

func (StructuredReference) Render(block ctx.Block) (ctx.RenderedContent, error) {
	p, ok := block.Payload.(StructuredReferencePayload)
	if !ok {
		return ctx.RenderedContent{}, ctx.NewError(ctx.KindValidation, block.Hash, "render: payload is not a StructuredReferencePayload", nil)
	}
	var sb strings.Builder
	sb.WriteString("Reference: ")
	sb.WriteString(strings.TrimSpace(p.Title))
	if p.SourceURL != "" {
		sb.WriteString(" (")
		sb.WriteString(p.SourceURL)
		sb.WriteString(")")
	}
	if content, ok := p.Content.(string); ok {
		sb.WriteString("\n")
		sb.WriteString(content)
	}
	text := sb.String()
	return ctx.RenderedContent{
		AnthropicSystem: text,
		OpenAISystem:    text,
		GeminiSystem:    text,
	}, nil
}
