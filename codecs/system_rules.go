package codecs

import (
	"strings"

	ctx "github.com/iota-uz/context"
)

const systemRulesVersion = "1"

// SystemRulesPayload is a block of pinned system instructions.
type SystemRulesPayload struct {
	Text      string `json:"text"`
	Priority  int    `json:"priority,omitempty"`
	Cacheable bool   `json:"cacheable,omitempty"`
}

// SystemRules renders into every provider's system slot (kind pinned).
type SystemRules struct{}

// NewSystemRules returns the system-rules codec.
func NewSystemRules() *SystemRules { return &SystemRules{} }

func (SystemRules) ID() string      { return "system-rules" }
func (SystemRules) Version() string { return systemRulesVersion }

func (SystemRules) Validate(payload any) error {
	p, ok := payload.(SystemRulesPayload)
	if !ok {
		return ctx.NewError(ctx.KindValidation, "system-rules", "payload must be a SystemRulesPayload", nil)
	}
	if strings.TrimSpace(p.Text) == "" {
		return ctx.NewError(ctx.KindValidation, "system-rules", "text must not be empty", nil)
	}
	return nil
}

func (SystemRules) Canonicalize(payload any) ([]byte, error) {
	p := payload.(SystemRulesPayload)
	return ctx.CanonicalizeValue(map[string]any{
		"text":      strings.TrimSpace(p.Text),
		"priority":  p.Priority,
		"cacheable": p.Cacheable,
	})
}

func (SystemRules) Render(block ctx.Block) (ctx.RenderedContent, error) {
	p, ok := block.Payload.(SystemRulesPayload)
	if !ok {
		return ctx.RenderedContent{}, ctx.NewError(ctx.KindValidation, block.Hash, "render: payload is not a SystemRulesPayload", nil)
	}
	text := strings.TrimSpace(p.Text)
	return ctx.RenderedContent{
		AnthropicSystem: text,
		OpenAISystem:    text,
		GeminiSystem:    text,
	}, nil
}
