package codecs

import (
	"strings"

	ctx "github.com/iota-uz/context"
)

const unsafeTextVersion = "1"

const defaultUnsafeTextRole = "user"

// UnsafeTextPayload is free-form, ungoverned text attached to any kind —
// an escape hatch for content that does not fit a richer codec.
type UnsafeTextPayload struct {
	Text string `json:"text"`
	Role string `json:"role,omitempty"`
}

// UnsafeText codec.
type UnsafeText struct{}

// NewUnsafeText returns the unsafe-text codec.
func NewUnsafeText() *UnsafeText { return &UnsafeText{} }

func (UnsafeText) ID() string      { return "unsafe-text" }
func (UnsafeText) Version() string { return unsafeTextVersion }

func (UnsafeText) Validate(payload any) error {
	p, ok := payload.(UnsafeTextPayload)
	if !ok {
		return ctx.NewError(ctx.KindValidation, "unsafe-text", "payload must be an UnsafeTextPayload", nil)
	}
	if strings.TrimSpace(p.Text) == "" {
		return ctx.NewError(ctx.KindValidation, "unsafe-text", "text must not be empty", nil)
	}
	return nil
}

func (UnsafeText) Canonicalize(payload any) ([]byte, error) {
	p := payload.(UnsafeTextPayload)
	role := p.Role
	if role == "" {
		role = defaultUnsafeTextRole
	}
	return ctx.CanonicalizeValue(map[string]any{
		"text": strings.TrimSpace(p.Text),
		"role": role,
	})
}

func (UnsafeText) Render(block ctx.Block) (ctx.RenderedContent, error) {
	p, ok := block.Payload.(UnsafeTextPayload)
	if !ok {
		return ctx.RenderedContent{}, ctx.NewError(ctx.KindValidation, block.Hash, "render: payload is not an UnsafeTextPayload", nil)
	}
	text := strings.TrimSpace(p.Text)
	role := p.Role
	if role == "" {
		role = defaultUnsafeTextRole
	}

	if block.Meta.Kind == ctx.KindPinned {
		return ctx.RenderedContent{AnthropicSystem: text, OpenAISystem: text, GeminiSystem: text}, nil
	}

	msg := ctx.ProviderMessage{Role: role, Content: text}
	gemini := msg
	gemini.Role = geminiRole(role)
	return ctx.RenderedContent{
		Anthropic: []ctx.ProviderMessage{msg},
		OpenAI:    []ctx.ProviderMessage{msg},
		Gemini:    []ctx.ProviderMessage{gemini},
	}, nil
}
