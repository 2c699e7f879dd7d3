package codecs

import (
	"strings"

	ctx "github.com/iota-uz/context"
)

const userTurnVersion = "1"

// UserTurnPayload is the current, uncommitted user turn (kind turn).
type UserTurnPayload struct {
	Text string `json:"text"`
}

// UserTurn codec.
type UserTurn struct{}

// NewUserTurn returns the user-turn codec.
func NewUserTurn() *UserTurn { return &UserTurn{} }

func (UserTurn) ID() string      { return "user-turn" }
func (UserTurn) Version() string { return userTurnVersion }

func (UserTurn) Validate(payload any) error {
	p, ok := payload.(UserTurnPayload)
	if !ok {
		return ctx.NewError(ctx.KindValidation, "user-turn", "payload must be a UserTurnPayload", nil)
	}
	if strings.TrimSpace(p.Text) == "" {
		return ctx.NewError(ctx.KindValidation, "user-turn", "text must not be empty", nil)
	}
	return nil
}

func (UserTurn) Canonicalize(payload any) ([]byte, error) {
	p := payload.(UserTurnPayload)
	return ctx.CanonicalizeValue(map[string]any{
		"text": strings.TrimSpace(p.Text),
	})
}

func (UserTurn) Render(block ctx.Block) (ctx.RenderedContent, error) {
	p, ok := block.Payload.(UserTurnPayload)
	if !ok {
		return ctx.RenderedContent{}, ctx.NewError(ctx.KindValidation, block.Hash, "render: payload is not a UserTurnPayload", nil)
	}
	text := strings.TrimSpace(p.Text)
	msg := ctx.ProviderMessage{Role: "user", Content: text}
	return ctx.RenderedContent{
		Anthropic: []ctx.ProviderMessage{msg},
		OpenAI:    []ctx.ProviderMessage{msg},
		Gemini:    []ctx.ProviderMessage{msg},
	}, nil
}
