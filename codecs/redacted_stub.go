package codecs

import (
	ctx "github.com/iota-uz/context"
)

const redactedStubVersion = "1"

const defaultRedactionPlaceholder = "[REDACTED]"

// RedactedStub renders a fork-time redaction stub (ctx.RedactedStubPayload).
// It is registered under any block kind — CreateFork preserves the
// original block's kind when swapping in a stub.
type RedactedStub struct{}

// NewRedactedStub returns the redacted-stub codec.
func NewRedactedStub() *RedactedStub { return &RedactedStub{} }

func (RedactedStub) ID() string      { return "redacted-stub" }
func (RedactedStub) Version() string { return redactedStubVersion }

func (RedactedStub) Validate(payload any) error {
	p, ok := payload.(ctx.RedactedStubPayload)
	if !ok {
		return ctx.NewError(ctx.KindValidation, "redacted-stub", "payload must be a ctx.RedactedStubPayload", nil)
	}
	if p.OriginalBlockHash == "" {
		return ctx.NewError(ctx.KindValidation, "redacted-stub", "originalBlockHash must not be empty", nil)
	}
	if p.Reason == "" {
		return ctx.NewError(ctx.KindValidation, "redacted-stub", "reason must not be empty", nil)
	}
	return nil
}

func (RedactedStub) Canonicalize(payload any) ([]byte, error) {
	p := payload.(ctx.RedactedStubPayload)
	placeholder := p.Placeholder
	if placeholder == "" {
		placeholder = defaultRedactionPlaceholder
	}
	return ctx.CanonicalizeValue(map[string]any{
		"originalBlockHash": p.OriginalBlockHash,
		"reason":            p.Reason,
		"placeholder":       placeholder,
	})
}

func (RedactedStub) Render(block ctx.Block) (ctx.RenderedContent, error) {
	p, ok := block.Payload.(ctx.RedactedStubPayload)
	if !ok {
		return ctx.RenderedContent{}, ctx.NewError(ctx.KindValidation, block.Hash, "render: payload is not a ctx.RedactedStubPayload", nil)
	}
	placeholder := p.Placeholder
	if placeholder == "" {
		placeholder = defaultRedactionPlaceholder
	}

	if block.Meta.Kind == ctx.KindPinned {
		return ctx.RenderedContent{AnthropicSystem: placeholder, OpenAISystem: placeholder, GeminiSystem: placeholder}, nil
	}

	msg := ctx.ProviderMessage{Role: "user", Content: placeholder}
	geminiMsg := msg
	geminiMsg.Role = "user"
	return ctx.RenderedContent{
		Anthropic: []ctx.ProviderMessage{msg},
		OpenAI:    []ctx.ProviderMessage{msg},
		Gemini:    []ctx.ProviderMessage{geminiMsg},
	}, nil
}
