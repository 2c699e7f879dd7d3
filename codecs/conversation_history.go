package codecs

import (
	"strconv"

	ctx "github.com/iota-uz/context"
)

const conversationHistoryVersion = "1"

// ConversationMessage is one turn in a conversation-history block.
// Timestamp and MessageID are per-message volatile identifiers, dropped
// during canonicalization so two blocks carrying the same conversation text
// at different recording times still collide to the same hash.
type ConversationMessage struct {
	Role      string `json:"role"`
	Content   any    `json:"content"`
	Timestamp int64  `json:"timestamp,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
	IsError   bool   `json:"isError,omitempty"`
}

// ConversationHistoryPayload is the conversation-history codec's payload
// (kind history): an ordered message list plus an optional prior summary.
type ConversationHistoryPayload struct {
	Messages []ConversationMessage `json:"messages"`
	Summary  string                `json:"summary,omitempty"`
}

// HistoryMessages implements ctx.HistoryPayload.
func (p ConversationHistoryPayload) HistoryMessages() []ctx.HistoryMessage {
	out := make([]ctx.HistoryMessage, 0, len(p.Messages))
	for _, m := range p.Messages {
		out = append(out, ctx.HistoryMessage{
			Role:    m.Role,
			Content: m.Content,
			Error:   m.Error,
			IsError: m.IsError,
		})
	}
	return out
}

// ConversationHistory codec.
type ConversationHistory struct{}

// NewConversationHistory returns the conversation-history codec.
func NewConversationHistory() *ConversationHistory { return &ConversationHistory{} }

func (ConversationHistory) ID() string      { return "conversation-history" }
func (ConversationHistory) Version() string { return conversationHistoryVersion }

func (ConversationHistory) Validate(payload any) error {
	p, ok := payload.(ConversationHistoryPayload)
	if !ok {
		return ctx.NewError(ctx.KindValidation, "conversation-history", "payload must be a ConversationHistoryPayload", nil)
	}
	for i, m := range p.Messages {
		if m.Role != "user" && m.Role != "assistant" {
			return ctx.NewError(ctx.KindValidation, "conversation-history", "messages["+strconv.Itoa(i)+"].role must be user or assistant", nil)
		}
	}
	return nil
}

func (ConversationHistory) Canonicalize(payload any) ([]byte, error) {
	p := payload.(ConversationHistoryPayload)
	messages := make([]map[string]any, 0, len(p.Messages))
	for _, m := range p.Messages {
		entry := map[string]any{
			"role":    m.Role,
			"content": m.Content,
		}
		if m.Error != "" {
			entry["error"] = m.Error
		}
		if m.IsError {
			entry["isError"] = m.IsError
		}
		messages = append(messages, entry)
	}
	return ctx.CanonicalizeValue(map[string]any{
		"messages": messages,
		"summary":  p.Summary,
	})
}

func (ConversationHistory) Render(block ctx.Block) (ctx.RenderedContent, error) {
	p, ok := block.Payload.(ConversationHistoryPayload)
	if !ok {
		return ctx.RenderedContent{}, ctx.NewError(ctx.KindValidation, block.Hash, "render: payload is not a ConversationHistoryPayload", nil)
	}

	anthropic := make([]ctx.ProviderMessage, 0, len(p.Messages))
	openai := make([]ctx.ProviderMessage, 0, len(p.Messages))
	gemini := make([]ctx.ProviderMessage, 0, len(p.Messages))
	for _, m := range p.Messages {
		anthropic = append(anthropic, ctx.ProviderMessage{Role: m.Role, Content: m.Content})
		openai = append(openai, ctx.ProviderMessage{Role: m.Role, Content: m.Content})
		gemini = append(gemini, ctx.ProviderMessage{Role: geminiRole(m.Role), Content: m.Content})
	}
	return ctx.RenderedContent{Anthropic: anthropic, OpenAI: openai, Gemini: gemini}, nil
}

func geminiRole(role string) string {
	if role == "assistant" {
		return "model"
	}
	return role
}
