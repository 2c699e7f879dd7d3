package context

// ProviderMessage is one provider-native message fragment produced by
// rendering a block. Role is already mapped to the target provider's
// vocabulary (e.g. "model" for Gemini, "assistant" elsewhere).
type ProviderMessage struct {
	Role         string
	Content      any
	ToolCallID   string
	ToolName     string
	IsToolResult bool
}

// RenderedContent is the tagged-variant rendering of one block across the
// three supported providers (REDESIGN FLAGS §9: a tagged variant per
// provider, not a duck-typed {anthropic?, openai?, gemini?} object). A block
// contributes either to a provider's system text or to its message list,
// never both, for a given provider. Messages is a slice (not a single
// pointer) because one block — a conversation-history block in particular —
// may expand into several provider-native messages.
type RenderedContent struct {
	AnthropicSystem string
	Anthropic       []ProviderMessage

	OpenAISystem string
	OpenAI       []ProviderMessage

	GeminiSystem string
	Gemini       []ProviderMessage
}

// Codec is the per-content-type contract: validate untyped payloads, produce
// a canonical JSON encoding for hashing, and render a block into
// provider-native fragments. A Codec is identified by (ID, Version).
type Codec interface {
	ID() string
	Version() string
	Validate(payload any) error
	Canonicalize(payload any) ([]byte, error)
	Render(block Block) (RenderedContent, error)
}

// NewBlock validates payload against codec, canonicalizes it, and computes
// the resulting block's content-address. opts supplies the sensitivity (part
// of the hashed stable metadata; public when empty) and the volatile metadata
// (source, tags, CreatedAt); CreatedAt defaults to Now().Unix() when zero.
func NewBlock(codec Codec, kind BlockKind, payload any, opts BlockOptions) (Block, error) {
	if err := codec.Validate(payload); err != nil {
		return Block{}, NewError(KindValidation, codec.ID(), "validation failed: "+err.Error(), err)
	}

	canonical, err := codec.Canonicalize(payload)
	if err != nil {
		return Block{}, NewError(KindValidation, codec.ID(), "canonicalize failed", err)
	}

	sensitivity := opts.Sensitivity
	if sensitivity == "" {
		sensitivity = SensitivityPublic
	}
	createdAt := opts.CreatedAt
	if createdAt == 0 {
		createdAt = Now().Unix()
	}

	meta := BlockMeta{
		Kind:         kind,
		Sensitivity:  sensitivity,
		CodecID:      codec.ID(),
		CodecVersion: codec.Version(),
		CreatedAt:    createdAt,
		Source:       opts.Source,
		Tags:         opts.Tags,
	}

	hash, err := ComputeHash(meta, canonical)
	if err != nil {
		return Block{}, NewError(KindValidation, codec.ID(), "hash computation failed", err)
	}

	return Block{Hash: hash, Meta: meta, Payload: payload}, nil
}

// BlockOptions carries the metadata a caller may attach to a block: the
// hashed Sensitivity and the volatile Source, Tags, and CreatedAt.
type BlockOptions struct {
	Sensitivity SensitivityLevel
	Source      string
	Tags        []string
	CreatedAt   int64 // unix seconds; Now().Unix() when zero
}
