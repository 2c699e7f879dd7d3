// Package codecs implements the built-in content codecs and the registry
// that resolves a codecId to a Codec.
package codecs

import (
	"sync"

	ctx "github.com/iota-uz/context"
)

// Registry is a codecId -> Codec mapping. It carries no package-level global
// state (REDESIGN FLAGS §9): callers construct one, register codecs into it,
// and thread it explicitly wherever a ctx.CodecLookup is needed.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]ctx.Codec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]ctx.Codec)}
}

// NewDefaultRegistry returns a registry pre-populated with the eight
// built-in codecs.
func NewDefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	for _, c := range []ctx.Codec{
		NewSystemRules(),
		NewToolSchema(),
		NewStructuredReference(),
		NewConversationHistory(),
		NewToolOutput(),
		NewRedactedStub(),
		NewUnsafeText(),
		NewUserTurn(),
	} {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds codec under codec.ID(). Double-registration under the same
// id is a DuplicateCodec error, even if codec.Version() differs: callers
// wanting to migrate a codec register a new id.
func (r *Registry) Register(codec ctx.Codec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.codecs[codec.ID()]; exists {
		return ctx.NewError(ctx.KindDuplicateCodec, codec.ID(), "codec already registered", nil)
	}
	r.codecs[codec.ID()] = codec
	return nil
}

// Get resolves id to a Codec, or returns an UnknownCodec error.
func (r *Registry) Get(id string) (ctx.Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[id]
	if !ok {
		return nil, ctx.NewError(ctx.KindUnknownCodec, id, "no codec registered for id", nil)
	}
	return c, nil
}

// IDs returns every registered codec id, in unspecified order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.codecs))
	for id := range r.codecs {
		out = append(out, id)
	}
	return out
}
