package context

import stdctx "context"

// ResolutionLevel controls how much of an attachment AttachmentResolver
// materializes.
type ResolutionLevel string

const (
	ResolutionMetadataOnly ResolutionLevel = "metadata_only"
	ResolutionExtract      ResolutionLevel = "extract"
	ResolutionFull         ResolutionLevel = "full"
)

// AttachmentRef identifies an external attachment (a file, an upload) by
// reference rather than by value — the graph never stores large binary
// payloads directly.
type AttachmentRef struct {
	URI      string
	MimeType string
	SizeHint int64
}

// AttachmentPart is one resolved fragment of an attachment (a page of text,
// an image description, a table extract).
type AttachmentPart struct {
	Kind string
	Text string
}

// AttachmentResolution is what AttachmentResolver.Resolve returns.
type AttachmentResolution struct {
	Meta            map[string]any
	Parts           []AttachmentPart
	DerivedBlocks   []Block
	SnapshotHash    string
	ResolverVersion string
}

// AttachmentResolver is the external collaborator that turns an
// AttachmentRef into graph-ready content at the requested resolution level.
// The core never fetches attachments itself.
type AttachmentResolver interface {
	Resolve(ctx stdctx.Context, ref AttachmentRef, level ResolutionLevel) (AttachmentResolution, error)
}
