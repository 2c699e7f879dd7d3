package context

import "time"

// SensitivityLevel is an ordered content-classification label.
type SensitivityLevel string

const (
	SensitivityPublic     SensitivityLevel = "public"
	SensitivityInternal   SensitivityLevel = "internal"
	SensitivityRestricted SensitivityLevel = "restricted"
)

var sensitivityOrder = map[SensitivityLevel]int{
	SensitivityPublic:     0,
	SensitivityInternal:   1,
	SensitivityRestricted: 2,
}

// sensitivityRank returns the ordinal rank of level, defaulting unknown
// levels to SensitivityPublic's rank so a caller-supplied zero value never
// panics deep inside a filter.
func sensitivityRank(level SensitivityLevel) int {
	if r, ok := sensitivityOrder[level]; ok {
		return r
	}
	return 0
}

// SensitivityAtMost reports whether level is no more sensitive than max.
func SensitivityAtMost(level, max SensitivityLevel) bool {
	return sensitivityRank(level) <= sensitivityRank(max)
}

// BlockMeta is the full block metadata. CreatedAt, Source, and Tags are
// volatile: they are excluded from hashing so blocks added at different times
// with identical content collide to the same hash.
type BlockMeta struct {
	Kind         BlockKind
	Sensitivity  SensitivityLevel
	CodecID      string
	CodecVersion string
	CreatedAt    int64 // unix seconds
	Source       string
	Tags         []string
}

// stableSubset is the {kind, sensitivity, codecId, codecVersion} subset used
// for hashing.
type stableSubset struct {
	Kind         BlockKind        `json:"kind"`
	Sensitivity  SensitivityLevel `json:"sensitivity"`
	CodecID      string           `json:"codecId"`
	CodecVersion string           `json:"codecVersion"`
}

func (m BlockMeta) stable() stableSubset {
	return stableSubset{
		Kind:         m.Kind,
		Sensitivity:  m.Sensitivity,
		CodecID:      m.CodecID,
		CodecVersion: m.CodecVersion,
	}
}

// HasTag reports whether m.Tags contains tag.
func (m BlockMeta) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasAllTags reports whether m.Tags contains every tag in tags.
func (m BlockMeta) HasAllTags(tags []string) bool {
	for _, t := range tags {
		if !m.HasTag(t) {
			return false
		}
	}
	return true
}

// Block is a content-addressed unit of context. Hash is the hex-64 SHA-256
// computed by ComputeHash over stable metadata and the codec's canonical
// payload; Payload is codec-specific and opaque to the core.
type Block struct {
	Hash    string
	Meta    BlockMeta
	Payload any
}

// WithCreatedAt returns a copy of meta with CreatedAt set; used by compactor
// successors, which must not mutate the original block's metadata in place.
func (m BlockMeta) WithCreatedAt(ts int64) BlockMeta {
	m.CreatedAt = ts
	return m
}

// Now is a small seam so tests can freeze time; production code calls it
// directly.
var Now = func() time.Time { return time.Now() }
