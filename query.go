package context

// BlockRef names a parent block hash recorded in a derivation edge.
type BlockRef struct {
	Hash string
}

// Query is the declarative graph filter. Every criterion absent (zero value)
// is unconstrained; all present criteria AND-combine.
type Query struct {
	Kinds             []BlockKind
	Tags              []string
	MinSensitivity    SensitivityLevel
	MaxSensitivity    SensitivityLevel
	Source            string
	MinCreatedAt      int64
	MaxCreatedAt      int64
	DerivedFromAny    []string
	NotDerivedFromAny []string
	ReferencesAny     []string
	ExcludeHashes     []string

	// impossible marks a query that can never match anything (produced by
	// MergeQueries on conflicting Source values). It is distinct from an
	// empty Kinds slice, which means "unconstrained".
	impossible bool
}

func stringSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}

func anyMatch(hashes []string, set map[string]bool) bool {
	for _, h := range hashes {
		if set[h] {
			return true
		}
	}
	return false
}

// Matches reports whether block satisfies q, given the block's derivation and
// reference edges. Exported for stores outside this package (e.g. an
// external MemoryStore implementation) that keep their own edge bookkeeping;
// the graph itself uses the unexported alias below.
func (q Query) Matches(block Block, derivedFrom []BlockRef, references []string) bool {
	return q.matches(block, derivedFrom, references)
}

func (q Query) matches(block Block, derivedFrom []BlockRef, references []string) bool {
	if q.impossible {
		return false
	}

	if len(q.Kinds) > 0 {
		found := false
		for _, k := range q.Kinds {
			if k == block.Meta.Kind {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(q.Tags) > 0 && !block.Meta.HasAllTags(q.Tags) {
		return false
	}

	if q.MinSensitivity != "" && sensitivityRank(block.Meta.Sensitivity) < sensitivityRank(q.MinSensitivity) {
		return false
	}
	if q.MaxSensitivity != "" && sensitivityRank(block.Meta.Sensitivity) > sensitivityRank(q.MaxSensitivity) {
		return false
	}

	if q.Source != "" && block.Meta.Source != q.Source {
		return false
	}

	if q.MinCreatedAt != 0 && block.Meta.CreatedAt < q.MinCreatedAt {
		return false
	}
	if q.MaxCreatedAt != 0 && block.Meta.CreatedAt > q.MaxCreatedAt {
		return false
	}

	if len(q.DerivedFromAny) > 0 {
		set := stringSet(q.DerivedFromAny)
		found := false
		for _, p := range derivedFrom {
			if set[p.Hash] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(q.NotDerivedFromAny) > 0 {
		set := stringSet(q.NotDerivedFromAny)
		for _, p := range derivedFrom {
			if set[p.Hash] {
				return false
			}
		}
	}

	if len(q.ReferencesAny) > 0 && !anyMatch(references, stringSet(q.ReferencesAny)) {
		return false
	}

	if len(q.ExcludeHashes) > 0 {
		for _, h := range q.ExcludeHashes {
			if h == block.Hash {
				return false
			}
		}
	}

	return true
}

func intersectKinds(a, b []BlockKind) []BlockKind {
	if len(a) == 0 {
		return append([]BlockKind{}, b...)
	}
	if len(b) == 0 {
		return append([]BlockKind{}, a...)
	}
	bs := make(map[BlockKind]bool, len(b))
	for _, k := range b {
		bs[k] = true
	}
	var out []BlockKind
	for _, k := range a {
		if bs[k] {
			out = append(out, k)
		}
	}
	return out
}

func unionStrings(a, b []string) []string {
	set := stringSet(a)
	out := append([]string{}, a...)
	for _, s := range b {
		if !set[s] {
			out = append(out, s)
			set[s] = true
		}
	}
	return out
}

func tighterMin(a, b SensitivityLevel) SensitivityLevel {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if sensitivityRank(a) > sensitivityRank(b) {
		return a
	}
	return b
}

func tighterMax(a, b SensitivityLevel) SensitivityLevel {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if sensitivityRank(a) < sensitivityRank(b) {
		return a
	}
	return b
}

func narrowerMin(a, b int64) int64 {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}
	if a > b {
		return a
	}
	return b
}

func narrowerMax(a, b int64) int64 {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}
	if a < b {
		return a
	}
	return b
}

// MergeQueries AND-combines q1..qn: Kinds intersect, Tags union (stricter),
// sensitivity bounds pick the tighter bound, DerivedFromAny/ReferencesAny/
// ExcludeHashes union, timestamp ranges pick the narrower bound, and a
// conflicting Source collapses the result to the impossible query
// (ImpossibleQuery — returns empty results, not an error).
func MergeQueries(queries ...Query) Query {
	if len(queries) == 0 {
		return Query{}
	}
	out := queries[0]
	for _, q := range queries[1:] {
		merged := Query{
			Kinds:             intersectKinds(out.Kinds, q.Kinds),
			Tags:              unionStrings(out.Tags, q.Tags),
			MinSensitivity:    tighterMin(out.MinSensitivity, q.MinSensitivity),
			MaxSensitivity:    tighterMax(out.MaxSensitivity, q.MaxSensitivity),
			MinCreatedAt:      narrowerMin(out.MinCreatedAt, q.MinCreatedAt),
			MaxCreatedAt:      narrowerMax(out.MaxCreatedAt, q.MaxCreatedAt),
			DerivedFromAny:    unionStrings(out.DerivedFromAny, q.DerivedFromAny),
			NotDerivedFromAny: unionStrings(out.NotDerivedFromAny, q.NotDerivedFromAny),
			ReferencesAny:     unionStrings(out.ReferencesAny, q.ReferencesAny),
			ExcludeHashes:     unionStrings(out.ExcludeHashes, q.ExcludeHashes),
		}
		if out.Source != "" && q.Source != "" && out.Source != q.Source {
			merged.impossible = true
		} else if q.Source != "" {
			merged.Source = q.Source
		} else {
			merged.Source = out.Source
		}
		merged.impossible = merged.impossible || out.impossible || q.impossible
		out = merged
	}
	return out
}
