package context

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeHash implements the block-hash invariant:
//
//	blockHash == SHA256(JSON({meta: stableMetaSubset(meta), payload: canonicalize(payload)}))
//
// with all object keys sorted recursively. payloadCanonical must already be
// the codec's canonical encoding (codec.Canonicalize output); this function
// does not re-canonicalize it, only wraps it alongside the stable metadata.
func ComputeHash(meta BlockMeta, payloadCanonical []byte) (string, error) {
	var payload any
	if len(payloadCanonical) == 0 {
		payload = map[string]any{}
	} else {
		generic, err := toGeneric(jsonRaw(payloadCanonical))
		if err != nil {
			return "", err
		}
		payload = generic
	}

	envelope := map[string]any{
		"meta":    meta.stable(),
		"payload": payload,
	}
	canonical, err := CanonicalizeValue(envelope)
	if err != nil {
		return "", err
	}
	return sha256Hex(canonical), nil
}

// jsonRaw lets us feed already-encoded JSON bytes through toGeneric (which
// expects a json.Marshal-able value) without double-encoding them.
type jsonRaw []byte

func (j jsonRaw) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// sha256Hex is the shared SHA256-then-hex-encode step every hash in this
// package ends with.
func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// EmptyCanonicalHash is the fixed hash of the canonical empty object: the
// SHA-256 of CanonicalizeValue's encoding of {}, without a block's
// meta/payload envelope. It is computed once with the same canonicalization
// every block uses so it can never drift from general canonicalization
// behavior.
var EmptyCanonicalHash = mustComputeEmptyHash()

func mustComputeEmptyHash() string {
	canonical, err := CanonicalizeValue(map[string]any{})
	if err != nil {
		panic(err)
	}
	return sha256Hex(canonical)
}
