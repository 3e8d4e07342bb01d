package core

import (
	"math"

	"golang.org/x/crypto/sha3"
)

// semanticFallbackDomain is the domain-separation suffix mixed into the
// fallback embedding's hash input, per the resolved Open Question on
// embedding-service unavailability.
const semanticFallbackDomain = "semantic-fallback-v1"

// Embedder produces a 384-dimensional semantic embedding of purpose text.
// It is an external service boundary: the core depends only on this
// interface and never assumes any particular embedding model is reachable.
type Embedder interface {
	Embed(purpose string) ([384]float32, error)
}

// FallbackEmbedder derives a deterministic embedding when no external
// embedding service is configured, so SemanticCoherence is still computable
// and every validator converges on the identical value for the same
// purpose string. It carries no semantic meaning of its own; it only
// stands in for an unavailable external Embedder.
type FallbackEmbedder struct{}

// Embed implements Embedder via FallbackEmbed.
func (FallbackEmbedder) Embed(purpose string) ([384]float32, error) {
	return FallbackEmbed(purpose), nil
}

// FallbackEmbed is L2-normalize(first-384 f32s from
// hash(purpose_bytes || "semantic-fallback-v1")), using SHAKE256 as the
// extendable-output hash so 384 components (1536 bytes) can be drawn from
// a single domain-separated digest.
func FallbackEmbed(purpose string) [384]float32 {
	xof := sha3.NewShake256()
	_, _ = xof.Write([]byte(purpose))
	_, _ = xof.Write([]byte(semanticFallbackDomain))

	var out [384]float32
	var buf [4]byte
	for i := range out {
		_, _ = xof.Read(buf[:])
		v := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
		out[i] = normalizeUnit32(v)
	}
	return l2Normalize(out)
}

func normalizeUnit32(v uint32) float32 {
	f := float32(v) / float32(math.MaxUint32)
	return f*2 - 1
}

func l2Normalize(v [384]float32) [384]float32 {
	var sumSq float64
	for _, f := range v {
		sumSq += float64(f) * float64(f)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return v
	}
	var out [384]float32
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}
