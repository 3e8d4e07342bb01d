package core

import "math"

// spiralSampleCount is N, the number of points sampled along a spiral when
// deriving its geometry digest.
const spiralSampleCount = 64

// geometryTolerance bounds the acceptable drift between two independently
// computed geometric scores; anything beyond it is non-determinism, not
// soft consensus.
const geometryTolerance = 1e-6

// BuildSpiral constructs the SpiralMetadata for a new block, given the
// parent's spiral, the candidate transaction set, the previous block hash,
// and the slot/time the block is produced in.
func BuildSpiral(parent SpiralMetadata, txs []Transaction, previousHash Hash, timestampMS, slotNumber uint64, parentThemeVector [384]float32, recentTypes []SpiralType) SpiralMetadata {
	pi := GeneratePiCoordinate(previousHash, timestampMS, slotNumber)
	spiralType := chooseSpiralType(slotNumber, recentTypes)
	samples := sampleSpiral(spiralType, pi)

	geometric := geometricScore(samples, slotNumber)
	semantic := semanticScore(txs, parentThemeVector)
	complexity := 0.6*geometric + 0.4*(100*semantic)

	return SpiralMetadata{
		SpiralType:         spiralType,
		Complexity:         complexity,
		SelfSimilarity:     selfSimilarity(samples),
		InformationDensity: informationDensity(samples, len(txs)),
		SemanticCoherence:  semantic,
		PiCoordinate:       pi,
		GeometryDigest:     geometryDigest(samples),
	}
}

// chooseSpiralType picks deterministically from the permitted rotation,
// preferring a type absent from recentTypes (the last 16 blocks) to earn
// the novelty bonus (§4.8).
func chooseSpiralType(slotNumber uint64, recentTypes []SpiralType) SpiralType {
	seen := map[SpiralType]bool{}
	for _, t := range recentTypes {
		seen[t] = true
	}
	start := SpiralType(slotNumber % spiralTypeCount)
	for i := 0; i < spiralTypeCount; i++ {
		candidate := SpiralType((uint64(start) + uint64(i)) % spiralTypeCount)
		if !seen[candidate] {
			return candidate
		}
	}
	return start
}

// semanticScore is the mean cosine-style dot product of each semantically
// enriched transaction's vector against parentThemeVector, or 0.5 if no
// transaction carries a semantic vector.
func semanticScore(txs []Transaction, parentThemeVector [384]float32) float64 {
	var sum float64
	var count int
	for _, tx := range txs {
		if !tx.HasSemantic {
			continue
		}
		var dot float64
		for i := range tx.SemanticVector {
			dot += float64(tx.SemanticVector[i]) * float64(parentThemeVector[i])
		}
		sum += dot
		count++
	}
	if count == 0 {
		return 0.5
	}
	return sum / float64(count)
}

// spiralSample is one point on the canonical spiral's sampled curve.
type spiralSample struct {
	X, Y float64
}

// sampleSpiral deterministically samples spiralSampleCount points along the
// canonical curve for spiralType, seeded by pi so two nodes computing the
// same declared (pi_coordinate, spiral_type) always produce identical
// samples.
func sampleSpiral(spiralType SpiralType, pi PiCoordinate) [spiralSampleCount]spiralSample {
	var out [spiralSampleCount]spiralSample
	seed := (pi.X + pi.Y + pi.Z + pi.T + 4) / 8 // in [0,1]
	for i := 0; i < spiralSampleCount; i++ {
		theta := seed*2*math.Pi + float64(i)*(2*math.Pi/spiralSampleCount)
		r := spiralRadius(spiralType, theta, i)
		out[i] = spiralSample{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
	}
	return out
}

func spiralRadius(spiralType SpiralType, theta float64, i int) float64 {
	switch spiralType {
	case SpiralArchimedean:
		return 1 + theta
	case SpiralLogarithmic:
		return math.Exp(0.1 * theta)
	case SpiralFibonacci:
		return math.Pow(1.6180339887, theta/(math.Pi/2))
	case SpiralFermat:
		return math.Sqrt(math.Abs(theta))
	case SpiralRamanujan:
		return 1 + math.Log1p(theta)*math.Sin(theta/3)
	default:
		return 1 + theta
	}
}

// geometricScore is the mean pairwise Euclidean distance between
// consecutive sample points, scaled by a slot_number-derived factor.
func geometricScore(samples [spiralSampleCount]spiralSample, slotNumber uint64) float64 {
	var sum float64
	for i := 1; i < len(samples); i++ {
		dx := samples[i].X - samples[i-1].X
		dy := samples[i].Y - samples[i-1].Y
		sum += math.Sqrt(dx*dx + dy*dy)
	}
	mean := sum / float64(len(samples)-1)
	scale := 1.0 + float64(slotNumber%16)/16.0
	score := mean * scale * 10
	if score > MaxSpiralComplexity {
		score = MaxSpiralComplexity
	}
	return score
}

// selfSimilarity scores how closely the second half of the sample mirrors
// the first half's relative spacing, a coarse fractal-dimension proxy.
func selfSimilarity(samples [spiralSampleCount]spiralSample) float64 {
	half := len(samples) / 2
	var diff float64
	for i := 0; i < half; i++ {
		dx := samples[i].X - samples[i+half].X/1.618
		dy := samples[i].Y - samples[i+half].Y/1.618
		diff += math.Sqrt(dx*dx + dy*dy)
	}
	avg := diff / float64(half)
	return 1 / (1 + avg)
}

// informationDensity scales with how many transactions a block packs
// relative to the spiral's sampled arclength.
func informationDensity(samples [spiralSampleCount]spiralSample, txCount int) float64 {
	var arclen float64
	for i := 1; i < len(samples); i++ {
		dx := samples[i].X - samples[i-1].X
		dy := samples[i].Y - samples[i-1].Y
		arclen += math.Sqrt(dx*dx + dy*dy)
	}
	if arclen == 0 {
		return 0
	}
	return float64(txCount) / arclen
}

// geometryDigest hashes the canonical encoding of the sampled spiral curve.
func geometryDigest(samples [spiralSampleCount]spiralSample) Hash {
	e := newEncoder()
	for _, s := range samples {
		e.f64(s.X)
		e.f64(s.Y)
	}
	return HashBytes(e.bytes())
}

// ValidateSpiral runs checks (a)-(f) of §4.6 against a candidate block's
// declared spiral metadata. It returns the first violated check's error.
func ValidateSpiral(parent SpiralMetadata, block SpiralMetadata, previousHash Hash, timestampMS, slotNumber uint64) error {
	if block.Complexity < MinSpiralComplexity || block.Complexity > MaxSpiralComplexity {
		return wrapf(ErrConsensusRule, "spiral complexity %.3f out of bounds [%.0f,%.0f]", block.Complexity, MinSpiralComplexity, MaxSpiralComplexity)
	}
	if block.SemanticCoherence < MinSemanticCoherence {
		return wrapf(ErrConsensusRule, "semantic coherence %.3f below floor %.2f", block.SemanticCoherence, MinSemanticCoherence)
	}
	if parent.PiCoordinate.Distance(block.PiCoordinate) > MaxSpiralJump {
		return wrap(ErrConsensusRule, "spiral continuity violated: jump exceeds MAX_SPIRAL_JUMP")
	}
	if !block.SpiralType.valid() {
		return wrap(ErrConsensusRule, "unrecognized spiral type")
	}
	samples := sampleSpiral(block.SpiralType, block.PiCoordinate)
	if geometryDigest(samples) != block.GeometryDigest {
		return wrap(ErrConsensusRule, "geometry digest does not reproduce from declared pi_coordinate and spiral_type")
	}
	expectedPi := GeneratePiCoordinate(previousHash, timestampMS, slotNumber)
	if expectedPi != block.PiCoordinate {
		return wrap(ErrConsensusRule, "pi_coordinate does not re-derive from (previous_hash, timestamp_ms, slot_number)")
	}
	return nil
}

// WithinGeometryTolerance reports whether two independently computed
// geometric scores agree within the strict determinism tolerance.
func WithinGeometryTolerance(a, b float64) bool {
	return math.Abs(a-b) <= geometryTolerance
}
