package core

import "testing"

func TestBuildSpiralComplexityWithinBounds(t *testing.T) {
	parent := GenesisSpiral()
	spiral := BuildSpiral(parent, nil, ZeroHash, 1_700_000_030_000, 1, [384]float32{}, nil)
	if spiral.Complexity < MinSpiralComplexity || spiral.Complexity > MaxSpiralComplexity {
		t.Fatalf("complexity %v outside [%v,%v]", spiral.Complexity, MinSpiralComplexity, MaxSpiralComplexity)
	}
}

func TestBuildSpiralNoSemanticTxDefaultsToHalf(t *testing.T) {
	score := semanticScore(nil, [384]float32{})
	if score != 0.5 {
		t.Fatalf("semanticScore with no semantic transactions = %v, want 0.5", score)
	}
}

func TestChooseSpiralTypePrefersAbsentFromRecent(t *testing.T) {
	recent := []SpiralType{SpiralArchimedean, SpiralLogarithmic, SpiralFibonacci, SpiralFermat}
	chosen := chooseSpiralType(0, recent)
	if chosen != SpiralRamanujan {
		t.Fatalf("expected the one type absent from recent history, got %v", chosen)
	}
}

func TestValidateSpiralAcceptsSelfConsistentSpiral(t *testing.T) {
	parent := GenesisSpiral()
	previousHash := HashBytes([]byte("prev"))
	timestampMS := uint64(1_700_000_030_000)
	slotNumber := uint64(1)

	built := BuildSpiral(parent, nil, previousHash, timestampMS, slotNumber, [384]float32{}, nil)
	built.SemanticCoherence = MinSemanticCoherence // satisfy check (b); BuildSpiral's raw score may be 0.5

	if err := ValidateSpiral(parent, built, previousHash, timestampMS, slotNumber); err != nil {
		t.Fatalf("expected self-consistent spiral to validate, got: %v", err)
	}
}

func TestValidateSpiralRejectsTamperedPiCoordinate(t *testing.T) {
	parent := GenesisSpiral()
	parent.PiCoordinate = PiCoordinate{X: -1, Y: -1, Z: -1, T: -1}

	previousHash := HashBytes([]byte("prev"))
	timestampMS := uint64(1_700_000_030_000)
	slotNumber := uint64(1)

	built := BuildSpiral(parent, nil, previousHash, timestampMS, slotNumber, [384]float32{}, nil)
	built.SemanticCoherence = MinSemanticCoherence
	built.PiCoordinate = PiCoordinate{X: 1, Y: 1, Z: 1, T: 1} // distance 4 from parent (exactly MaxSpiralJump, so continuity holds); re-derivation fails

	if err := ValidateSpiral(parent, built, previousHash, timestampMS, slotNumber); err == nil {
		t.Fatal("expected a spiral with a tampered pi_coordinate to fail validation")
	}
}

func TestValidateSpiralRejectsBelowCoherenceFloor(t *testing.T) {
	parent := GenesisSpiral()
	previousHash := HashBytes([]byte("prev"))
	timestampMS := uint64(1_700_000_030_000)
	slotNumber := uint64(1)

	built := BuildSpiral(parent, nil, previousHash, timestampMS, slotNumber, [384]float32{}, nil)
	built.SemanticCoherence = 0.1

	if err := ValidateSpiral(parent, built, previousHash, timestampMS, slotNumber); err == nil {
		t.Fatal("expected semantic_coherence below the floor to be rejected")
	}
}
