package core

// InitialBlockReward is the per-block base reward before halving, in QBT.
var InitialBlockReward = NewAmountQBT(10)

// HalvingBlocks is the block interval at which the base reward halves.
const HalvingBlocks = 2_102_400

// MaxHalvings bounds the halving schedule; the base reward is zero beyond it.
const MaxHalvings = 64

// BaseReward returns the halved base reward for the block at height.
func BaseReward(height uint64) Amount {
	halvings := height / HalvingBlocks
	if halvings >= MaxHalvings {
		return ZeroAmount()
	}
	base := InitialBlockReward.Uint64()
	return NewAmount(base >> halvings)
}

// RewardInputs carries everything RewardForBlock needs beyond height.
type RewardInputs struct {
	Complexity        float64
	SemanticCoherence float64
	SpiralType        SpiralType
	RecentSpiralTypes []SpiralType // last 16 blocks' spiral types
	TxCount           int
}

// RewardForBlock computes §4.10's block reward: base scaled by the
// complexity/coherence/novelty/fullness multipliers, clamped to 2x base.
func RewardForBlock(height uint64, in RewardInputs) Amount {
	base := BaseReward(height)
	if base.IsZero() {
		return base
	}

	complexityMult := in.Complexity / 100.0
	if complexityMult > 1.5 {
		complexityMult = 1.5
	}
	coherenceMult := in.SemanticCoherence
	if coherenceMult < 0 {
		coherenceMult = 0
	} else if coherenceMult > 1 {
		coherenceMult = 1
	}
	noveltyMult := 1.0
	if !containsSpiralType(in.RecentSpiralTypes, in.SpiralType) {
		noveltyMult = 1.2
	}
	fullnessMult := 1.0
	if in.TxCount > 80 {
		fullnessMult = 1.1
	}

	mult := complexityMult * coherenceMult * noveltyMult * fullnessMult
	if mult > 2.0 {
		mult = 2.0
	}

	// mult is a dimensionless ratio bounded to [0, 2.0]; scale it into a
	// fixed-point numerator so the reward (which in base units routinely
	// exceeds uint64 range) is scaled via a 512-bit intermediate product
	// instead of ever being round-tripped through base.Uint64().
	const multScale = 1_000_000
	numerator := uint64(mult * multScale)
	return base.MulDivUint64(numerator, multScale)
}

func containsSpiralType(types []SpiralType, t SpiralType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

// FeeSplit holds the three shares a block's fee pool divides into.
type FeeSplit struct {
	Validator Amount
	Burned    Amount
	Treasury  Amount
}

// SplitFees divides a block's fee pool per §4.10: floor(F*n/10) for
// n in {5,3,2}, with the integer-division remainder burned. Each share is
// computed directly against pool's 256-bit value so a large fee pool never
// truncates through a uint64 round-trip.
func SplitFees(pool Amount) FeeSplit {
	validator := pool.MulDivUint64(5, 10)
	burned := pool.MulDivUint64(3, 10)
	treasury := pool.MulDivUint64(2, 10)

	spent, _ := validator.Add(burned)
	spent, _ = spent.Add(treasury)
	remainder, _ := pool.Sub(spent)
	burned, _ = burned.Add(remainder)

	return FeeSplit{
		Validator: validator,
		Burned:    burned,
		Treasury:  treasury,
	}
}
