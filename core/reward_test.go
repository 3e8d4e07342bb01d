package core

import "testing"

func TestBaseRewardHalving(t *testing.T) {
	if BaseReward(0).Cmp(InitialBlockReward) != 0 {
		t.Fatalf("BaseReward(0) = %v, want initial reward", BaseReward(0))
	}
	half := NewAmount(InitialBlockReward.Uint64() / 2)
	if BaseReward(HalvingBlocks).Cmp(half) != 0 {
		t.Fatalf("BaseReward at first halving boundary = %v, want %v", BaseReward(HalvingBlocks), half)
	}
}

func TestBaseRewardZeroAfterMaxHalvings(t *testing.T) {
	if !BaseReward(HalvingBlocks * MaxHalvings).IsZero() {
		t.Fatal("expected zero base reward at and beyond MaxHalvings")
	}
}

func TestRewardForBlockClampedToTwiceBase(t *testing.T) {
	in := RewardInputs{
		Complexity:        MaxSpiralComplexity,
		SemanticCoherence: 1.0,
		SpiralType:        SpiralFibonacci,
		RecentSpiralTypes: nil, // novel => 1.2x
		TxCount:           100, // fullness => 1.1x
	}
	reward := RewardForBlock(0, in)
	base := BaseReward(0)
	maxAllowed := base.MulDivUint64(2, 1) // base.Uint64()*2 would overflow uint64 here
	if reward.Cmp(maxAllowed) > 0 {
		t.Fatalf("reward %v exceeds 2x base %v", reward, maxAllowed)
	}
}

func TestSplitFeesSumsExactly(t *testing.T) {
	pool := NewAmount(1_000_000_000_000_007) // just above MinFee, intentionally not a multiple of 10
	split := SplitFees(pool)
	sum := split.Validator.Uint64() + split.Burned.Uint64() + split.Treasury.Uint64()
	if sum != pool.Uint64() {
		t.Fatalf("fee split sums to %d, want %d", sum, pool.Uint64())
	}
}

func TestSplitFeesExactMultipleOfTen(t *testing.T) {
	pool := NewAmount(100)
	split := SplitFees(pool)
	if split.Validator.Uint64() != 50 || split.Burned.Uint64() != 30 || split.Treasury.Uint64() != 20 {
		t.Fatalf("unexpected split for a round pool: %+v", split)
	}
}
