package core

import "testing"

// TestGenesisOnly reproduces end-to-end scenario 1.
func TestGenesisOnly(t *testing.T) {
	a, b := Address{1}, Address{2}
	params := GenesisParams{
		TimestampMS: 1_700_000_000_000,
		Allocation: map[Address]Amount{
			a: NewAmountQBT(1_000),
			b: NewAmountQBT(500),
		},
	}
	block, state := BuildGenesis(params)

	if block.Header.Height != 0 {
		t.Fatalf("genesis height = %d, want 0", block.Header.Height)
	}
	if block.Header.PreviousHash != ZeroHash {
		t.Fatal("genesis previous_hash must be the zero hash")
	}
	if block.Header.TxCount != 0 {
		t.Fatal("genesis must carry zero transactions")
	}
	if block.Header.Spiral.Complexity != MinSpiralComplexity {
		t.Fatalf("genesis spiral complexity = %v, want MinSpiralComplexity", block.Header.Spiral.Complexity)
	}
	if block.Header.Spiral.SemanticCoherence != 1.0 {
		t.Fatal("genesis spiral semantic_coherence must be 1.0")
	}

	aAcct, ok := state.Account(a)
	if !ok || aAcct.Balance.Cmp(NewAmountQBT(1_000)) != 0 {
		t.Fatalf("balance(A) = %v, want 1000 QBT", aAcct.Balance)
	}
	bAcct, ok := state.Account(b)
	if !ok || bAcct.Balance.Cmp(NewAmountQBT(500)) != 0 {
		t.Fatalf("balance(B) = %v, want 500 QBT", bAcct.Balance)
	}
}

func TestGenesisIsDeterministic(t *testing.T) {
	params := GenesisParams{
		TimestampMS: 1,
		Allocation:  map[Address]Amount{{1}: NewAmountQBT(1)},
	}
	b1, s1 := BuildGenesis(params)
	b2, s2 := BuildGenesis(params)

	if b1.Header.HeaderHash() != b2.Header.HeaderHash() {
		t.Fatal("two nodes building genesis from identical parameters must get the identical block hash")
	}
	if s1.StateRoot() != s2.StateRoot() {
		t.Fatal("two nodes building genesis from identical parameters must get the identical state root")
	}
}
