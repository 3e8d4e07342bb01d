package core

import "sort"

// GenesisParams is the agreed-upon set of genesis parameters every node
// must construct the identical genesis block from.
type GenesisParams struct {
	TimestampMS uint64
	Allocation  map[Address]Amount
}

// GenesisSpiral is the fixed spiral metadata carried by the genesis block:
// complexity at the floor, full semantic coherence, and a zero centroid
// (there are no transactions to derive one from).
func GenesisSpiral() SpiralMetadata {
	samples := sampleSpiral(SpiralArchimedean, PiCoordinate{})
	return SpiralMetadata{
		SpiralType:         SpiralArchimedean,
		Complexity:         MinSpiralComplexity,
		SelfSimilarity:     selfSimilarity(samples),
		InformationDensity: 0,
		SemanticCoherence:  1.0,
		PiCoordinate:       PiCoordinate{},
		GeometryDigest:     geometryDigest(samples),
	}
}

// BuildGenesis constructs the deterministic genesis block and the
// WorldState it produces, per §6's genesis rules: fixed timestamp, zero
// previous_hash, empty transaction list, floor-complexity spiral, the fixed
// allocation applied before state_root is computed, and no signature.
func BuildGenesis(params GenesisParams) (Block, *WorldState) {
	state := NewWorldState()
	addrs := make([]Address, 0, len(params.Allocation))
	for addr := range params.Allocation {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return lessAddress(addrs[i], addrs[j]) })
	for _, addr := range addrs {
		state.SetAccount(addr, Account{Balance: params.Allocation[addr], Reputation: 1.0})
	}

	header := BlockHeader{
		Version:          1,
		Height:           0,
		PreviousHash:     ZeroHash,
		MerkleSpiralRoot: MerkleSpiralRoot(nil),
		StateRoot:        state.StateRoot(),
		TimestampMS:      params.TimestampMS,
		SlotNumber:       0,
		ValidatorAddress: Address{},
		ValidatorPubKey:  nil,
		Signature:        nil,
		Spiral:           GenesisSpiral(),
		DifficultyTarget: 0,
		TxCount:          0,
	}

	return Block{Header: header}, state
}
