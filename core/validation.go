package core

// ValidationContext bundles everything validate_and_accept_block needs
// beyond the candidate block itself.
type ValidationContext struct {
	ParentHeader       BlockHeader
	ParentSpiral       SpiralMetadata
	State              *WorldState
	Registry           *ValidatorRegistry
	GenesisTimestampMS uint64
	SlotDurationMS     uint64
	// RecentSpiralTypes is the node's rolling window of the last 16 blocks'
	// spiral types (see Node.RecentSpiralTypes), fed into §4.10's novelty
	// bonus when computing the block reward.
	RecentSpiralTypes []SpiralType
}

// blockCanonicalBytes is the full wire encoding of a block, used only for
// the structural size check.
func blockCanonicalBytes(b Block) []byte {
	e := newEncoder()
	e.raw(b.Header.HeaderCanonicalBytes())
	e.bytesField(b.Header.Signature)
	e.u32(uint32(len(b.Transactions)))
	for i := range b.Transactions {
		e.raw(b.Transactions[i].CanonicalBytes())
		e.bytesField(b.Transactions[i].Signature)
	}
	return e.bytes()
}

// ValidateAndAcceptBlock runs §4.11's fail-fast pipeline. On success it
// returns the fee split and reward credited, for the caller to pass to
// reputation/mempool bookkeeping (step 11's accepted-block event). It
// never mutates ctx.State on failure.
func ValidateAndAcceptBlock(block Block, ctx ValidationContext) (FeeSplit, Amount, error) {
	// 1. Structural.
	if len(blockCanonicalBytes(block)) > MaxBlockBytes {
		return FeeSplit{}, Amount{}, wrap(ErrStructural, "block exceeds MaxBlockBytes")
	}
	if int(block.Header.TxCount) != len(block.Transactions) || len(block.Transactions) > MaxTxPerBlock {
		return FeeSplit{}, Amount{}, wrap(ErrStructural, "tx_count mismatch or exceeds MaxTxPerBlock")
	}

	// 2. Header signature and address derivation.
	validatorAddr := AddressFromPublicKey(block.Header.ValidatorPubKey)
	if validatorAddr != block.Header.ValidatorAddress {
		return FeeSplit{}, Amount{}, wrap(ErrCryptographic, "validator_address does not derive from validator_pubkey")
	}
	if !Verify(block.Header.ValidatorPubKey, block.Header.HeaderCanonicalBytes(), block.Header.Signature) {
		return FeeSplit{}, Amount{}, wrap(ErrCryptographic, "header signature does not verify")
	}

	// 3. Registry membership and leadership.
	validator, ok := ctx.Registry.Get(validatorAddr)
	if !ok || !validator.IsActive() {
		return FeeSplit{}, Amount{}, wrap(ErrConsensusRule, "validator not registered or not active")
	}
	active := ctx.Registry.Active()
	leader, ok := Leader(active, block.Header.SlotNumber)
	if !ok || leader != validatorAddr {
		return FeeSplit{}, Amount{}, wrap(ErrConsensusRule, "validator is not the elected leader for slot_number")
	}

	// 4. Slot bounds.
	if !WithinSlotBounds(block.Header.TimestampMS, block.Header.SlotNumber, ctx.GenesisTimestampMS, ctx.SlotDurationMS) {
		return FeeSplit{}, Amount{}, wrap(ErrConsensusRule, "timestamp_ms outside slot bounds")
	}

	// 5. previous_hash against current tip (fork resolution is the caller's
	// responsibility when this fails; here we only check the extend-tip case).
	if block.Header.PreviousHash != ctx.ParentHeader.HeaderHash() {
		return FeeSplit{}, Amount{}, wrap(ErrConsensusRule, "previous_hash does not match current tip")
	}

	// 6. Height.
	if block.Header.Height != ctx.ParentHeader.Height+1 {
		return FeeSplit{}, Amount{}, wrap(ErrConsensusRule, "height is not parent.height + 1")
	}

	// 7. Merkle-Spiral root.
	if MerkleSpiralRoot(block.Transactions) != block.Header.MerkleSpiralRoot {
		return FeeSplit{}, Amount{}, wrap(ErrConsensusRule, "merkle_spiral_root does not match recomputed root")
	}

	// 8. Spiral checks (a)-(f).
	if err := ValidateSpiral(ctx.ParentSpiral, block.Header.Spiral, block.Header.PreviousHash, block.Header.TimestampMS, block.Header.SlotNumber); err != nil {
		return FeeSplit{}, Amount{}, err
	}

	// 9. Per-transaction structural/signature/fee checks.
	for i := range block.Transactions {
		tx := &block.Transactions[i]
		if len(tx.Purpose) > MaxTxPurposeBytes || len(tx.Entities) > MaxTxEntities {
			return FeeSplit{}, Amount{}, wrap(ErrStructural, "transaction exceeds purpose/entity bounds")
		}
		if len(tx.CanonicalBytes()) > MaxTxBytes {
			return FeeSplit{}, Amount{}, wrap(ErrStructural, "transaction exceeds MaxTxBytes")
		}
		if tx.Fee.Cmp(MinFee) < 0 {
			return FeeSplit{}, Amount{}, wrap(ErrState, "transaction fee below MIN_FEE")
		}
		if !Verify(tx.SenderPublicKey, tx.SigningMessage(), tx.Signature) {
			return FeeSplit{}, Amount{}, wrap(ErrCryptographic, "transaction signature does not verify")
		}
		if tx.From == tx.To && !tx.Amount.IsZero() {
			return FeeSplit{}, Amount{}, wrap(ErrStructural, "self-transfer requires a zero amount")
		}
	}

	// 10. Apply via state machine; state_root must match (checked inside).
	rewardIn := RewardInputs{
		Complexity:        block.Header.Spiral.Complexity,
		SemanticCoherence: block.Header.Spiral.SemanticCoherence,
		SpiralType:        block.Header.Spiral.SpiralType,
		RecentSpiralTypes: ctx.RecentSpiralTypes,
		TxCount:           len(block.Transactions),
	}
	split, reward, err := ctx.State.ApplyBlock(block, validatorAddr, rewardIn)
	if err != nil {
		return FeeSplit{}, Amount{}, err
	}

	// 11. Accepted-block event: reputation update and recording this block's
	// spiral type into the rolling window are the caller's responsibility,
	// invoked immediately after this call returns successfully.
	return split, reward, nil
}
