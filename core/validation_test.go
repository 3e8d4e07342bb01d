package core

import "testing"

func buildValidationContext(t *testing.T, leaderSK *SigningKey, leaderPK *PublicKey, leaderAddr Address) (ValidationContext, BlockHeader) {
	t.Helper()
	registry := NewValidatorRegistry()
	if err := registry.Register(leaderAddr, leaderPK.PublicKeyBytes(), MinValidatorStake, 0); err != nil {
		t.Fatalf("Register: %v", err)
	}

	state := NewWorldState()
	state.SetAccount(leaderAddr, Account{Balance: NewAmountQBT(10_000)})

	genesisHeader := BlockHeader{Height: 0, PreviousHash: ZeroHash, Spiral: GenesisSpiral()}

	return ValidationContext{
		ParentHeader:       genesisHeader,
		ParentSpiral:       genesisHeader.Spiral,
		State:              state,
		Registry:           registry,
		GenesisTimestampMS: 0,
		SlotDurationMS:     SlotDurationTestnetMS,
	}, genesisHeader
}

func buildValidBlock(t *testing.T, ctx ValidationContext, parent BlockHeader, sk *SigningKey, pk *PublicKey, addr Address, slotNumber uint64) Block {
	t.Helper()
	timestampMS := slotNumber * SlotDurationTestnetMS
	spiral := BuildSpiral(parent.Spiral, nil, parent.HeaderHash(), timestampMS, slotNumber, [384]float32{}, nil)
	spiral.SemanticCoherence = MinSemanticCoherence

	header := BlockHeader{
		Version:          1,
		Height:           parent.Height + 1,
		PreviousHash:     parent.HeaderHash(),
		MerkleSpiralRoot: MerkleSpiralRoot(nil),
		StateRoot:        Hash{}, // filled below
		TimestampMS:      timestampMS,
		SlotNumber:       slotNumber,
		ValidatorAddress: addr,
		ValidatorPubKey:  pk.PublicKeyBytes(),
		Spiral:           spiral,
		TxCount:          0,
	}

	expected := ctx.State.Snapshot()
	reward := RewardForBlock(header.Height, RewardInputs{Complexity: spiral.Complexity, SemanticCoherence: spiral.SemanticCoherence, SpiralType: spiral.SpiralType})
	vAcct, _ := expected.Account(addr)
	vAcct.Balance, _ = vAcct.Balance.Add(reward)
	expected.SetAccount(addr, vAcct)
	header.StateRoot = expected.StateRoot()

	sig, err := sk.Sign(header.HeaderCanonicalBytes())
	if err != nil {
		t.Fatalf("Sign header: %v", err)
	}
	header.Signature = sig

	return Block{Header: header}
}

func TestValidateAndAcceptBlockHappyPath(t *testing.T) {
	sk, pk, err := GenerateSigningKey()
	if err != nil {
		t.Fatalf("GenerateSigningKey: %v", err)
	}
	addr := AddressFromPublicKey(pk.PublicKeyBytes())
	ctx, genesisHeader := buildValidationContext(t, sk, pk, addr)

	block := buildValidBlock(t, ctx, genesisHeader, sk, pk, addr, 0)

	if _, _, err := ValidateAndAcceptBlock(block, ctx); err != nil {
		t.Fatalf("expected a correctly constructed block to be accepted, got: %v", err)
	}
}

// TestValidateAndAcceptBlockRejectsWrongLeader reproduces end-to-end
// scenario 4: a non-leader validator's block must be rejected.
func TestValidateAndAcceptBlockRejectsWrongLeader(t *testing.T) {
	sk1, pk1, err := GenerateSigningKey()
	if err != nil {
		t.Fatalf("GenerateSigningKey: %v", err)
	}
	sk2, pk2, err := GenerateSigningKey()
	if err != nil {
		t.Fatalf("GenerateSigningKey: %v", err)
	}
	addr1 := AddressFromPublicKey(pk1.PublicKeyBytes())
	addr2 := AddressFromPublicKey(pk2.PublicKeyBytes())

	registry := NewValidatorRegistry()
	// register in a fixed order; leader() only depends on sorted addresses.
	if err := registry.Register(addr1, pk1.PublicKeyBytes(), MinValidatorStake, 0); err != nil {
		t.Fatalf("Register addr1: %v", err)
	}
	if err := registry.Register(addr2, pk2.PublicKeyBytes(), MinValidatorStake, 0); err != nil {
		t.Fatalf("Register addr2: %v", err)
	}

	state := NewWorldState()
	state.SetAccount(addr1, Account{Balance: NewAmountQBT(10_000)})
	state.SetAccount(addr2, Account{Balance: NewAmountQBT(10_000)})

	genesisHeader := BlockHeader{Height: 0, PreviousHash: ZeroHash, Spiral: GenesisSpiral()}
	ctx := ValidationContext{
		ParentHeader:       genesisHeader,
		ParentSpiral:       genesisHeader.Spiral,
		State:              state,
		Registry:           registry,
		GenesisTimestampMS: 0,
		SlotDurationMS:     SlotDurationTestnetMS,
	}

	active := registry.Active()
	leader, _ := Leader(active, 0)
	var impostorSK *SigningKey
	var impostorPK *PublicKey
	var impostorAddr Address
	if leader == addr1 {
		impostorSK, impostorPK, impostorAddr = sk2, pk2, addr2
	} else {
		impostorSK, impostorPK, impostorAddr = sk1, pk1, addr1
	}

	block := buildValidBlock(t, ctx, genesisHeader, impostorSK, impostorPK, impostorAddr, 0)

	_, _, err = ValidateAndAcceptBlock(block, ctx)
	if err == nil {
		t.Fatal("expected a block proposed by a non-leader to be rejected")
	}
}

func TestValidateAndAcceptBlockRejectsBadSignature(t *testing.T) {
	sk, pk, err := GenerateSigningKey()
	if err != nil {
		t.Fatalf("GenerateSigningKey: %v", err)
	}
	addr := AddressFromPublicKey(pk.PublicKeyBytes())
	ctx, genesisHeader := buildValidationContext(t, sk, pk, addr)
	block := buildValidBlock(t, ctx, genesisHeader, sk, pk, addr, 0)
	block.Header.Signature = []byte("not-a-real-signature")

	if _, _, err := ValidateAndAcceptBlock(block, ctx); err == nil {
		t.Fatal("expected a tampered header signature to be rejected")
	}
}

func TestValidateAndAcceptBlockRejectsNonZeroSelfTransfer(t *testing.T) {
	sk, pk, err := GenerateSigningKey()
	if err != nil {
		t.Fatalf("GenerateSigningKey: %v", err)
	}
	addr := AddressFromPublicKey(pk.PublicKeyBytes())
	ctx, genesisHeader := buildValidationContext(t, sk, pk, addr)

	selfTx := Transaction{
		Version:         1,
		From:            addr,
		To:              addr,
		Amount:          NewAmount(1),
		Fee:             MinFee,
		Nonce:           0,
		SenderPublicKey: pk.PublicKeyBytes(),
	}
	sig, err := sk.Sign(selfTx.SigningMessage())
	if err != nil {
		t.Fatalf("Sign tx: %v", err)
	}
	selfTx.Signature = sig

	timestampMS := uint64(0)
	spiral := BuildSpiral(genesisHeader.Spiral, nil, genesisHeader.HeaderHash(), timestampMS, 0, [384]float32{}, nil)
	spiral.SemanticCoherence = MinSemanticCoherence
	header := BlockHeader{
		Version:          1,
		Height:           genesisHeader.Height + 1,
		PreviousHash:     genesisHeader.HeaderHash(),
		MerkleSpiralRoot: MerkleSpiralRoot([]Transaction{selfTx}),
		TimestampMS:      timestampMS,
		SlotNumber:       0,
		ValidatorAddress: addr,
		ValidatorPubKey:  pk.PublicKeyBytes(),
		Spiral:           spiral,
		TxCount:          1,
	}
	hsig, err := sk.Sign(header.HeaderCanonicalBytes())
	if err != nil {
		t.Fatalf("Sign header: %v", err)
	}
	header.Signature = hsig
	block := Block{Header: header, Transactions: []Transaction{selfTx}}

	if _, _, err := ValidateAndAcceptBlock(block, ctx); err == nil {
		t.Fatal("expected a nonzero-amount self-transfer to be rejected")
	}
}
