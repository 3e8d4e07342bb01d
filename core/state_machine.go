package core

import "sort"

// CheckpointInterval is the block interval at which a full state snapshot
// is recorded for fork-resolution revert.
const CheckpointInterval = 100

// TreasuryAddress is the fixed address credited with the treasury's share
// of every block's fee pool.
var TreasuryAddress = Address(HashBytes([]byte("spiralchain-treasury")))

// WorldState is the single logical writer over account balances. Readers
// may hold a coherent snapshot via Snapshot.
type WorldState struct {
	accounts map[Address]Account
	height   uint64
	burned   Amount
}

// NewWorldState returns an empty state at height 0.
func NewWorldState() *WorldState {
	return &WorldState{accounts: make(map[Address]Account)}
}

// Account implements AccountView.
func (s *WorldState) Account(addr Address) (Account, bool) {
	a, ok := s.accounts[addr]
	return a, ok
}

// SetAccount installs or overwrites an account entry — used by genesis
// construction and by checkpoint restore.
func (s *WorldState) SetAccount(addr Address, acct Account) {
	s.accounts[addr] = acct
}

// Height returns the height of the last block applied.
func (s *WorldState) Height() uint64 { return s.height }

// Snapshot returns a deep copy of the state, suitable for the checkpoint
// store and for fork-resolution rollback.
func (s *WorldState) Snapshot() *WorldState {
	cp := &WorldState{
		accounts: make(map[Address]Account, len(s.accounts)),
		height:   s.height,
		burned:   s.burned,
	}
	for addr, acct := range s.accounts {
		cp.accounts[addr] = acct
	}
	return cp
}

// StateRoot recomputes §4.4 step 6's deterministic Merkle root over
// (Address, balance, nonce) triples sorted by Address.
func (s *WorldState) StateRoot() Hash {
	addrs := make([]Address, 0, len(s.accounts))
	for addr := range s.accounts {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return lessAddress(addrs[i], addrs[j]) })

	if len(addrs) == 0 {
		return HashBytes([]byte(""))
	}

	leaves := make([]Hash, len(addrs))
	for i, addr := range addrs {
		acct := s.accounts[addr]
		e := newEncoder()
		e.address(addr)
		e.raw(acct.Balance.Bytes32())
		e.u64(acct.Nonce)
		leaves[i] = HashBytes(e.bytes())
	}
	for len(leaves) > 1 {
		if len(leaves)%2 == 1 {
			leaves = append(leaves, leaves[len(leaves)-1])
		}
		next := make([]Hash, len(leaves)/2)
		for i := 0; i < len(leaves); i += 2 {
			e := newEncoder()
			e.hash(leaves[i])
			e.hash(leaves[i+1])
			next[i/2] = HashBytes(e.bytes())
		}
		leaves = next
	}
	return leaves[0]
}

// ApplyBlock runs §4.4's apply_block: per-transaction balance/nonce
// transitions, reward distribution, height advance, and state_root
// verification. It mutates s in place and returns the block's fee split and
// validator reward for the caller to pass on to reward/reputation
// bookkeeping; on any failure s is left unmodified.
func (s *WorldState) ApplyBlock(block Block, validatorAddr Address, rewardIn RewardInputs) (FeeSplit, Amount, error) {
	working := s.Snapshot()

	feePool := ZeroAmount()
	for _, tx := range block.Transactions {
		if tx.From == tx.To && !tx.Amount.IsZero() {
			return FeeSplit{}, Amount{}, wrap(ErrStructural, "self-transfer requires a zero amount")
		}
		sender, ok := working.accounts[tx.From]
		if !ok {
			return FeeSplit{}, Amount{}, wrap(ErrState, "sender account does not exist")
		}
		if sender.Nonce != tx.Nonce {
			return FeeSplit{}, Amount{}, wrap(ErrState, "sender nonce mismatch")
		}
		total, err := tx.Amount.Add(tx.Fee)
		if err != nil {
			return FeeSplit{}, Amount{}, err
		}
		if sender.Balance.Cmp(total) < 0 {
			return FeeSplit{}, Amount{}, wrap(ErrState, "insufficient balance for amount+fee")
		}

		sender.Balance, err = sender.Balance.Sub(total)
		if err != nil {
			return FeeSplit{}, Amount{}, err
		}
		sender.Nonce++
		working.accounts[tx.From] = sender

		receiver := working.accounts[tx.To]
		receiver.Balance, err = receiver.Balance.Add(tx.Amount)
		if err != nil {
			return FeeSplit{}, Amount{}, err
		}
		working.accounts[tx.To] = receiver

		feePool, err = feePool.Add(tx.Fee)
		if err != nil {
			return FeeSplit{}, Amount{}, err
		}
	}

	split := SplitFees(feePool)
	reward := RewardForBlock(working.height+1, rewardIn)
	validatorCredit, err := split.Validator.Add(reward)
	if err != nil {
		return FeeSplit{}, Amount{}, err
	}

	validatorAcct := working.accounts[validatorAddr]
	validatorAcct.Balance, err = validatorAcct.Balance.Add(validatorCredit)
	if err != nil {
		return FeeSplit{}, Amount{}, err
	}
	working.accounts[validatorAddr] = validatorAcct

	treasuryAcct := working.accounts[TreasuryAddress]
	treasuryAcct.Balance, err = treasuryAcct.Balance.Add(split.Treasury)
	if err != nil {
		return FeeSplit{}, Amount{}, err
	}
	working.accounts[TreasuryAddress] = treasuryAcct

	working.burned, err = working.burned.Add(split.Burned)
	if err != nil {
		return FeeSplit{}, Amount{}, err
	}

	working.height++

	computedRoot := working.StateRoot()
	if computedRoot != block.Header.StateRoot {
		return FeeSplit{}, Amount{}, wrap(ErrConsensusRule, "recomputed state_root does not match header")
	}

	*s = *working
	return split, reward, nil
}

// CheckpointStore persists a WorldState snapshot every CheckpointInterval
// blocks, so fork resolution never replays further back than the last one.
type CheckpointStore struct {
	snapshots map[uint64]*WorldState
}

// NewCheckpointStore returns an empty checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{snapshots: make(map[uint64]*WorldState)}
}

// MaybeCheckpoint records a snapshot if height falls on a checkpoint
// boundary.
func (c *CheckpointStore) MaybeCheckpoint(height uint64, state *WorldState) {
	if height%CheckpointInterval == 0 {
		c.snapshots[height] = state.Snapshot()
	}
}

// Nearest returns the most recent checkpoint at or before height.
func (c *CheckpointStore) Nearest(height uint64) (*WorldState, uint64, bool) {
	boundary := (height / CheckpointInterval) * CheckpointInterval
	for h := boundary; ; h -= CheckpointInterval {
		if snap, ok := c.snapshots[h]; ok {
			return snap.Snapshot(), h, true
		}
		if h == 0 {
			break
		}
	}
	return nil, 0, false
}
