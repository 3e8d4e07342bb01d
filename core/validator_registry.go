package core

import (
	"sort"
	"sync"
)

// ValidatorRegistry is the per-node set of staked validators. It is the
// single logical writer over validator state; readers take a coherent
// snapshot via Active().
type ValidatorRegistry struct {
	mu         sync.RWMutex
	validators map[Address]*Validator
}

// NewValidatorRegistry returns an empty registry.
func NewValidatorRegistry() *ValidatorRegistry {
	return &ValidatorRegistry{validators: make(map[Address]*Validator)}
}

// Register admits a new validator at joinedAtBlock. The caller is
// responsible for having already moved stake out of the sender's spendable
// balance into the locked balance this Validator represents.
func (r *ValidatorRegistry) Register(addr Address, pubKey []byte, stake Amount, joinedAtBlock uint64) error {
	if stake.Cmp(MinValidatorStake) < 0 {
		return wrap(ErrConsensusRule, "stake below minimum validator stake")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.validators[addr]; exists {
		return wrap(ErrState, "validator already registered")
	}
	r.validators[addr] = &Validator{
		Address:        addr,
		PubKey:         pubKey,
		Stake:          stake,
		JoinedAtBlock:  joinedAtBlock,
		Reputation:     0.5,
		LockUntilBlock: joinedAtBlock + ValidatorLockBlocks,
	}
	return nil
}

// Get returns a copy of the validator entry for addr, if present.
func (r *ValidatorRegistry) Get(addr Address) (Validator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.validators[addr]
	if !ok {
		return Validator{}, false
	}
	return *v, true
}

// Active returns the list of currently eligible validators, sorted by
// address ascending — the ordering leader election relies on.
func (r *ValidatorRegistry) Active() []Validator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Validator, 0, len(r.validators))
	for _, v := range r.validators {
		if v.IsActive() {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return lessAddress(out[i].Address, out[j].Address)
	})
	return out
}

func lessAddress(a, b Address) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Leader returns the slot's leader per §4.7: V[slot mod |V|] over the
// active-validator set sorted by address.
func Leader(active []Validator, slotNumber uint64) (Address, bool) {
	if len(active) == 0 {
		return Address{}, false
	}
	return active[slotNumber%uint64(len(active))].Address, true
}

// slotMidMS returns the midpoint timestamp of slotNumber, given the
// genesis timestamp and the network's slot duration.
func slotMidMS(genesisTimestampMS, slotDurationMS, slotNumber uint64) uint64 {
	start := genesisTimestampMS + slotNumber*slotDurationMS
	return start + slotDurationMS/2
}

// timeliness is §4.9's 1 - min(1, |timestamp_ms - slot_mid_ms| / (SLOT_DURATION_MS/2)).
func timeliness(timestampMS, slotMidTimestampMS, slotDurationMS uint64) float64 {
	var delta float64
	if timestampMS > slotMidTimestampMS {
		delta = float64(timestampMS - slotMidTimestampMS)
	} else {
		delta = float64(slotMidTimestampMS - timestampMS)
	}
	half := float64(slotDurationMS) / 2
	ratio := delta / half
	if ratio > 1 {
		ratio = 1
	}
	return 1 - ratio
}

// UpdateReputationOnBlock applies §4.9's reputation update rule for a
// validator that has just produced blockHeight. The produced height is
// recorded as an (Address -> height) lookup on the registry entry rather
// than a reference to the block itself, so the validator record never
// cycles back through a block.
func (r *ValidatorRegistry) UpdateReputationOnBlock(addr Address, blockHeight uint64, spiral SpiralMetadata, timestampMS, genesisTimestampMS, slotDurationMS, slotNumber uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.validators[addr]
	if !ok {
		return
	}
	mid := slotMidMS(genesisTimestampMS, slotDurationMS, slotNumber)
	quality := 0.4*(spiral.Complexity/MaxSpiralComplexity) +
		0.4*spiral.SemanticCoherence +
		0.2*timeliness(timestampMS, mid, slotDurationMS)
	v.Reputation = clamp01(0.9*v.Reputation + 0.1*quality)
	v.LastProducedBlock = &blockHeight
}

// DecayReputationOnMissedSlot applies §4.9's decay rule to a leader that
// failed to produce in its assigned slot.
func (r *ValidatorRegistry) DecayReputationOnMissedSlot(addr Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.validators[addr]
	if !ok {
		return
	}
	v.Reputation *= 0.99
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Slash records a slashing event and burns the corresponding stake
// fraction. The validator becomes inactive immediately: any non-empty
// SlashingEvents list disqualifies it per IsActive.
func (r *ValidatorRegistry) Slash(addr Address, condition SlashCondition, atBlock, slotNumber uint64) (burned Amount, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.validators[addr]
	if !ok {
		return ZeroAmount(), wrap(ErrState, "cannot slash unknown validator")
	}
	burned = v.Stake.MulDivUint64(condition.SlashFractionBasisPoints(), 10_000)
	v.Stake, err = v.Stake.Sub(burned)
	if err != nil {
		return ZeroAmount(), err
	}
	v.SlashingEvents = append(v.SlashingEvents, SlashingEvent{
		Condition:   condition,
		SlashedFrac: condition.SlashFraction(),
		AtBlock:     atBlock,
		SlotNumber:  slotNumber,
	})
	return burned, nil
}
