// Package core implements the consensus-critical subsystem: the data model,
// the Hybrid Slot-based Proof-of-Spiral consensus, the validator registry and
// reward economics, the block/transaction validation pipeline, and the
// mempool and state transition engine.
package core

import (
	"math"

	"github.com/holiman/uint256"
)

// Amount is a 128-bit-range unsigned quantity of base units. 1e18 base units
// equal 1 QBT. Arithmetic is always checked; overflow is a consensus fault,
// never a silently wrapped value.
type Amount struct {
	v uint256.Int
}

// BaseUnitsPerQBT is the number of base units in one QBT.
const BaseUnitsPerQBT = 1_000_000_000_000_000_000

// MinFee is the minimum transaction fee, 0.001 QBT in base units.
var MinFee = NewAmount(1_000_000_000_000_000)

// NewAmount builds an Amount from a base-unit count.
func NewAmount(baseUnits uint64) Amount {
	var a Amount
	a.v.SetUint64(baseUnits)
	return a
}

// NewAmountQBT builds an Amount from a whole QBT count.
func NewAmountQBT(qbt uint64) Amount {
	var a Amount
	var mul uint256.Int
	mul.SetUint64(BaseUnitsPerQBT)
	a.v.Mul(uint256.NewInt(qbt), &mul)
	return a
}

// ZeroAmount is the additive identity.
func ZeroAmount() Amount { return Amount{} }

// Add returns a+b, or an ErrConsensusRule-kind error if the result would
// overflow 256 bits (the protocol's enforced ceiling is lower, but the
// representation itself never wraps silently).
func (a Amount) Add(b Amount) (Amount, error) {
	var out Amount
	_, overflow := out.v.AddOverflow(&a.v, &b.v)
	if overflow {
		return Amount{}, wrap(ErrConsensusRule, "amount overflow on add")
	}
	return out, nil
}

// Sub returns a-b, or ErrState if b > a.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.Cmp(b) < 0 {
		return Amount{}, wrap(ErrState, "amount underflow on sub")
	}
	var out Amount
	out.v.Sub(&a.v, &b.v)
	return out, nil
}

// Cmp returns -1, 0, or 1 as a is less than, equal to, or greater than b.
func (a Amount) Cmp(b Amount) int { return a.v.Cmp(&b.v) }

// MulDivUint64 returns floor(a * num / den), computed against a 512-bit
// intermediate product so a fraction of a value far beyond uint64 range
// (e.g. a multi-QBT stake or reward, which in base units routinely exceeds
// 1e19) never truncates through a uint64 round-trip. den == 0 yields zero.
func (a Amount) MulDivUint64(num, den uint64) Amount {
	if den == 0 {
		return ZeroAmount()
	}
	var n, d, out uint256.Int
	n.SetUint64(num)
	d.SetUint64(den)
	out.MulDivOverflow(&a.v, &n, &d)
	return Amount{v: out}
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a.v.IsZero() }

// Uint64 returns the low 64 bits, truncating silently; callers must only use
// this for values already known to fit (e.g. display of small rewards).
func (a Amount) Uint64() uint64 { return a.v.Uint64() }

// Bytes32 returns the big-endian 32-byte encoding used in canonical
// serialization.
func (a Amount) Bytes32() [32]byte { return a.v.Bytes32() }

// AmountFromBytes32 reconstructs an Amount from its canonical encoding.
func AmountFromBytes32(b [32]byte) Amount {
	var a Amount
	a.v.SetBytes32(b[:])
	return a
}

// Hash is a 32-byte collision-resistant digest.
type Hash [32]byte

// ZeroHash is the all-zero digest used as genesis's previous_hash.
var ZeroHash = Hash{}

// IsZero reports whether h is the all-zero digest.
func (h Hash) IsZero() bool { return h == ZeroHash }

// Address is a 32-byte account identifier derived from a public key.
type Address [32]byte

// IsZero reports whether a is the all-zero address.
func (a Address) IsZero() bool { return a == Address{} }

// AddressFromHexString parses the "0x"-prefixed (or bare) 64-hex-digit form
// produced by Address.String.
func AddressFromHexString(s string) (Address, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s) != 64 {
		return Address{}, wrap(ErrStructural, "malformed address length")
	}
	var a Address
	for i := range a {
		hi, ok1 := hexVal(s[i*2])
		lo, ok2 := hexVal(s[i*2+1])
		if !ok1 || !ok2 {
			return Address{}, wrap(ErrStructural, "malformed address digit")
		}
		a[i] = hi<<4 | lo
	}
	return a, nil
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// String renders the address as "0x" + 64 hex characters.
func (a Address) String() string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 2+64)
	out[0], out[1] = '0', 'x'
	for i, b := range a {
		out[2+i*2] = hexdigits[b>>4]
		out[2+i*2+1] = hexdigits[b&0x0f]
	}
	return string(out)
}

// PiCoordinate is a deterministic point in [-1,1]^4 addressing an entity in
// "pi-space". Equality is bit-exact; NaN/Inf components are never produced
// by a conforming construction.
type PiCoordinate struct {
	X, Y, Z, T float64
}

// Finite reports whether every component is a finite real number.
func (p PiCoordinate) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0) &&
		!math.IsNaN(p.Z) && !math.IsInf(p.Z, 0) &&
		!math.IsNaN(p.T) && !math.IsInf(p.T, 0)
}

// InRange reports whether every component lies in [-1, 1].
func (p PiCoordinate) InRange() bool {
	return inUnit(p.X) && inUnit(p.Y) && inUnit(p.Z) && inUnit(p.T)
}

func inUnit(v float64) bool { return v >= -1.0 && v <= 1.0 }

// Distance returns the Euclidean distance between p and q over the 4-tuple.
func (p PiCoordinate) Distance(q PiCoordinate) float64 {
	dx, dy, dz, dt := p.X-q.X, p.Y-q.Y, p.Z-q.Z, p.T-q.T
	return math.Sqrt(dx*dx + dy*dy + dz*dz + dt*dt)
}

// MaxSpiralJump is the maximum permitted Euclidean distance between the
// PiCoordinates of two adjacent blocks — the diagonal of the normalized
// 4-cube.
const MaxSpiralJump = 4.0

// Intent enumerates the fixed set of transaction intents carried by the
// semantic enrichment fields.
type Intent uint8

const (
	IntentUnspecified Intent = iota
	IntentPayment
	IntentSettlement
	IntentDonation
	IntentStake
	IntentReward
	IntentGovernance
)

// Transaction is a signed value transfer, optionally enriched with semantic
// metadata consumed by the spiral validator.
type Transaction struct {
	Version         uint16
	From            Address
	To              Address
	Amount          Amount
	Fee             Amount
	Nonce           uint64
	TimestampMS     uint64
	Signature       []byte
	SenderPublicKey []byte

	Purpose        string
	SemanticVector [384]float32
	HasSemantic    bool
	Entities       []string
	Intent         Intent
	PiID           PiCoordinate
}

// MaxTxPurposeBytes bounds the UTF-8 purpose field.
const MaxTxPurposeBytes = 512

// MaxTxEntities bounds the entities list.
const MaxTxEntities = 16

// MaxTxBytes bounds a transaction's canonical serialized size.
const MaxTxBytes = 64 * 1024

// SpiralType enumerates the permitted spiral geometries.
type SpiralType uint8

const (
	SpiralArchimedean SpiralType = iota
	SpiralLogarithmic
	SpiralFibonacci
	SpiralFermat
	SpiralRamanujan
)

// spiralTypeCount is the number of distinct SpiralType values.
const spiralTypeCount = 5

func (t SpiralType) valid() bool { return t < spiralTypeCount }

// MinSpiralComplexity and MaxSpiralComplexity bound SpiralMetadata.Complexity.
const (
	MinSpiralComplexity = 50.0
	MaxSpiralComplexity = 250.0
)

// MinSemanticCoherence is the floor for non-genesis blocks.
const MinSemanticCoherence = 0.7

// SpiralMetadata carries a block's geometric and semantic fingerprint.
type SpiralMetadata struct {
	SpiralType          SpiralType
	Complexity          float64
	SelfSimilarity      float64
	InformationDensity  float64
	SemanticCoherence   float64
	PiCoordinate        PiCoordinate
	GeometryDigest      Hash
}

// BlockHeader carries everything about a block except its transaction list.
type BlockHeader struct {
	Version           uint16
	Height            uint64
	PreviousHash      Hash
	MerkleSpiralRoot  Hash
	StateRoot         Hash
	TimestampMS       uint64
	SlotNumber        uint64
	ValidatorAddress  Address
	ValidatorPubKey   []byte
	Signature         []byte
	Spiral            SpiralMetadata
	DifficultyTarget  uint64
	TxCount           uint32
}

// MaxTxPerBlock bounds a block's transaction list.
const MaxTxPerBlock = 1000

// MaxBlockBytes bounds a block's canonical serialized size.
const MaxBlockBytes = 1 << 20

// Block is a header plus its ordered transactions.
type Block struct {
	Header       BlockHeader
	Transactions []Transaction
}

// SlashingEvent records one proven act of validator misbehavior.
type SlashingEvent struct {
	Condition   SlashCondition
	SlashedFrac float64
	AtBlock     uint64
	SlotNumber  uint64
}

// SlashCondition enumerates §4.9's slashing conditions.
type SlashCondition uint8

const (
	SlashInvalidSpiral SlashCondition = iota
	SlashDoubleSign
	SlashSemanticManipulation
	SlashDowntime
	SlashCensorship
)

// SlashFraction returns the stake fraction burned for a condition.
func (c SlashCondition) SlashFraction() float64 {
	switch c {
	case SlashInvalidSpiral:
		return 0.05
	case SlashDoubleSign:
		return 0.50
	case SlashSemanticManipulation:
		return 0.10
	case SlashDowntime:
		return 0.01
	case SlashCensorship:
		return 0.15
	default:
		return 0
	}
}

// SlashFractionBasisPoints is SlashFraction expressed as integer basis
// points (1/100 of a percent) so the burned amount can be computed in
// uint256 instead of round-tripping the stake through a float64.
func (c SlashCondition) SlashFractionBasisPoints() uint64 {
	switch c {
	case SlashInvalidSpiral:
		return 500
	case SlashDoubleSign:
		return 5000
	case SlashSemanticManipulation:
		return 1000
	case SlashDowntime:
		return 100
	case SlashCensorship:
		return 1500
	default:
		return 0
	}
}

// MinValidatorStake is the minimum stake required to register and remain
// active, fixed per the resolved Open Question in §9.
var MinValidatorStake = NewAmountQBT(10_000)

// ValidatorLockBlocks is the number of blocks a new validator's stake is
// locked for after joining.
const ValidatorLockBlocks = 100_000

// Validator is one member of the staked validator set.
type Validator struct {
	Address           Address
	PubKey            []byte
	Stake             Amount
	JoinedAtBlock     uint64
	Reputation        float64
	LastProducedBlock *uint64
	SlashingEvents    []SlashingEvent
	LockUntilBlock    uint64
}

// IsActive reports whether the validator currently satisfies every
// leadership-eligibility invariant.
func (v *Validator) IsActive() bool {
	return v.Stake.Cmp(MinValidatorStake) >= 0 &&
		v.Reputation > 0.3 &&
		len(v.SlashingEvents) == 0
}

// Account is one entry of the world state's Address -> Account mapping.
type Account struct {
	Balance    Amount
	Nonce      uint64
	Reputation float64
}
