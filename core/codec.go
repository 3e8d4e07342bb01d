package core

import (
	"encoding/binary"
	"math"
)

// Canonical serialization: fixed-width little-endian integers, u32
// length-prefixed byte strings, IEEE-754 bit patterns for floats, sorted
// iteration for any map-shaped data. Every hashed or wire-transmitted value
// in the core goes through this encoder so all nodes agree bit-for-bit.

type encoder struct {
	buf []byte
}

func newEncoder() *encoder { return &encoder{buf: make([]byte, 0, 256)} }

func (e *encoder) bytes() []byte { return e.buf }

func (e *encoder) u8(v uint8) { e.buf = append(e.buf, v) }

func (e *encoder) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *encoder) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *encoder) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *encoder) f64(v float64) { e.u64(math.Float64bits(v)) }

func (e *encoder) raw(b []byte) { e.buf = append(e.buf, b...) }

// bytesField writes a u32 length prefix followed by the raw bytes.
func (e *encoder) bytesField(b []byte) {
	e.u32(uint32(len(b)))
	e.buf = append(e.buf, b...)
}

// stringField is bytesField over the string's UTF-8 bytes.
func (e *encoder) stringField(s string) { e.bytesField([]byte(s)) }

func (e *encoder) hash(h Hash) { e.raw(h[:]) }

func (e *encoder) address(a Address) { e.raw(a[:]) }

func (e *encoder) piCoordinate(p PiCoordinate) {
	e.f64(p.X)
	e.f64(p.Y)
	e.f64(p.Z)
	e.f64(p.T)
}

// CanonicalBytes returns the canonical encoding of every field of tx except
// tx_hash and the signature — the input to both the signature and the hash.
func (tx *Transaction) CanonicalBytes() []byte {
	e := newEncoder()
	e.u16(tx.Version)
	e.address(tx.From)
	e.address(tx.To)
	e.raw(tx.Amount.Bytes32())
	e.raw(tx.Fee.Bytes32())
	e.u64(tx.Nonce)
	e.u64(tx.TimestampMS)
	e.bytesField(tx.SenderPublicKey)

	e.stringField(tx.Purpose)
	e.u8(boolByte(tx.HasSemantic))
	if tx.HasSemantic {
		for _, f := range tx.SemanticVector {
			e.u32(math.Float32bits(f))
		}
	}
	e.u32(uint32(len(tx.Entities)))
	for _, ent := range tx.Entities {
		e.stringField(ent)
	}
	e.u8(uint8(tx.Intent))
	e.piCoordinate(tx.PiID)
	return e.bytes()
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// TxHash returns hash(canonical(tx)), excluding the signature field (the
// signature covers this same canonical payload, so it is already excluded
// above) — this is §3's tx_hash.
func (tx *Transaction) TxHash() Hash {
	return HashBytes(tx.CanonicalBytes())
}

// SigningMessage is the payload the sender's signature is computed over.
func (tx *Transaction) SigningMessage() []byte { return tx.CanonicalBytes() }

// canonicalBytes returns the canonical encoding of the spiral metadata.
func (s *SpiralMetadata) canonicalBytes(e *encoder) {
	e.u8(uint8(s.SpiralType))
	e.f64(s.Complexity)
	e.f64(s.SelfSimilarity)
	e.f64(s.InformationDensity)
	e.f64(s.SemanticCoherence)
	e.piCoordinate(s.PiCoordinate)
	e.hash(s.GeometryDigest)
}

// HeaderCanonicalBytes returns the canonical encoding of every header field
// except the signature — the payload the validator's signature covers.
func (h *BlockHeader) HeaderCanonicalBytes() []byte {
	e := newEncoder()
	e.u16(h.Version)
	e.u64(h.Height)
	e.hash(h.PreviousHash)
	e.hash(h.MerkleSpiralRoot)
	e.hash(h.StateRoot)
	e.u64(h.TimestampMS)
	e.u64(h.SlotNumber)
	e.address(h.ValidatorAddress)
	e.bytesField(h.ValidatorPubKey)
	h.Spiral.canonicalBytes(e)
	e.u64(h.DifficultyTarget)
	e.u32(h.TxCount)
	return e.bytes()
}

// HeaderHash returns hash(canonical(header-without-signature) || signature)
// — the value identifying a block and named as previous_hash by its child.
func (h *BlockHeader) HeaderHash() Hash {
	e := newEncoder()
	e.raw(h.HeaderCanonicalBytes())
	e.bytesField(h.Signature)
	return HashBytes(e.bytes())
}
