package core

import (
	"crypto/rand"
	"sync/atomic"

	"github.com/cloudflare/circl/kem/kyber/kyber768"
	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"
)

// HashBytes is the core's collision-resistant hash: SHA3-256.
func HashBytes(b []byte) Hash {
	return Hash(sha3.Sum256(b))
}

// MaxSigningUses is the number of signatures a SigningKey will produce before
// refusing further use — §4.1's 2^20 ceiling on the post-quantum scheme.
const MaxSigningUses = 1 << 20

// SigningKey wraps a post-quantum secret key with the persisted, atomically
// incremented use-counter the protocol requires. circl's dilithium keys are
// not themselves stateful, so the ceiling is enforced here rather than by
// the underlying primitive — callers must persist Index alongside the
// wrapped key and must never reuse an Index across process restarts, or the
// key is compromised.
type SigningKey struct {
	sk    *mode3.PrivateKey
	Index uint64 // persisted alongside sk; incremented on every Sign
}

// PublicKey is the verification counterpart to a SigningKey.
type PublicKey struct {
	pk *mode3.PublicKey
}

// GenerateSigningKey produces a fresh post-quantum keypair.
func GenerateSigningKey() (*SigningKey, *PublicKey, error) {
	pk, sk, err := mode3.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, wrap(ErrCryptographic, "generate signing key: "+err.Error())
	}
	return &SigningKey{sk: sk}, &PublicKey{pk: pk}, nil
}

// PublicKeyBytes returns the wire encoding of a public key.
func (p *PublicKey) PublicKeyBytes() []byte {
	b, _ := p.pk.MarshalBinary()
	return b
}

// PublicKeyFromBytes reconstructs a PublicKey from its wire encoding. It
// never panics; malformed input yields a non-nil error.
func PublicKeyFromBytes(b []byte) (*PublicKey, error) {
	pk := new(mode3.PublicKey)
	if err := pk.UnmarshalBinary(b); err != nil {
		return nil, wrap(ErrCryptographic, "malformed public key: "+err.Error())
	}
	return &PublicKey{pk: pk}, nil
}

// PrivateKeyBytes returns the wire encoding of a signing key's secret
// material. Callers are responsible for storing it with the same care as
// the persisted Index counter; the two must never drift out of sync.
func (k *SigningKey) PrivateKeyBytes() []byte {
	b, _ := k.sk.MarshalBinary()
	return b
}

// SigningKeyFromBytes reconstructs a SigningKey from its wire encoding and a
// previously persisted use-counter. Callers that lose track of index risk
// signature reuse; this constructor trusts the caller to supply it correctly.
func SigningKeyFromBytes(b []byte, index uint64) (*SigningKey, error) {
	sk := new(mode3.PrivateKey)
	if err := sk.UnmarshalBinary(b); err != nil {
		return nil, wrap(ErrCryptographic, "malformed private key: "+err.Error())
	}
	return &SigningKey{sk: sk, Index: index}, nil
}

// Sign produces a signature over message. It fails once Index has reached
// MaxSigningUses, modeling the stateful scheme's signature-budget exhaustion.
func (k *SigningKey) Sign(message []byte) ([]byte, error) {
	if atomic.LoadUint64(&k.Index) >= MaxSigningUses {
		return nil, wrap(ErrCryptographic, "signing key index exhausted")
	}
	sig := mode3.Sign(k.sk, message)
	atomic.AddUint64(&k.Index, 1)
	return sig, nil
}

// Verify reports whether sig is a valid signature over message under pk. It
// never panics: malformed keys or signatures simply fail verification.
func Verify(pubKeyBytes, message, sig []byte) bool {
	if len(pubKeyBytes) == 0 || len(sig) == 0 {
		return false
	}
	pk, err := PublicKeyFromBytes(pubKeyBytes)
	if err != nil {
		return false
	}
	return mode3.Verify(pk.pk, message, sig)
}

// KEMEncapsulate generates a shared secret and its ciphertext for pk. It is
// used only by the external transport layer for session establishment; the
// core never calls it for a consensus purpose.
func KEMEncapsulate(pkBytes []byte) (ciphertext, sharedSecret []byte, err error) {
	scheme := kyber768.Scheme()
	pk, err := scheme.UnmarshalBinaryPublicKey(pkBytes)
	if err != nil {
		return nil, nil, wrap(ErrCryptographic, "malformed kem public key: "+err.Error())
	}
	ct, ss, err := scheme.Encapsulate(pk)
	if err != nil {
		return nil, nil, wrap(ErrCryptographic, "kem encapsulate: "+err.Error())
	}
	return ct, ss, nil
}

// KEMDecapsulate recovers the shared secret from a ciphertext.
func KEMDecapsulate(skBytes, ciphertext []byte) (sharedSecret []byte, err error) {
	scheme := kyber768.Scheme()
	sk, err := scheme.UnmarshalBinaryPrivateKey(skBytes)
	if err != nil {
		return nil, wrap(ErrCryptographic, "malformed kem private key: "+err.Error())
	}
	ss, err := scheme.Decapsulate(sk, ciphertext)
	if err != nil {
		return nil, wrap(ErrCryptographic, "kem decapsulate: "+err.Error())
	}
	return ss, nil
}

// KEMGenerateKeyPair produces a fresh KEM keypair for the transport layer.
func KEMGenerateKeyPair() (pkBytes, skBytes []byte, err error) {
	scheme := kyber768.Scheme()
	pk, sk, err := scheme.GenerateKeyPair()
	if err != nil {
		return nil, nil, wrap(ErrCryptographic, "kem keygen: "+err.Error())
	}
	pkBytes, err = pk.MarshalBinary()
	if err != nil {
		return nil, nil, wrap(ErrCryptographic, "kem pk marshal: "+err.Error())
	}
	skBytes, err = sk.MarshalBinary()
	if err != nil {
		return nil, nil, wrap(ErrCryptographic, "kem sk marshal: "+err.Error())
	}
	return pkBytes, skBytes, nil
}

// AddressFromPublicKey derives an Address deterministically from a public
// key: hash(pubkey).
func AddressFromPublicKey(pubKeyBytes []byte) Address {
	return Address(HashBytes(pubKeyBytes))
}
