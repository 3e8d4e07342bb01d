package core

import (
	"sort"
	"sync"
)

// MempoolCapacity is the maximum number of distinct transactions held before
// the lowest-fee entry is evicted to make room for a new one.
const MempoolCapacity = 10_000

// AccountView is the minimal account state the mempool consults to validate
// an incoming transaction; the caller supplies it from the world state.
type AccountView interface {
	Account(addr Address) (Account, bool)
}

// Mempool is a tx_hash -> Transaction mapping with a per-sender view,
// fee-ordered draining, and replace-by-fee semantics. Locking is coarse
// (one RWMutex over the whole pool); the per-sender map keeps ordering
// within a sender cheap without a secondary index.
type Mempool struct {
	mu       sync.RWMutex
	byHash   map[Hash]Transaction
	bySender map[Address]map[uint64]Hash // sender -> nonce -> tx_hash
}

// NewMempool constructs an empty mempool with the default capacity.
func NewMempool() *Mempool {
	return &Mempool{
		byHash:   make(map[Hash]Transaction),
		bySender: make(map[Address]map[uint64]Hash),
	}
}

// Insert runs independent validation and, on success, stores tx. Duplicate
// tx_hash is idempotent. A transaction sharing (sender, nonce) with an
// existing entry replaces it only if its fee is strictly greater.
func (m *Mempool) Insert(tx Transaction, state AccountView) error {
	if len(tx.CanonicalBytes()) > MaxTxBytes {
		return wrap(ErrStructural, "transaction exceeds MaxTxBytes")
	}
	if tx.Fee.Cmp(MinFee) < 0 {
		return wrap(ErrState, "fee below MIN_FEE")
	}
	acct, ok := state.Account(tx.From)
	if !ok {
		return wrap(ErrState, "unknown sender account")
	}
	total, err := tx.Amount.Add(tx.Fee)
	if err != nil {
		return err
	}
	if acct.Balance.Cmp(total) < 0 {
		return wrap(ErrState, "insufficient balance for amount+fee")
	}
	if !Verify(tx.SenderPublicKey, tx.SigningMessage(), tx.Signature) {
		return wrap(ErrCryptographic, "transaction signature does not verify")
	}

	hash := tx.TxHash()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byHash[hash]; exists {
		return nil // idempotent
	}

	bucket, ok := m.bySender[tx.From]
	if !ok {
		bucket = make(map[uint64]Hash)
		m.bySender[tx.From] = bucket
	}
	if existingHash, exists := bucket[tx.Nonce]; exists {
		existing := m.byHash[existingHash]
		if tx.Fee.Cmp(existing.Fee) <= 0 {
			return wrap(ErrState, "replace-by-fee requires a strictly greater fee")
		}
		delete(m.byHash, existingHash)
	}

	if len(m.byHash) >= MempoolCapacity {
		m.evictLowestFeeLocked()
	}

	m.byHash[hash] = tx
	bucket[tx.Nonce] = hash
	return nil
}

// evictLowestFeeLocked removes the single lowest-fee entry. Callers must
// hold m.mu.
func (m *Mempool) evictLowestFeeLocked() {
	var lowestHash Hash
	var lowestFee Amount
	first := true
	for h, tx := range m.byHash {
		if first || tx.Fee.Cmp(lowestFee) < 0 {
			lowestHash, lowestFee, first = h, tx.Fee, false
		}
	}
	if first {
		return
	}
	victim := m.byHash[lowestHash]
	delete(m.byHash, lowestHash)
	if bucket, ok := m.bySender[victim.From]; ok {
		delete(bucket, victim.Nonce)
		if len(bucket) == 0 {
			delete(m.bySender, victim.From)
		}
	}
}

// Drain produces an ordered list of transactions to include in the next
// block: fee descending, ties broken by tx_hash ascending, constrained to
// maxCount/maxBytes, each sender's transactions emitted in nonce order.
// The mempool is not mutated.
func (m *Mempool) Drain(maxCount int, maxBytes int) []Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type candidate struct {
		tx   Transaction
		hash Hash
	}

	perSenderNext := make(map[Address]uint64, len(m.bySender))
	senderNonces := make(map[Address][]uint64, len(m.bySender))
	for sender, bucket := range m.bySender {
		nonces := make([]uint64, 0, len(bucket))
		for n := range bucket {
			nonces = append(nonces, n)
		}
		sort.Slice(nonces, func(i, j int) bool { return nonces[i] < nonces[j] })
		senderNonces[sender] = nonces
		if len(nonces) > 0 {
			perSenderNext[sender] = nonces[0]
		}
	}

	var ready []candidate
	for sender, nonces := range senderNonces {
		if len(nonces) == 0 {
			continue
		}
		n := perSenderNext[sender]
		hash := m.bySender[sender][n]
		ready = append(ready, candidate{tx: m.byHash[hash], hash: hash})
	}

	var out []Transaction
	totalBytes := 0
	for len(out) < maxCount && len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			if cmp := ready[i].tx.Fee.Cmp(ready[j].tx.Fee); cmp != 0 {
				return cmp > 0
			}
			return lessHash(ready[i].hash, ready[j].hash)
		})
		best := ready[0]
		size := len(best.tx.CanonicalBytes())
		if totalBytes+size > maxBytes {
			ready = ready[1:]
			continue
		}
		out = append(out, best.tx)
		totalBytes += size
		ready = ready[1:]

		sender := best.tx.From
		nonces := senderNonces[sender]
		idx := indexOf(nonces, best.tx.Nonce)
		if idx >= 0 && idx+1 < len(nonces) {
			nextNonce := nonces[idx+1]
			hash := m.bySender[sender][nextNonce]
			ready = append(ready, candidate{tx: m.byHash[hash], hash: hash})
		}
	}
	return out
}

func indexOf(s []uint64, v uint64) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func lessHash(a, b Hash) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// RemoveIncluded deletes every transaction hash present in block, then
// invalidates any remaining transaction whose (sender, nonce) no longer
// matches post-apply state.
func (m *Mempool) RemoveIncluded(block Block, state AccountView) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, tx := range block.Transactions {
		hash := tx.TxHash()
		delete(m.byHash, hash)
		if bucket, ok := m.bySender[tx.From]; ok {
			delete(bucket, tx.Nonce)
			if len(bucket) == 0 {
				delete(m.bySender, tx.From)
			}
		}
	}

	for sender, bucket := range m.bySender {
		acct, ok := state.Account(sender)
		if !ok {
			continue
		}
		for nonce, hash := range bucket {
			if nonce < acct.Nonce {
				delete(m.byHash, hash)
				delete(bucket, nonce)
			}
		}
		if len(bucket) == 0 {
			delete(m.bySender, sender)
		}
	}
}

// Len returns the number of distinct transactions currently held.
func (m *Mempool) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byHash)
}
