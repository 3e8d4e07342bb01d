package core

import "errors"

// merkleSpiralNode is one node of a Merkle-Spiral tree: a content hash paired
// with the PiCoordinate centroid of everything beneath it.
type merkleSpiralNode struct {
	Hash     Hash
	Centroid PiCoordinate
}

// emptyMerkleSpiralRoot is the canonical root for a block carrying zero
// transactions.
var emptyMerkleSpiralRoot = HashBytes([]byte(""))

// BuildMerkleSpiralTree returns the level-by-level nodes of a Merkle-Spiral
// tree built from the given transactions, following the teacher's
// level-doubling BuildMerkleTree shape but carrying a PiCoordinate centroid
// alongside each node's hash. The last level holds the single root node.
func BuildMerkleSpiralTree(txs []Transaction) ([][]merkleSpiralNode, error) {
	if len(txs) == 0 {
		return nil, errors.New("no transactions")
	}

	level := make([]merkleSpiralNode, len(txs))
	for i, tx := range txs {
		level[i] = merkleSpiralNode{Hash: tx.TxHash(), Centroid: tx.PiID}
	}

	tree := [][]merkleSpiralNode{level}

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
			tree[len(tree)-1] = level // record the duplicated sibling so proofs can find it
		}
		next := make([]merkleSpiralNode, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = combineSpiralNodes(level[i], level[i+1])
		}
		tree = append(tree, next)
		level = next
	}

	return tree, nil
}

// combineSpiralNodes computes hash(left.hash || right.hash || centroid_xyzt)
// per §4.6, where centroid is the component-wise mean of the two children's
// centroids.
func combineSpiralNodes(a, b merkleSpiralNode) merkleSpiralNode {
	centroid := midpoint(a.Centroid, b.Centroid)
	e := newEncoder()
	e.hash(a.Hash)
	e.hash(b.Hash)
	e.piCoordinate(centroid)
	return merkleSpiralNode{
		Hash:     HashBytes(e.bytes()),
		Centroid: centroid,
	}
}

func midpoint(p, q PiCoordinate) PiCoordinate {
	return PiCoordinate{
		X: (p.X + q.X) / 2,
		Y: (p.Y + q.Y) / 2,
		Z: (p.Z + q.Z) / 2,
		T: (p.T + q.T) / 2,
	}
}

// MerkleSpiralRoot computes a block's MerkleSpiralRoot header field: the
// hash of the empty string for a block with no transactions, or the root
// node's hash otherwise.
func MerkleSpiralRoot(txs []Transaction) Hash {
	if len(txs) == 0 {
		return emptyMerkleSpiralRoot
	}
	tree, err := BuildMerkleSpiralTree(txs)
	if err != nil {
		return emptyMerkleSpiralRoot
	}
	return tree[len(tree)-1][0].Hash
}

// MerkleSpiralCentroid computes the PiCoordinate centroid of a block's
// transaction set, as carried by the Merkle-Spiral root node. ValidateSpiral
// does not call it.
func MerkleSpiralCentroid(txs []Transaction) PiCoordinate {
	if len(txs) == 0 {
		return PiCoordinate{}
	}
	tree, err := BuildMerkleSpiralTree(txs)
	if err != nil {
		return PiCoordinate{}
	}
	return tree[len(tree)-1][0].Centroid
}

// MerkleSpiralProofStep is one sibling encountered walking a leaf up to the
// root. Its centroid travels alongside its hash so the verifier can re-fold
// combineSpiralNodes exactly as BuildMerkleSpiralTree did; a hash-only
// sibling would leave the verifier unable to reconstruct any real root.
type MerkleSpiralProofStep struct {
	SiblingHash     Hash
	SiblingCentroid PiCoordinate
}

// MerkleSpiralProof returns a Merkle-Spiral proof for the leaf at index,
// following the teacher's MerkleProof shape: a slice of sibling steps
// ordered from the leaf level upward, and the tree's root hash.
func MerkleSpiralProof(txs []Transaction, index uint32) ([]MerkleSpiralProofStep, Hash, error) {
	if len(txs) == 0 {
		return nil, Hash{}, errors.New("no transactions")
	}
	if int(index) >= len(txs) {
		return nil, Hash{}, errors.New("index out of range")
	}

	tree, err := BuildMerkleSpiralTree(txs)
	if err != nil {
		return nil, Hash{}, err
	}

	proof := make([]MerkleSpiralProofStep, 0, len(tree)-1)
	idx := int(index)
	for i := 0; i < len(tree)-1; i++ {
		level := tree[i]
		var sibling merkleSpiralNode
		if idx%2 == 0 {
			sibling = level[idx+1]
		} else {
			sibling = level[idx-1]
		}
		proof = append(proof, MerkleSpiralProofStep{SiblingHash: sibling.Hash, SiblingCentroid: sibling.Centroid})
		idx /= 2
	}

	root := tree[len(tree)-1][0].Hash
	return proof, root, nil
}

// VerifyMerkleSpiralPath checks whether proof reconstructs root for the
// given transaction hash, centroid and index, re-folding each sibling's
// centroid the same way combineSpiralNodes did while building the tree.
func VerifyMerkleSpiralPath(root Hash, leafHash Hash, leafCentroid PiCoordinate, proof []MerkleSpiralProofStep, index uint32) bool {
	node := merkleSpiralNode{Hash: leafHash, Centroid: leafCentroid}
	for _, step := range proof {
		sibling := merkleSpiralNode{Hash: step.SiblingHash, Centroid: step.SiblingCentroid}
		if index%2 == 0 {
			node = combineSpiralNodes(node, sibling)
		} else {
			node = combineSpiralNodes(sibling, node)
		}
		index /= 2
	}
	return node.Hash == root
}
