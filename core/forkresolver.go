package core

import "bytes"

// ChainView is the minimal read surface the fork resolver needs over a
// candidate or local chain of headers, keyed by height.
type ChainView interface {
	HeaderAt(height uint64) (BlockHeader, bool)
	TipHeight() uint64
}

// ForkResolver implements §4.8: common-ancestor search, checkpoint-horizon
// rejection, and height-then-hash chain selection.
type ForkResolver struct {
	checkpoints *CheckpointStore
}

// NewForkResolver builds a resolver backed by the given checkpoint store.
func NewForkResolver(checkpoints *CheckpointStore) *ForkResolver {
	return &ForkResolver{checkpoints: checkpoints}
}

// Resolve decides whether incoming should replace local as the canonical
// tip. lastCheckpointHeight is the height of the most recent recorded
// checkpoint. It returns true if incoming wins.
func (f *ForkResolver) Resolve(local, incoming ChainView, lastCheckpointHeight uint64) (incomingWins bool, err error) {
	ancestor, found := commonAncestor(local, incoming)
	if !found {
		return false, wrap(ErrConsensusRule, "no common ancestor found within search bound")
	}
	if ancestor < lastCheckpointHeight {
		return false, wrap(ErrConsensusRule, "common ancestor precedes last checkpoint; incoming chain rejected")
	}

	hLocal := local.TipHeight()
	hIncoming := incoming.TipHeight()

	if hIncoming > hLocal {
		return true, nil
	}
	if hIncoming < hLocal {
		return false, nil
	}

	localTip, ok1 := local.HeaderAt(hLocal)
	incomingTip, ok2 := incoming.HeaderAt(hIncoming)
	if !ok1 || !ok2 {
		return false, wrap(ErrFatal, "tip header missing during fork resolution")
	}
	localHash := localTip.HeaderHash()
	incomingHash := incomingTip.HeaderHash()
	return bytes.Compare(incomingHash[:], localHash[:]) < 0, nil
}

// commonAncestor walks both chains backward from their tips until headers
// at the same height agree, bounded by the shorter chain's length.
func commonAncestor(local, incoming ChainView) (height uint64, found bool) {
	h := local.TipHeight()
	if incoming.TipHeight() < h {
		h = incoming.TipHeight()
	}
	for {
		localHeader, ok1 := local.HeaderAt(h)
		incomingHeader, ok2 := incoming.HeaderAt(h)
		if ok1 && ok2 && localHeader.HeaderHash() == incomingHeader.HeaderHash() {
			return h, true
		}
		if h == 0 {
			return 0, false
		}
		h--
	}
}

// Rewind restores state to the nearest checkpoint at or before
// targetHeight, for the caller to then re-apply the winning chain's blocks
// from that point forward.
func (f *ForkResolver) Rewind(targetHeight uint64) (*WorldState, uint64, bool) {
	return f.checkpoints.Nearest(targetHeight)
}
