package core

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Node orchestrates the process-wide singletons that back a single
// validator: the mempool, world state, validator registry, fork resolver,
// and checkpoint store. A Node is built from genesis parameters only
// (NewNode/InitNode); there is no restore from persisted storage and no
// shutdown or flush step. No other package-level mutable state is
// permitted in core.
type Node struct {
	Mempool     *Mempool
	State       *WorldState
	Registry    *ValidatorRegistry
	Checkpoints *CheckpointStore
	ForkResolve *ForkResolver

	Network            string
	GenesisTimestampMS uint64
	SlotDurationMS     uint64

	recentSpiralTypesMu sync.Mutex
	recentSpiralTypes   []SpiralType

	Tip BlockHeader

	log *logrus.Entry
}

var (
	nodeOnce   sync.Once
	globalNode *Node
)

// NewNode builds an independent node from genesis parameters. Most callers
// want the process-wide singleton via InitNode/CurrentNode instead; NewNode
// exists for tests and for tooling that runs more than one node in a single
// process (e.g. a local multi-validator devnet).
func NewNode(params GenesisParams, network string, slotDurationMS uint64) *Node {
	genesisBlock, state := BuildGenesis(params)
	checkpoints := NewCheckpointStore()
	checkpoints.MaybeCheckpoint(0, state)

	return &Node{
		Mempool:            NewMempool(),
		State:              state,
		Registry:           NewValidatorRegistry(),
		Checkpoints:        checkpoints,
		ForkResolve:        NewForkResolver(checkpoints),
		Network:            network,
		GenesisTimestampMS: params.TimestampMS,
		SlotDurationMS:     slotDurationMS,
		Tip:                genesisBlock.Header,
		log:                logrus.WithField("component", "core.node"),
	}
}

// InitNode initializes the global node singleton from genesis parameters.
// Calling it more than once has no effect after the first call, matching
// the once-per-process singleton lifecycle the rest of the core relies on.
func InitNode(params GenesisParams, network string, slotDurationMS uint64) *Node {
	nodeOnce.Do(func() {
		globalNode = NewNode(params, network, slotDurationMS)
	})
	return globalNode
}

// CurrentNode returns the global node singleton, or nil if InitNode has not
// run yet.
func CurrentNode() *Node { return globalNode }

// RecentSpiralTypes returns a copy of the last up to 16 spiral types
// produced, oldest first — the window the block reward's novelty bonus
// consults.
func (n *Node) RecentSpiralTypes() []SpiralType {
	n.recentSpiralTypesMu.Lock()
	defer n.recentSpiralTypesMu.Unlock()
	out := make([]SpiralType, len(n.recentSpiralTypes))
	copy(out, n.recentSpiralTypes)
	return out
}

// recordSpiralType appends a newly accepted block's spiral type to the
// rolling 16-block window.
func (n *Node) recordSpiralType(t SpiralType) {
	n.recentSpiralTypesMu.Lock()
	defer n.recentSpiralTypesMu.Unlock()
	n.recentSpiralTypes = append(n.recentSpiralTypes, t)
	if len(n.recentSpiralTypes) > 16 {
		n.recentSpiralTypes = n.recentSpiralTypes[len(n.recentSpiralTypes)-16:]
	}
}

// CurrentSlot returns the slot number for timestampMS under this node's
// genesis and slot-duration parameters.
func (n *Node) CurrentSlot(timestampMS uint64) uint64 {
	return SlotNumber(timestampMS, n.GenesisTimestampMS, n.SlotDurationMS)
}

// AcceptBlock runs the full validation pipeline against the current tip and,
// on success, advances the tip, checkpoints if due, updates the proposer's
// reputation, records the block's spiral type, and evicts the block's
// transactions from the mempool.
func (n *Node) AcceptBlock(block Block) error {
	ctx := ValidationContext{
		ParentHeader:       n.Tip,
		ParentSpiral:       n.Tip.Spiral,
		State:              n.State,
		Registry:           n.Registry,
		GenesisTimestampMS: n.GenesisTimestampMS,
		SlotDurationMS:     n.SlotDurationMS,
		RecentSpiralTypes:  n.RecentSpiralTypes(),
	}

	_, _, err := ValidateAndAcceptBlock(block, ctx)
	if err != nil {
		n.log.WithError(err).WithField("height", block.Header.Height).Warn("block rejected")
		return err
	}

	n.Tip = block.Header
	n.Checkpoints.MaybeCheckpoint(block.Header.Height, n.State)
	n.Registry.UpdateReputationOnBlock(block.Header.ValidatorAddress, block.Header.Height, block.Header.Spiral, block.Header.TimestampMS, n.GenesisTimestampMS, n.SlotDurationMS, block.Header.SlotNumber)
	n.recordSpiralType(block.Header.Spiral.SpiralType)
	n.Mempool.RemoveIncluded(block, n.State)

	n.log.WithField("height", block.Header.Height).Info("block accepted")
	return nil
}
