package core

import "testing"

func TestNodeRecentSpiralTypesWindowCapped(t *testing.T) {
	n := &Node{}
	for i := 0; i < 20; i++ {
		n.recordSpiralType(SpiralType(i % spiralTypeCount))
	}
	got := n.RecentSpiralTypes()
	if len(got) != 16 {
		t.Fatalf("expected the rolling window capped at 16, got %d", len(got))
	}
}

func TestNodeCurrentSlot(t *testing.T) {
	n := &Node{GenesisTimestampMS: 1000, SlotDurationMS: SlotDurationTestnetMS}
	if got := n.CurrentSlot(1000 + SlotDurationTestnetMS*3); got != 3 {
		t.Fatalf("CurrentSlot = %d, want 3", got)
	}
}
