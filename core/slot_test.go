package core

import "testing"

func TestSlotNumberComputation(t *testing.T) {
	genesis := uint64(1_700_000_000_000)
	cases := []struct {
		ts   uint64
		slot uint64
	}{
		{genesis, 0},
		{genesis + SlotDurationTestnetMS - 1, 0},
		{genesis + SlotDurationTestnetMS, 1},
		{genesis + 5*SlotDurationTestnetMS, 5},
	}
	for _, c := range cases {
		if got := SlotNumber(c.ts, genesis, SlotDurationTestnetMS); got != c.slot {
			t.Errorf("SlotNumber(%d) = %d, want %d", c.ts, got, c.slot)
		}
	}
}

func TestWithinSlotBoundsToleratesClockSkew(t *testing.T) {
	genesis := uint64(0)
	slotNumber := uint64(2)
	slotStart := genesis + slotNumber*SlotDurationTestnetMS

	if !WithinSlotBounds(slotStart-SlotClockSkewMS, slotNumber, genesis, SlotDurationTestnetMS) {
		t.Fatal("expected a timestamp at the early skew boundary to be within bounds")
	}
	if WithinSlotBounds(slotStart-SlotClockSkewMS-1, slotNumber, genesis, SlotDurationTestnetMS) {
		t.Fatal("expected a timestamp just past the early skew boundary to be rejected")
	}
}

func TestNodeStateMachineTransitions(t *testing.T) {
	n := NewNodeStateMachine()
	if n.State() != StateBootstrapping {
		t.Fatal("new state machine must start Bootstrapping")
	}
	n.ReachedTip()
	if n.State() != StateFollower {
		t.Fatal("expected Bootstrapping -> Follower on ReachedTip")
	}
	n.SlotStarted(true)
	if n.State() != StateLeaderOfSlot {
		t.Fatal("expected Follower -> Leader-Of-Slot when self is leader")
	}
	n.SlotEnded()
	if n.State() != StateFollower {
		t.Fatal("expected Leader-Of-Slot -> Follower at slot end")
	}
	n.Slashed()
	if n.State() != StateSlashed {
		t.Fatal("expected Follower -> Slashed on slashable action")
	}
	n.VoluntaryExit()
	if n.State() != StateExited {
		t.Fatal("expected Slashed -> Exited after voluntary exit")
	}
}

func TestClassifyFinality(t *testing.T) {
	cases := []struct {
		confirmations uint64
		checkpointed  bool
		want          FinalityStatus
	}{
		{0, false, FinalityNone},
		{1, false, FinalitySoft},
		{FinalityDepth, false, FinalityHard},
		{0, true, FinalityAbsolute},
	}
	for _, c := range cases {
		if got := ClassifyFinality(c.confirmations, c.checkpointed); got != c.want {
			t.Errorf("ClassifyFinality(%d, %v) = %v, want %v", c.confirmations, c.checkpointed, got, c.want)
		}
	}
}
