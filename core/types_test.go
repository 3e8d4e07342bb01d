package core

import "testing"

func TestAmountAddSub(t *testing.T) {
	a := NewAmountQBT(100)
	b := NewAmountQBT(40)

	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sum.Cmp(NewAmountQBT(140)) != 0 {
		t.Fatalf("Add = %v, want 140 QBT", sum)
	}

	diff, err := a.Sub(b)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if diff.Cmp(NewAmountQBT(60)) != 0 {
		t.Fatalf("Sub = %v, want 60 QBT", diff)
	}

	if _, err := b.Sub(a); err == nil {
		t.Fatal("Sub: expected underflow error when subtrahend exceeds minuend")
	}
}

func TestAmountBytes32RoundTrip(t *testing.T) {
	a := NewAmountQBT(12345)
	back := AmountFromBytes32(a.Bytes32())
	if back.Cmp(a) != 0 {
		t.Fatalf("round-trip mismatch: got %v, want %v", back, a)
	}
}

func TestPiCoordinateInRange(t *testing.T) {
	cases := []PiCoordinate{
		{X: 0, Y: 0, Z: 0, T: 0},
		{X: 1, Y: -1, Z: 1, T: -1},
		{X: 1.0000001, Y: 0, Z: 0, T: 0},
	}
	want := []bool{true, true, false}
	for i, c := range cases {
		if got := c.InRange(); got != want[i] {
			t.Errorf("case %d: InRange() = %v, want %v", i, got, want[i])
		}
	}
}

func TestAddressHexRoundTrip(t *testing.T) {
	var a Address
	a[0], a[31] = 0xab, 0xcd
	back, err := AddressFromHexString(a.String())
	if err != nil {
		t.Fatalf("AddressFromHexString: %v", err)
	}
	if back != a {
		t.Fatalf("round-trip mismatch: got %v, want %v", back, a)
	}
	if _, err := AddressFromHexString("not-hex"); err == nil {
		t.Fatal("expected malformed address to be rejected")
	}
}

func TestValidatorIsActive(t *testing.T) {
	v := &Validator{Stake: MinValidatorStake, Reputation: 0.5}
	if !v.IsActive() {
		t.Fatal("expected validator with sufficient stake and reputation to be active")
	}
	v.SlashingEvents = append(v.SlashingEvents, SlashingEvent{Condition: SlashDowntime})
	if v.IsActive() {
		t.Fatal("expected any slashing event to disqualify the validator")
	}
}
