package model

import "testing"

func TestFindCheckFound(t *testing.T) {
	r := &Report{Checks: []Check{{ID: CheckHTTP, Status: StatusPass}}}
	c, ok := r.FindCheck(CheckHTTP)
	if !ok || c.Status != StatusPass {
		t.Fatalf("expected to find http check, got %+v ok=%v", c, ok)
	}
}

func TestFindCheckMissing(t *testing.T) {
	r := &Report{}
	if _, ok := r.FindCheck(CheckHTTP); ok {
		t.Fatal("expected not found on empty report")
	}
}

func TestCloneDeepCopiesSlicesAndPointers(t *testing.T) {
	score := 80
	orig := &Report{
		Checks: []Check{{ID: CheckHTTP, Status: StatusPass}},
		Diag:   []DiagEntry{{Probe: "http", Ms: 12.5}},
		Score:  &score,
	}
	cp := orig.Clone()

	cp.Checks[0].Status = StatusFail
	cp.Diag[0].Ms = 999
	*cp.Score = 1

	if orig.Checks[0].Status != StatusPass {
		t.Fatal("mutating clone's Checks leaked into original")
	}
	if orig.Diag[0].Ms != 12.5 {
		t.Fatal("mutating clone's Diag leaked into original")
	}
	if *orig.Score != 80 {
		t.Fatal("mutating clone's Score leaked into original")
	}
}

func TestLockedCheckUsesLabel(t *testing.T) {
	c := LockedCheck(CheckMixedContent)
	if c.Status != StatusLocked || !c.Locked {
		t.Fatalf("expected locked status, got %+v", c)
	}
	if c.Label != "Mixed content" {
		t.Fatalf("unexpected label %q", c.Label)
	}
}
