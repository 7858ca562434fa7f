package enums

import "testing"

func TestBatchStageChain(t *testing.T) {
	if _, ok := BatchStageRaw.Previous(); ok {
		t.Fatal("raw batches must not have a parent stage")
	}
	cases := map[BatchStage]BatchStage{
		BatchStageWetBlue:   BatchStageRaw,
		BatchStageRetanning: BatchStageWetBlue,
		BatchStageFinished:  BatchStageRetanning,
	}
	for stage, want := range cases {
		got, ok := stage.Previous()
		if !ok || got != want {
			t.Fatalf("stage %s expected previous %s, got %s (ok=%v)", stage, want, got, ok)
		}
	}
	if next, ok := BatchStageRetanning.Next(); !ok || next != BatchStageFinished {
		t.Fatalf("expected retanning to advance to finished, got %s", next)
	}
	if _, ok := BatchStageFinished.Next(); ok {
		t.Fatal("finished is the last stage")
	}
	if _, ok := BatchStage("bogus").Previous(); ok {
		t.Fatal("unknown stage should report no previous stage")
	}
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("inventory_manager")
	if err != nil || role != RoleInventoryManager {
		t.Fatalf("expected inventory_manager, got %q (%v)", role, err)
	}
	if _, err := ParseRole("superuser"); err == nil {
		t.Fatal("expected error for unknown role")
	}
	if len(AllRoles()) != 9 {
		t.Fatalf("expected 9 roles, got %d", len(AllRoles()))
	}
}

func TestQuotationStatusEditable(t *testing.T) {
	if !QuotationStatusRejected.IsEditable() || !QuotationStatusDraft.IsEditable() {
		t.Fatal("draft and rejected quotations are editable")
	}
	if QuotationStatusSubmitted.IsEditable() {
		t.Fatal("submitted quotations are locked")
	}
}
