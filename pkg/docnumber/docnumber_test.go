package docnumber

import (
	"regexp"
	"testing"
	"time"
)

func TestNewFormat(t *testing.T) {
	now := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)
	got := New(PrefixPurchaseOrder, now)
	if !regexp.MustCompile(`^PO-20260314-[0-9A-F]{6}$`).MatchString(got) {
		t.Fatalf("unexpected number %q", got)
	}
	if New(PrefixPurchaseOrder, now) == got {
		t.Fatalf("expected distinct suffixes")
	}
}
