package dedup

import (
	"fmt"
	"testing"
)

func TestLedgerMarkSeen(t *testing.T) {
	l := NewLedger(10, nil)

	if !l.IsNew("https://example.com/a") {
		t.Error("empty ledger should treat every link as new")
	}

	l.MarkSeen("https://example.com/a")

	if l.IsNew("https://example.com/a") {
		t.Error("marked link still reported as new")
	}

	if l.IsNew("https://example.com/b") == false {
		t.Error("unrelated link reported as seen")
	}
}

func TestLedgerFIFOEviction(t *testing.T) {
	l := NewLedger(3, nil)

	for i := 0; i < 5; i++ {
		l.MarkSeen(fmt.Sprintf("link-%d", i))
	}

	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}

	// Oldest two evicted, newest three kept.
	for i := 0; i < 2; i++ {
		if !l.IsNew(fmt.Sprintf("link-%d", i)) {
			t.Errorf("link-%d should have been evicted", i)
		}
	}

	for i := 2; i < 5; i++ {
		if l.IsNew(fmt.Sprintf("link-%d", i)) {
			t.Errorf("link-%d should still be tracked", i)
		}
	}
}

func TestLedgerNeverExceedsCapacity(t *testing.T) {
	l := NewLedger(100, nil)

	for i := 0; i < 1000; i++ {
		l.MarkSeen(fmt.Sprintf("link-%d", i))

		if l.Len() > 100 {
			t.Fatalf("ledger length %d exceeds capacity after %d inserts", l.Len(), i+1)
		}
	}
}

func TestLedgerDuplicateMarkIsNoop(t *testing.T) {
	l := NewLedger(3, nil)

	l.MarkSeen("a")
	l.MarkSeen("b")
	l.MarkSeen("a")
	l.MarkSeen("a")

	if l.Len() != 2 {
		t.Errorf("Len() = %d, want 2", l.Len())
	}

	got := l.Links()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Links() = %v, want [a b]", got)
	}
}

func TestLedgerSeedBeyondCapacity(t *testing.T) {
	seed := make([]string, 10)
	for i := range seed {
		seed[i] = fmt.Sprintf("seed-%d", i)
	}

	l := NewLedger(4, seed)

	if l.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", l.Len())
	}

	if !l.IsNew("seed-0") || l.IsNew("seed-9") {
		t.Error("seed eviction did not keep the newest entries")
	}
}
