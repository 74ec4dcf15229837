package review

import (
	"testing"
	"time"

	"github.com/davidahmann/agegate/pkg/types"
)

func TestDetermineNextActionTerminalStates(t *testing.T) {
	cases := []struct {
		status ClaimStatus
		action NextAction
	}{
		{ClaimApproved, ActionReturnResolved},
		{ClaimRejected, ActionReturnResolved},
		{ClaimHeld, ActionReturnInProgress},
		{ClaimPending, ActionResolve},
	}

	for _, tc := range cases {
		got := DetermineNextAction(tc.status, false)
		if got != tc.action {
			t.Fatalf("status %s expected %s got %s", tc.status, tc.action, got)
		}
	}
}

func TestDetermineNextActionControlsRemoved(t *testing.T) {
	if got := DetermineNextAction(ClaimPending, true); got != ActionReturnResolved {
		t.Fatalf("expected return_resolved, got %s", got)
	}
}

func TestClaimStoreLifecycle(t *testing.T) {
	store := NewClaimStore()

	rec, ok := store.Claim("m1", "42", types.DecisionReject, "mod", false)
	if !ok || rec.Status != ClaimHeld {
		t.Fatalf("expected claim, got %+v ok=%v", rec, ok)
	}

	if held, ok := store.Claim("m1", "42", types.DecisionApprove, "mod2", false); ok || held.ModeratorID != "mod" {
		t.Fatalf("expected second claim to fail with first holder, got %+v ok=%v", held, ok)
	}

	done, ok := store.Complete("m1")
	if !ok || done.Status != ClaimRejected {
		t.Fatalf("expected rejected, got %+v ok=%v", done, ok)
	}

	store.Release("m1")
	if got, ok := store.Get("m1"); !ok || got.Status != ClaimRejected {
		t.Fatalf("release must not reopen a resolved claim: %+v ok=%v", got, ok)
	}

	if _, ok := store.Complete("m1"); ok {
		t.Fatalf("expected complete on resolved claim to fail")
	}
}

func TestClaimStoreEvictsResolvedRecords(t *testing.T) {
	store := NewClaimStoreWithRetention(time.Hour)
	now := time.Date(2025, 12, 20, 16, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if _, ok := store.Claim("m1", "42", types.DecisionApprove, "mod", false); !ok {
		t.Fatalf("expected claim on m1")
	}
	if _, ok := store.Complete("m1"); !ok {
		t.Fatalf("expected complete on m1")
	}
	if _, ok := store.Claim("m2", "43", types.DecisionReject, "mod", false); !ok {
		t.Fatalf("expected claim on m2")
	}

	now = now.Add(2 * time.Hour)
	if _, ok := store.Claim("m3", "44", types.DecisionApprove, "mod", false); !ok {
		t.Fatalf("expected claim on m3")
	}

	if _, ok := store.Get("m1"); ok {
		t.Fatalf("expected resolved record past retention to be evicted")
	}
	if got, ok := store.Get("m2"); !ok || got.Status != ClaimHeld {
		t.Fatalf("held claim must survive the sweep: %+v ok=%v", got, ok)
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", store.Len())
	}
}
