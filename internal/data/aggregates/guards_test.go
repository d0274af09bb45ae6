package aggregates

import "testing"

func TestRequireVersionMatch(t *testing.T) {
	if err := RequireVersionMatch(3, 3); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireVersionMatch(2, 3); err == nil {
		t.Fatalf("expected conflict error")
	}
	if err := RequireVersionMatch(0, -1); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(true, "ok"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireCASSuccess(false, "stale"); err == nil {
		t.Fatalf("expected conflict error")
	}
}
