package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/neurobridge-assessment/internal/platform/dbctx"
)

func TestInjectedTxRunner_CommitsOnSuccess(t *testing.T) {
	r := &InjectedTxRunner{}
	called := false
	err := r.InTx(context.Background(), func(_ dbctx.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !called {
		t.Fatalf("expected callback to run")
	}
	if r.BeginCalls != 1 || r.CommitCalls != 1 || r.RollbackCalls != 0 {
		t.Fatalf("unexpected counters begin=%d commit=%d rollback=%d", r.BeginCalls, r.CommitCalls, r.RollbackCalls)
	}
}

func TestInjectedTxRunner_FailuresRollBack(t *testing.T) {
	bodyErr := errors.New("boom")
	r := &InjectedTxRunner{}
	if err := r.InTx(context.Background(), func(_ dbctx.Context) error { return bodyErr }); !errors.Is(err, bodyErr) {
		t.Fatalf("expected body err, got %v", err)
	}

	commitErr := errors.New("commit failed")
	r.FailCommit = commitErr
	if err := r.InTx(context.Background(), func(_ dbctx.Context) error { return nil }); !errors.Is(err, commitErr) {
		t.Fatalf("expected commit err, got %v", err)
	}
	if r.BeginCalls != 2 || r.CommitCalls != 0 || r.RollbackCalls != 2 {
		t.Fatalf("unexpected counters begin=%d commit=%d rollback=%d", r.BeginCalls, r.CommitCalls, r.RollbackCalls)
	}
}

func TestInjectedTxRunner_FailBeginSkipsBody(t *testing.T) {
	beginErr := errors.New("no conn")
	r := &InjectedTxRunner{FailBegin: beginErr}
	called := false
	err := r.InTx(context.Background(), func(_ dbctx.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, beginErr) || called {
		t.Fatalf("expected begin failure without body, err=%v called=%v", err, called)
	}
}
