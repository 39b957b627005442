package auth

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	token string
	err   error
	calls int
}

func (p *stubProvider) CachedToken(context.Context) (string, error) {
	p.calls++
	return p.token, p.err
}

type stubBinder struct {
	bound string
	binds int
}

func (b *stubBinder) BoundToken() string { return b.bound }
func (b *stubBinder) Bind(token string)  { b.bound = token; b.binds++ }

func TestGuardInvoke(t *testing.T) {
	provider := &stubProvider{token: "a"}
	binder := &stubBinder{bound: "a"}
	guard := NewGuard(provider, binder, nil)

	var sawToken string
	call := func(context.Context) error {
		sawToken = binder.BoundToken()
		return nil
	}

	if err := guard.Invoke(context.Background(), call); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if binder.binds != 0 {
		t.Errorf("binds = %d, want 0 when token unchanged", binder.binds)
	}

	provider.token = "b"
	if err := guard.Invoke(context.Background(), call); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if binder.binds != 1 {
		t.Errorf("binds = %d, want 1 after refresh", binder.binds)
	}
	if sawToken != "b" {
		t.Errorf("call saw token %q, want b", sawToken)
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want one per Invoke", provider.calls)
	}
}

func TestGuardInvokeProviderError(t *testing.T) {
	provider := &stubProvider{err: errors.New("refresh failed")}
	guard := NewGuard(provider, &stubBinder{}, nil)

	called := false
	err := guard.Invoke(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatal("Invoke() error = nil, want provider error")
	}
	if called {
		t.Error("wrapped call ran despite token failure")
	}
}

func TestGuardInvokePassesCallError(t *testing.T) {
	want := errors.New("api down")
	guard := NewGuard(&stubProvider{token: "a"}, &stubBinder{bound: "a"}, nil)

	if err := guard.Invoke(context.Background(), func(context.Context) error { return want }); !errors.Is(err, want) {
		t.Errorf("Invoke() error = %v, want %v", err, want)
	}
}
