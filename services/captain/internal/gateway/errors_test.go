package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestErrorIs(t *testing.T) {
	wrapped := fmt.Errorf("load menu: %w", ServerRejected("Outlet closed"))

	if !errors.Is(wrapped, ErrServerRejected) {
		t.Error("errors.Is(wrapped, ErrServerRejected) = false")
	}
	if errors.Is(wrapped, ErrFetchFailed) {
		t.Error("errors.Is(wrapped, ErrFetchFailed) = true")
	}
	if !errors.Is(wrapped, ServerRejected("Outlet closed")) {
		t.Error("same kind and message should match")
	}
	if errors.Is(wrapped, ServerRejected("Other")) {
		t.Error("different message should not match")
	}
}

func TestMessageOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "serverVerbatim", err: ServerRejected("Table already reserved"), want: "Table already reserved"},
		{name: "serverBlank", err: ServerRejected(""), want: GenericFailureMessage},
		{name: "fetchFailed", err: FetchFailed("decode", errors.New("boom")), want: "Could not reach the server. Please try again."},
		{name: "validation", err: Rejected("Maximum quantity reached"), want: "Maximum quantity reached"},
		{name: "plainError", err: errors.New("x"), want: GenericFailureMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MessageOf(tt.err); got != tt.want {
				t.Errorf("MessageOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResultOf(t *testing.T) {
	ok := ResultOf(3, nil)
	if !ok.OK || ok.Data != 3 || ok.Kind != "" {
		t.Errorf("ResultOf(success) = %+v", ok)
	}

	failed := ResultOf(0, Unauthorized("Your session has expired. Please log in again."))
	if failed.OK || failed.Kind != KindUnauthorized {
		t.Errorf("ResultOf(unauthorized) = %+v", failed)
	}

	unknown := ResultOf("", errors.New("boom"))
	if unknown.Kind != KindFetchFailed {
		t.Errorf("ResultOf(plain error).Kind = %q, want fetch_failed", unknown.Kind)
	}
}

func TestNumberDecoding(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{raw: `1`, want: 1},
		{raw: `"1"`, want: 1},
		{raw: `" 120.50 "`, want: 120.5},
		{raw: `null`, want: 0},
		{raw: `""`, want: 0},
		{raw: `"abc"`, want: 0},
		{raw: `true`, want: 1},
		{raw: `{}`, want: 0},
	}

	for _, tt := range tests {
		var n Number
		if err := json.Unmarshal([]byte(tt.raw), &n); err != nil {
			t.Errorf("Unmarshal(%s) error = %v", tt.raw, err)
			continue
		}
		if n.Float() != tt.want {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.raw, n.Float(), tt.want)
		}
	}
}

func TestTextDecoding(t *testing.T) {
	var payload struct {
		A Text `json:"a"`
		B Text `json:"b"`
		C Text `json:"c"`
		D Text `json:"d"`
	}
	raw := `{"a":12,"b":" x-1 ","c":{"k":1},"d":null}`
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if payload.A != "12" || payload.B != "x-1" || payload.C != "" || payload.D != "" {
		t.Errorf("decoded = %+v", payload)
	}
}

func TestLoginGate(t *testing.T) {
	nav := &countingNavigator{}
	gate := NewLoginGate(nav)
	ctx := context.Background()

	gate.RedirectToLogin(ctx)
	gate.RedirectToLogin(ctx)
	if nav.calls.Load() != 1 {
		t.Fatalf("redirects = %d, want 1", nav.calls.Load())
	}

	gate.Rearm()
	if gate.LoginRequired() {
		t.Error("LoginRequired() after Rearm = true")
	}

	gate.RedirectToLogin(ctx)
	if nav.calls.Load() != 2 || gate.Redirects() != 2 {
		t.Errorf("redirects = %d/%d, want 2", nav.calls.Load(), gate.Redirects())
	}
}

func TestNavigatorFunc(t *testing.T) {
	called := false
	var nav Navigator = NavigatorFunc(func(context.Context) { called = true })
	nav.RedirectToLogin(context.Background())
	if !called {
		t.Error("NavigatorFunc was not invoked")
	}
}
