package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/appetiteclub/captain/pkg/lib/core"
)

func testConfig(overrides map[string]interface{}) *core.Config {
	values := Defaults()
	values["web.port"] = "127.0.0.1:0"
	values["api.base_url"] = "http://127.0.0.1:1"
	for k, v := range overrides {
		values[k] = v
	}
	return core.NewConfig(values)
}

func TestListenAddr(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ":8090"},
		{in: "9000", want: ":9000"},
		{in: ":9000", want: ":9000"},
		{in: "127.0.0.1:9000", want: "127.0.0.1:9000"},
	}
	for _, tt := range tests {
		if got := listenAddr(tt.in); got != tt.want {
			t.Errorf("listenAddr(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewRequiresConfig(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Error("New(nil) should fail")
	}
}

func TestInitializeRejectsUnknownStore(t *testing.T) {
	a, _ := New(testConfig(map[string]interface{}{"session.store": "redis"}), nil)
	if err := a.Initialize(context.Background()); err == nil {
		t.Error("Initialize() with unknown store should fail")
	}
}

func TestInitializeRequiresBaseURL(t *testing.T) {
	values := Defaults()
	a, _ := New(core.NewConfig(values), nil)
	if err := a.Initialize(context.Background()); err == nil {
		t.Error("Initialize() without api.base_url should fail")
	}
}

func TestRunWithoutInitialize(t *testing.T) {
	a, _ := New(testConfig(nil), nil)
	if err := a.Run(context.Background()); err == nil {
		t.Error("Run() before Initialize should fail")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	a, _ := New(testConfig(nil), nil)
	if err := a.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	stopped := false
	a.lifecycles = append(a.lifecycles, LifecycleHooks{
		OnStop: func(context.Context) error {
			stopped = true
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop")
	}
	if !stopped {
		t.Error("lifecycles should be stopped")
	}
}

func TestRunStopsStartedOnFailure(t *testing.T) {
	a, _ := New(testConfig(nil), nil)
	if err := a.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	var stopped []string
	a.lifecycles = []Lifecycle{
		LifecycleHooks{OnStop: func(context.Context) error { stopped = append(stopped, "first"); return nil }},
		LifecycleHooks{OnStart: func(context.Context) error { return errors.New("boom") }},
	}

	if err := a.Run(context.Background()); err == nil {
		t.Fatal("Run() should fail when a component fails to start")
	}
	if len(stopped) != 1 || stopped[0] != "first" {
		t.Errorf("stopped = %v, want [first]", stopped)
	}
}
