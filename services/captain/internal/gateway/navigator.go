package gateway

import (
	"context"
	"sync/atomic"
)

// Navigator sends the user back to the login entry point.
type Navigator interface {
	RedirectToLogin(ctx context.Context)
}

type NavigatorFunc func(ctx context.Context)

func (f NavigatorFunc) RedirectToLogin(ctx context.Context) {
	f(ctx)
}

// LoginGate forwards the first redirect of a login epoch and swallows the
// rest, so concurrent 401s produce one navigation. Rearm starts a new epoch
// after the user logs in again.
type LoginGate struct {
	next      Navigator
	fired     atomic.Bool
	redirects atomic.Int64
}

func NewLoginGate(next Navigator) *LoginGate {
	return &LoginGate{next: next}
}

func (g *LoginGate) RedirectToLogin(ctx context.Context) {
	if !g.fired.CompareAndSwap(false, true) {
		return
	}
	g.redirects.Add(1)
	if g.next != nil {
		g.next.RedirectToLogin(ctx)
	}
}

// LoginRequired reports whether a redirect fired in the current epoch.
func (g *LoginGate) LoginRequired() bool {
	return g.fired.Load()
}

func (g *LoginGate) Rearm() {
	g.fired.Store(false)
}

// Redirects counts forwarded redirects across all epochs.
func (g *LoginGate) Redirects() int64 {
	return g.redirects.Load()
}
