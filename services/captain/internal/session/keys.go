package session

import (
	"context"
	"fmt"
	"strings"
)

// Storage keys shared with the login screen. They are read on every request
// and removed together when the backend invalidates the session.
const (
	KeyAccess      = "access"
	KeyRefresh     = "refresh"
	KeyUserID      = "user_id"
	KeyCaptainID   = "captain_id"
	KeyOutletID    = "outlet_id"
	KeyUserSession = "userSession"
	KeyDeviceToken = "device_token"
)

// Keys lists every key cleared on invalidation.
var Keys = []string{
	KeyAccess,
	KeyRefresh,
	KeyUserID,
	KeyCaptainID,
	KeyOutletID,
	KeyUserSession,
	KeyDeviceToken,
}

// Store is the key-value storage holding session credentials.
// Get returns an empty string for absent keys. RemoveAll must succeed when
// some or all keys are already gone.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	RemoveAll(ctx context.Context, keys []string) error
}

// Credentials is what the login collaborator stores after authentication.
type Credentials struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
	UserID       string `json:"user_id"`
	CaptainID    string `json:"captain_id"`
	OutletID     string `json:"outlet_id"`
	UserSession  string `json:"user_session"`
	DeviceToken  string `json:"device_token"`
}

func (c Credentials) pairs() []struct{ key, value string } {
	return []struct{ key, value string }{
		{KeyAccess, c.AccessToken},
		{KeyRefresh, c.RefreshToken},
		{KeyUserID, c.UserID},
		{KeyCaptainID, c.CaptainID},
		{KeyOutletID, c.OutletID},
		{KeyUserSession, c.UserSession},
		{KeyDeviceToken, c.DeviceToken},
	}
}

// Save replaces the stored credentials. Keys left empty in creds are removed
// so nothing from a previous login survives. An access token is required.
func Save(ctx context.Context, store Store, creds Credentials) error {
	if store == nil {
		return fmt.Errorf("session store not configured")
	}
	if strings.TrimSpace(creds.AccessToken) == "" {
		return fmt.Errorf("access token is required")
	}
	if err := store.RemoveAll(ctx, Keys); err != nil {
		return fmt.Errorf("clear previous session: %w", err)
	}
	for _, p := range creds.pairs() {
		if p.value == "" {
			continue
		}
		if err := store.Set(ctx, p.key, p.value); err != nil {
			return fmt.Errorf("store %s: %w", p.key, err)
		}
	}
	return nil
}

// Load reads every session key. Missing keys stay empty.
func Load(ctx context.Context, store Store) (Credentials, error) {
	var creds Credentials
	if store == nil {
		return creds, fmt.Errorf("session store not configured")
	}

	targets := map[string]*string{
		KeyAccess:      &creds.AccessToken,
		KeyRefresh:     &creds.RefreshToken,
		KeyUserID:      &creds.UserID,
		KeyCaptainID:   &creds.CaptainID,
		KeyOutletID:    &creds.OutletID,
		KeyUserSession: &creds.UserSession,
		KeyDeviceToken: &creds.DeviceToken,
	}
	for key, dest := range targets {
		value, err := store.Get(ctx, key)
		if err != nil {
			return creds, fmt.Errorf("read %s: %w", key, err)
		}
		*dest = value
	}
	return creds, nil
}

// Clear removes every session key.
func Clear(ctx context.Context, store Store) error {
	if store == nil {
		return fmt.Errorf("session store not configured")
	}
	return store.RemoveAll(ctx, Keys)
}
