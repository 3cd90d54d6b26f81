// Package storage is the durable key-value store behind browser sessions.
// It plays the role a browser's localStorage plays for a single page app:
// bearer tokens and identity snapshots survive reloads and restarts.
package storage

import (
	"context"
	"fmt"
	"strings"
)

const (
	// TokenKey holds the raw bearer token
	TokenKey = "ucrmp_token"
	// IdentityKey holds the JSON snapshot of the decoded identity
	IdentityKey = "ucrmp_user"
)

// Store is a string key-value store. Delete of missing keys is not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Namespace scopes every key of store under prefix. One namespace per browser session.
func Namespace(store Store, prefix string) Store {
	return &namespaced{store: store, prefix: strings.TrimSuffix(prefix, ":") + ":"}
}

type namespaced struct {
	store  Store
	prefix string
}

func (n *namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.store.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	return n.store.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Delete(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = n.prefix + k
	}
	return n.store.Delete(ctx, prefixed...)
}

// ClearSession removes the token and identity snapshot together
func ClearSession(ctx context.Context, store Store) error {
	if err := store.Delete(ctx, TokenKey, IdentityKey); err != nil {
		return fmt.Errorf("[storage ClearSession] %w", err)
	}
	return nil
}
