// Package ccachestore persists pkg/ccache.CCache blobs keyed by their
// default principal, so a long-running client can cache a TGT across
// process restarts instead of re-running the AS-exchange every time.
package ccachestore

import (
	"context"
	"errors"

	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/credential"
)

// ErrNotFound is returned by Load when no ccache is stored for a principal.
var ErrNotFound = errors.New("ccachestore: not found")

// Store persists serialized ccache bytes (pkg/ccache.CCache.Save's output)
// keyed by principal. Implementations must be safe for concurrent use.
type Store interface {
	// Save writes data (a serialized ccache) under principal, overwriting
	// any prior entry.
	Save(ctx context.Context, principal credential.Principal, data []byte) error

	// Load returns the serialized ccache for principal, or ErrNotFound.
	Load(ctx context.Context, principal credential.Principal) ([]byte, error)

	// Delete removes the stored ccache for principal, if any.
	Delete(ctx context.Context, principal credential.Principal) error

	// Close releases any resources held by the store.
	Close() error
}

func key(p credential.Principal) string { return p.String() }
