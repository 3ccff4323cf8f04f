package guard

import (
	"context"
	"strings"

	"github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/webstorage"
)

const pendingKey = "auth.return_to"

// PendingDestination remembers where the user was headed before sign-in
// interrupted them. It holds at most one value.
type PendingDestination struct {
	storage webstorage.Storage
}

func NewPendingDestination(storage webstorage.Storage) *PendingDestination {
	return &PendingDestination{storage: storage}
}

// Set records dest, replacing any earlier destination. Only local paths
// are accepted.
func (p *PendingDestination) Set(ctx context.Context, dest string) error {
	if !isLocalPath(dest) {
		return errors.Wrapf(errors.ErrInvalidDestination, "pending destination %q", dest)
	}
	return p.storage.Set(ctx, pendingKey, dest)
}

// Take returns the recorded destination and clears it.
func (p *PendingDestination) Take(ctx context.Context) (string, bool, error) {
	dest, ok, err := p.storage.Get(ctx, pendingKey)
	if err != nil || !ok {
		return "", false, err
	}
	if err := p.storage.Remove(ctx, pendingKey); err != nil {
		return "", false, err
	}
	if !isLocalPath(dest) {
		return "", false, nil
	}
	return dest, true, nil
}

func isLocalPath(dest string) bool {
	if !strings.HasPrefix(dest, "/") {
		return false
	}
	// "//host" and "/\host" are treated as network paths by browsers
	return !strings.HasPrefix(dest, "//") && !strings.HasPrefix(dest, "/\\")
}
