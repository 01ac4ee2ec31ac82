// Package selection manages short-lived pending selections created when a
// project query matches several catalog items too closely to pick one.
//
// A selection moves from pending to exactly one of resolved, canceled or
// expired. Resolution and cancellation consume the stored entry atomically,
// so a second concurrent attempt observes it as expired.
package selection

import (
	"context"
	"errors"
	"time"

	"github.com/benvon/smart-worklog/internal/models"
)

var (
	// ErrSelectionMissing is returned by stores for ids that are absent,
	// already consumed or past their deadline
	ErrSelectionMissing = errors.New("pending selection missing")
	// ErrSelectionExists is returned by Put when the id is already taken
	ErrSelectionExists = errors.New("pending selection already exists")
)

// Store is a keyed table of pending selections addressed by opaque id.
// Implementations must make Take atomic: of two concurrent Takes for the same
// id, exactly one returns the selection.
type Store interface {
	// Put stores sel under sel.ID until sel.ExpiresAt
	Put(ctx context.Context, sel *models.PendingSelection) error
	// Get returns the selection without consuming it
	Get(ctx context.Context, id string) (*models.PendingSelection, error)
	// Take returns the selection and removes it in one step
	Take(ctx context.Context, id string) (*models.PendingSelection, error)
	// Delete removes the selection; deleting a missing id is not an error
	Delete(ctx context.Context, id string) error
	// Prune removes every selection expired at now and reports how many
	Prune(ctx context.Context, now time.Time) (int, error)
}

// Pinger is implemented by stores backed by a remote service
type Pinger interface {
	Ping(ctx context.Context) error
}
