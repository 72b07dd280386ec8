// Package flowstore persists named flows: a canvas graph plus its owner,
// version and timestamps. It is the persistence collaborator behind the
// editor's save and hydrate operations.
package flowstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	fcerrors "github.com/randalmurphal/flowcanvas/pkg/flowcanvas/errors"
)

// Store persists flows. Implementations must be safe for concurrent use.
type Store interface {
	// Create stores a new flow owned by the token's principal and returns it
	// with its server-assigned id.
	Create(ctx context.Context, token, name string, dag json.RawMessage) (Record, error)

	// Update replaces the name and graph of an existing flow and bumps its
	// version. Only the owner may update.
	Update(ctx context.Context, token, id, name string, dag json.RawMessage) (Record, error)

	// Get loads a flow. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (Record, error)

	// List returns metadata for every flow, most recently updated first.
	List(ctx context.Context) ([]Info, error)

	// Delete removes a flow. Only the owner may delete.
	// Returns nil if the flow doesn't exist.
	Delete(ctx context.Context, token, id string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Record is a persisted flow.
type Record struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Owner     string          `json:"owner"`
	Dag       json.RawMessage `json:"dag"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Info provides metadata without loading the graph.
type Info struct {
	ID        string
	Name      string
	Owner     string
	Version   int
	UpdatedAt time.Time
	Size      int64
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates a flow doesn't exist.
	ErrNotFound = errors.New("flow not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("flow store closed")

	// ErrUnauthorized indicates a missing or unusable session token.
	ErrUnauthorized = errors.New("missing session token")

	// ErrForbidden indicates the token's owner does not own the flow.
	ErrForbidden = errors.New("flow belongs to another owner")
)

// OwnerFunc maps a session token to the principal recorded as flow owner.
type OwnerFunc func(token string) (string, error)

// TokenOwner derives a stable, non-reversible owner id from a token.
func TokenOwner(token string) (string, error) {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8]), nil
}

// Option configures a store.
type Option func(*options)

type options struct {
	owner OwnerFunc
	now   func() time.Time
}

// WithOwnerFunc sets how tokens map to owners. Default: TokenOwner.
func WithOwnerFunc(fn OwnerFunc) Option {
	return func(o *options) {
		o.owner = fn
	}
}

// WithClock sets the time source. Useful in tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) options {
	o := options{owner: TokenOwner, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) authorize(op, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", fcerrors.Unauthorized(ErrUnauthorized, op)
	}
	owner, err := o.owner(token)
	if err != nil {
		return "", fcerrors.Unauthorized(err, op)
	}
	return owner, nil
}

func validateWrite(op, name string, dag json.RawMessage) error {
	if strings.TrimSpace(name) == "" {
		return fcerrors.Invalid(&fcerrors.ValidationError{Field: "name", Message: "must not be empty"}, op)
	}
	if !json.Valid(dag) {
		return fcerrors.Invalid(&fcerrors.ValidationError{Field: "dag", Message: "must be valid JSON"}, op)
	}
	return nil
}

func notFound(op string) error {
	return fcerrors.Permanent(ErrNotFound, op)
}

func forbidden(op string) error {
	return fcerrors.Unauthorized(ErrForbidden, op)
}
