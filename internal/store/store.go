// Package store persists named JSON documents. Every operation reads or
// writes a whole document; there are no partial updates, transactions or
// version checks, so two concurrent read-modify-write cycles on the same
// document resolve as last write wins.
package store

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

// Document names shared across modules.
const (
	DocLeads             = "caller_leads"
	DocRouterSettings    = "lead_router_settings"
	DocRouterEvents      = "lead_router_events"
	DocBookings          = "sponsorship_bookings"
	DocApplications      = "sponsorship_applications"
	DocFollowupState     = "sponsorship_followup_state"
	DocPolicySubmissions = "policy_submissions"
)

// ErrEmptyName is returned when a document name is blank.
var ErrEmptyName = errors.New("store: document name is required")

// Store is the document store contract every backend implements.
type Store interface {
	// Load decodes the named document into dst. found is false (and dst is
	// left untouched) when the document has never been saved.
	Load(ctx context.Context, name string, dst any) (found bool, err error)
	// Save replaces the named document with value.
	Save(ctx context.Context, name string, value any) error
	// Ping checks backend reachability for readiness probes.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}

// raw is the byte-level contract the concrete backends implement; Codec
// lifts it to the Store interface.
type raw interface {
	get(ctx context.Context, name string) ([]byte, bool, error)
	put(ctx context.Context, name string, data []byte) error
	ping(ctx context.Context) error
	close() error
}

// codec adapts a raw backend to Store using the JSON codec.
type codec struct {
	backend raw
}

func (c codec) Load(ctx context.Context, name string, dst any) (bool, error) {
	if name == "" {
		return false, ErrEmptyName
	}
	data, found, err := c.backend.get(ctx, name)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", name, err)
	}
	if !found || len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

func (c codec) Save(ctx context.Context, name string, value any) error {
	if name == "" {
		return ErrEmptyName
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := c.backend.put(ctx, name, data); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

func (c codec) Ping(ctx context.Context) error { return c.backend.ping(ctx) }
func (c codec) Close() error                   { return c.backend.close() }

// LoadList loads an array document, returning an empty slice when absent.
func LoadList[T any](ctx context.Context, s Store, name string) ([]T, error) {
	var items []T
	if _, err := s.Load(ctx, name, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// LoadOr loads an object document, returning def when absent.
func LoadOr[T any](ctx context.Context, s Store, name string, def T) (T, error) {
	var value T
	found, err := s.Load(ctx, name, &value)
	if err != nil {
		return def, err
	}
	if !found {
		return def, nil
	}
	return value, nil
}
