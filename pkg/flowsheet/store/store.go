// Package store persists the current record list between sessions.
//
// A store keeps id, label, status, optional fields and anchor row of every
// record exactly. The anchor row is only meaningful against the workbook the
// records were extracted from; a fresh extraction regenerates it.
package store

import (
	"context"

	"github.com/Tegakist/DSS/pkg/flowsheet/models"
)

// DefaultKey names the persisted record list.
const DefaultKey = "flowblock-nodes"

// Store loads and saves one ordered record list.
type Store interface {
	// Load returns the saved list. A store that was never saved returns an
	// empty list and no error.
	Load(ctx context.Context) ([]models.Record, error)
	// Save replaces the saved list.
	Save(ctx context.Context, records []models.Record) error
}

// Scoper is implemented by stores that can keep several record lists side
// by side. Scope returns the store of the list named key; the scoped store
// shares the parent's underlying resources and must not outlive it.
type Scoper interface {
	Scope(key string) Store
}
