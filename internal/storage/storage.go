// Package storage contains a storage interface.
package storage

import (
	"context"
	"fmt"

	"github.com/tgchan/tgchan/internal/entities"
)

//go:generate mockgen -destination=./mock/storage.go -package=mock -source=storage.go

// ErrNotFound ...
var ErrNotFound = fmt.Errorf("not found")

// Storage keeps the board database.
type Storage interface {
	// Load returns the last saved database. It returns empty database on the first run.
	Load(ctx context.Context) (*entities.Database, error)
	// Save atomically writes database changes journal and resets it.
	// Previously saved state stays intact if Save fails.
	Save(ctx context.Context, db *entities.Database) error
	// Ping checks storage availability.
	Ping(ctx context.Context) error
}
