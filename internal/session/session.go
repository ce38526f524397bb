// Package session keeps transient per-pseudonym reply mode state.
//
// Sessions are not a part of the board database: losing them only makes a user click
// the reply button again.
package session

import (
	"context"

	"github.com/tgchan/tgchan/internal/entities"
)

//go:generate mockgen -destination=./mock/session.go -package=mock -source=session.go

// Store maps pseudonym to the post it replies to.
type Store interface {
	// Get returns reply target. ok is false if pseudonym is not in reply mode.
	Get(ctx context.Context, p entities.Pseudonym) (id entities.PostID, ok bool, err error)
	Set(ctx context.Context, p entities.Pseudonym, id entities.PostID) error
	// Delete leaves reply mode. It returns false if pseudonym was not in reply mode.
	Delete(ctx context.Context, p entities.Pseudonym) (bool, error)
}
