// Package consumer contains interface of board events consumer.
package consumer

import (
	"context"

	"github.com/tgchan/tgchan/internal/health"
)

// Consumer receives board events from a messaging platform and executes resulting effects.
type Consumer interface {
	health.Pinger

	// Run blocks until ctx is done or the platform connection fails.
	Run(ctx context.Context) error
}
