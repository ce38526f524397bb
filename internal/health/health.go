// Package health contains code for health checks.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// nolint:gochecknoglobals
var (
	version = "dev"
	commit  = "undefined"
)

var log = logrus.WithField("layer", "health").WithField("package", "health")

// GetVersion returns service's version and commit.
func GetVersion() string {
	return fmt.Sprintf("%s-%s", version, commit)
}

// Pinger checks a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
	// Name is used as a key in health response.
	Name() string
}

type pingFunc struct {
	name string
	f    func(ctx context.Context) error
}

func (p pingFunc) Ping(ctx context.Context) error {
	return p.f(ctx)
}

func (p pingFunc) Name() string {
	return p.name
}

// PingFunc wraps function into named Pinger, e.g. (*sql.DB).PingContext.
func PingFunc(name string, f func(ctx context.Context) error) Pinger {
	return pingFunc{name: name, f: f}
}

// Response ...
type Response struct {
	Version string            `json:"version"`
	Commit  string            `json:"commit"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Handler pings all dependencies concurrently and responds 503 if any of them failed.
func Handler(timeout time.Duration, p ...Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		var (
			gr   errgroup.Group
			mu   sync.Mutex
			resp = Response{Version: version, Commit: commit}
		)

		for i := range p {
			v := p[i]
			gr.Go(func() error {
				err := v.Ping(ctx)
				if err == nil {
					return nil
				}

				log.WithError(err).WithField("subject", v.Name()).Error("health check failed")

				mu.Lock()
				if resp.Errors == nil {
					resp.Errors = map[string]string{}
				}
				resp.Errors[v.Name()] = err.Error()
				mu.Unlock()

				return err
			})
		}

		w.Header().Set("Content-Type", "application/json")
		if err := gr.Wait(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		data, _ := json.Marshal(resp) // nolint:errchkjson
		_, _ = w.Write(data)
	}
}
