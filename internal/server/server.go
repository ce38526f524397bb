// Package server tgchan
//
// The tgchan API gives integrations and admin tools access to the anonymous board:
// post state, the auto-delete queue, votes and deletion.
//
//     Schemes: https
//     BasePath: /v1
//     Version: 1.0.0
//
//     SecurityDefinitions:
//     bearer:
//       type: apiKey
//       name: Authorization
//       in: header
//
//     Produces:
//     - application/json
//     Consumes:
//     - application/json
//
// swagger:meta
package server

import (
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/sirupsen/logrus"

	mm "github.com/tgchan/tgchan/internal/middleware"
	"github.com/tgchan/tgchan/internal/service"
)

//go:generate swagger generate spec -t swagger -m -c . -o ../../static/swagger.json

const maxBodySize = 1024

const queueCacheTTL = 5 * time.Second

var log = logrus.WithField("layer", "api").WithField("package", "server")

type server struct {
	s service.Service
}

// SetupRouter setups handlers to chi router.
// Votes and deletion act on behalf of any identity, so they are served only with adminToken set
// and require it as a bearer token.
func SetupRouter(s service.Service, r chi.Router, timeout time.Duration, adminToken string) {
	r.Use(
		middleware.RequestID,
		mm.LoggerMiddleware,
		middleware.StripSlashes,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		mm.BodyLimiterMiddleware(maxBodySize),
	)

	srv := server{
		s: s,
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/posts/{id}", srv.getPost)
		r.Get("/queue", mm.Cached(queueCacheTTL, srv.listQueue))

		if adminToken == "" {
			log.Warn("empty admin token, votes and deletion are disabled")
			return
		}

		r.Group(func(r chi.Router) {
			r.Use(mm.AuthMiddleware(adminToken))
			r.Delete("/posts/{id}", srv.deletePost)
			r.Post("/posts/{id}/votes", srv.vote)
		})
	})
}
