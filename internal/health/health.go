// Package health wires github.com/heptiolabs/healthcheck into an HTTP
// liveness/readiness endpoint for mmqueue, per SPEC_FULL.md §4.12.
package health

import (
	"net/http"

	"github.com/heptiolabs/healthcheck"
)

// SanityChecker is satisfied by pkg/queue.Queue (its three mapped files'
// magic/version/align fields); kept as a narrow interface here so this
// package never imports pkg/queue.
type SanityChecker interface {
	CheckSanity() error
}

// Handler builds an http.Handler exposing /live and /ready, per the
// healthcheck package's conventions. ready reports the queue handle's
// magic/version/align sanity check in addition to always-live process
// status.
func Handler(q SanityChecker) http.Handler {
	h := healthcheck.NewHandler()
	h.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(10000))
	h.AddReadinessCheck("queue-sanity", func() error {
		if q == nil {
			return nil
		}
		return q.CheckSanity()
	})
	return h
}

// Serve starts an HTTP server on addr exposing the health handler; it
// blocks until the server stops or errors, matching the teacher's
// convention of a simple blocking Serve() used by a goroutine in main.
func Serve(addr string, q SanityChecker) error {
	return http.ListenAndServe(addr, Handler(q))
}
