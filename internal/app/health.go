package app

import (
	"sync/atomic"

	"github.com/florianilch/modelcatalog/internal/server"
)

// Health tracks whether the application accepts traffic.
// It starts not ready, becomes ready once the listener is up and turns
// not ready again when shutdown begins. All methods are safe for concurrent use.
type Health struct {
	ready atomic.Bool
}

// Compile-time check that Health implements server.ReadinessChecker interface
var _ server.ReadinessChecker = (*Health)(nil)

// NewHealth creates a Health that is not ready.
func NewHealth() *Health {
	return &Health{}
}

// MarkReady reports the application as ready to serve.
func (h *Health) MarkReady() {
	h.ready.Store(true)
}

// MarkDraining reports the application as shutting down. It never fails, so it
// can be used directly as a shutdown step.
func (h *Health) MarkDraining() {
	h.ready.Store(false)
}

// IsReady reports the current readiness state.
func (h *Health) IsReady() bool {
	return h.ready.Load()
}
