// Package registry owns all live presence state: the session registry
// mapping connections to rooms, the rosters derived from it, and the
// typing aggregator. No other module mutates session state directly.
package registry

import (
	"context"
	"log"

	"github.com/go-monolith/mono"
)

// Module wraps the session registry and typing aggregator as a mono module.
type Module struct {
	sessions *SessionRegistry
	typing   *TypingAggregator
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new registry module.
func NewModule() *Module {
	return &Module{
		sessions: NewSessionRegistry(),
		typing:   NewTypingAggregator(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "registry"
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[registry] Module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Printf("[registry] Module stopped - %d sessions were registered", m.sessions.Count())
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"registered_sessions": m.sessions.Count(),
		},
	}
}

// Sessions returns the session registry.
func (m *Module) Sessions() *SessionRegistry {
	return m.sessions
}

// Typing returns the typing aggregator.
func (m *Module) Typing() *TypingAggregator {
	return m.typing
}
