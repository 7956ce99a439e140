package presentation

import (
	"context"
	"sync"

	"solana-wallet-map/internal/domain"
	"solana-wallet-map/internal/engine"
	"solana-wallet-map/internal/observability"
)

// Sink renders engine updates and broadcasts them through a Hub.
type Sink struct {
	adapter *Adapter
	hub     *Hub

	mu     sync.RWMutex
	latest *Scene
}

// NewSink creates a presentation sink.
func NewSink(adapter *Adapter, hub *Hub) *Sink {
	return &Sink{
		adapter: adapter,
		hub:     hub,
		latest:  adapter.Render(domain.EmptyLayout()),
	}
}

// Name implements engine.Sink.
func (s *Sink) Name() string { return "hub" }

// Publish implements engine.Sink. Unchanged layouts are not re-sent.
func (s *Sink) Publish(_ context.Context, u *engine.Update) error {
	if !u.LayoutChanged {
		return nil
	}

	scene := s.adapter.Render(u.Layout)
	observability.RecordDroppedEdges(scene.DroppedEdges)

	s.mu.Lock()
	s.latest = scene
	s.mu.Unlock()

	err := s.hub.Broadcast(scene)
	observability.UpdateSceneClients(s.hub.Clients())
	return err
}

// Latest returns the most recently rendered scene.
func (s *Sink) Latest() *Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}
