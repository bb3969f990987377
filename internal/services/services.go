// Package services implements the event registry and the photo ingestion and
// lifecycle workflows on top of the record and object stores.
package services

import (
	"github.com/farellandr/eventshots/internal/auth"
	"github.com/farellandr/eventshots/internal/objectstore"
	"github.com/farellandr/eventshots/internal/store"
)

// Services bundles everything a request handler may need.
type Services struct {
	Auth      *auth.Provider
	Events    *EventRegistry
	Ingestion *PhotoIngestion
	Photos    *PhotoLifecycle
}

func New(s store.Store, objects objectstore.ObjectStore, authProvider *auth.Provider, opts ...IngestionOption) *Services {
	registry := NewEventRegistry(s)
	return &Services{
		Auth:      authProvider,
		Events:    registry,
		Ingestion: NewPhotoIngestion(s, registry, objects, opts...),
		Photos:    NewPhotoLifecycle(s, objects),
	}
}
