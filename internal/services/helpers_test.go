package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/farellandr/eventshots/internal/models"
	"github.com/farellandr/eventshots/internal/objectstore"
	"github.com/farellandr/eventshots/internal/store"
	"github.com/google/uuid"
)

// 1x1 transparent PNG
var onePixelPNG, _ = base64.StdEncoding.DecodeString("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

var errInjected = errors.New("injected failure")

type memObjects struct {
	mu         sync.Mutex
	objects    map[string][]byte
	failPut    bool
	failRemove bool
	removes    int
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}}
}

const memPublicRoot = "http://test.local/media/photos/"

func (m *memObjects) PathFromURL(publicURL string) (string, error) {
	return objectstore.TrimPublicRoot(memPublicRoot, publicURL)
}

func (m *memObjects) Put(ctx context.Context, objectPath string, r io.Reader, contentType string) (objectstore.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut {
		return objectstore.Object{}, errInjected
	}
	if _, ok := m.objects[objectPath]; ok {
		return objectstore.Object{}, objectstore.ErrExists
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return objectstore.Object{}, err
	}
	m.objects[objectPath] = data
	return objectstore.Object{Path: objectPath, URL: memPublicRoot + objectPath}, nil
}

func (m *memObjects) Remove(ctx context.Context, objectPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removes++
	if m.failRemove {
		return errInjected
	}
	if _, ok := m.objects[objectPath]; !ok {
		return objectstore.ErrNotFound
	}
	delete(m.objects, objectPath)
	return nil
}

func (m *memObjects) has(objectPath string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[objectPath]
	return ok
}

func (m *memObjects) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type fixture struct {
	store     *store.GormStore
	objects   *memObjects
	registry  *EventRegistry
	ingestion *PhotoIngestion
	lifecycle *PhotoLifecycle
	user      *models.User
}

func newFixture(t *testing.T, opts ...IngestionOption) *fixture {
	t.Helper()
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	objects := newMemObjects()
	registry := NewEventRegistry(s)
	return &fixture{
		store:     s,
		objects:   objects,
		registry:  registry,
		ingestion: NewPhotoIngestion(s, registry, objects, opts...),
		lifecycle: NewPhotoLifecycle(s, objects),
		user:      &models.User{ID: uuid.New(), Email: "owner@example.com"},
	}
}

func (f *fixture) event(t *testing.T, code string) *models.Event {
	t.Helper()
	event, err := f.registry.Create(context.Background(), models.CreateEventRequest{Name: "Event " + code, Code: code}, f.user)
	if err != nil {
		t.Fatalf("create event %s: %v", code, err)
	}
	return event
}

// faultyPhotos fails the selected photo store calls with errInjected.
type faultyPhotos struct {
	store.PhotoStore
	failCreate bool
	failDelete bool
	failList   bool
}

func (p *faultyPhotos) CreatePhoto(ctx context.Context, photo *models.Photo) error {
	if p.failCreate {
		return errInjected
	}
	return p.PhotoStore.CreatePhoto(ctx, photo)
}

func (p *faultyPhotos) DeletePhoto(ctx context.Context, id uuid.UUID) error {
	if p.failDelete {
		return errInjected
	}
	return p.PhotoStore.DeletePhoto(ctx, id)
}

func (p *faultyPhotos) ListPhotos(ctx context.Context, eventID uuid.UUID) ([]models.Photo, error) {
	if p.failList {
		return nil, errInjected
	}
	return p.PhotoStore.ListPhotos(ctx, eventID)
}

type faultyEvents struct {
	store.EventStore
}

func (faultyEvents) ListEvents(ctx context.Context) ([]models.Event, error) {
	return nil, errInjected
}

// openerFor serves data as an upload and counts opens in opened.
func openerFor(data []byte, opened *int) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		*opened++
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}
