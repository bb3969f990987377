package services

import (
	"bytes"
	"context"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/farellandr/eventshots/internal/apperr"
	"github.com/farellandr/eventshots/internal/models"
	"github.com/farellandr/eventshots/internal/objectstore"
	"github.com/farellandr/eventshots/internal/store"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// PhotoIngestion turns submitted sources into stored photo records. Uploads
// are written to the object store before the record, so a failed upload never
// leaves a row behind.
type PhotoIngestion struct {
	photos   store.PhotoStore
	registry *EventRegistry
	objects  objectstore.ObjectStore
	policy   UploadPolicy
	workers  int
	maxBatch int
	now      func() time.Time
}

// DefaultMaxBatchItems bounds how many sources one SubmitBatch call accepts.
const DefaultMaxBatchItems = 50

type IngestionOption func(*PhotoIngestion)

func WithUploadPolicy(policy UploadPolicy) IngestionOption {
	return func(p *PhotoIngestion) { p.policy = policy }
}

// WithWorkers lets SubmitBatch process up to n items at once. n <= 1 keeps
// processing strictly sequential.
func WithWorkers(n int) IngestionOption {
	return func(p *PhotoIngestion) { p.workers = n }
}

// WithMaxBatchItems caps the number of sources in one batch. n <= 0 lifts
// the cap.
func WithMaxBatchItems(n int) IngestionOption {
	return func(p *PhotoIngestion) { p.maxBatch = n }
}

func WithClock(now func() time.Time) IngestionOption {
	return func(p *PhotoIngestion) { p.now = now }
}

func NewPhotoIngestion(photos store.PhotoStore, registry *EventRegistry, objects objectstore.ObjectStore, opts ...IngestionOption) *PhotoIngestion {
	p := &PhotoIngestion{
		photos:   photos,
		registry: registry,
		objects:  objects,
		policy:   DefaultUploadPolicy,
		workers:  1,
		maxBatch: DefaultMaxBatchItems,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *PhotoIngestion) Policy() UploadPolicy {
	return p.policy
}

func (p *PhotoIngestion) MaxBatchItems() int {
	return p.maxBatch
}

type ItemFailure struct {
	Index   int    `json:"index"`
	Source  string `json:"source"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type BatchResult struct {
	Accepted      []models.Photo `json:"photos"`
	Failures      []ItemFailure  `json:"errors"`
	AcceptedCount int            `json:"accepted"`
	FailedCount   int            `json:"failed"`
}

// Err returns a partial-batch error when any item failed, nil otherwise.
func (r *BatchResult) Err() error {
	if r.FailedCount == 0 {
		return nil
	}
	return &apperr.Error{
		Kind:    apperr.KindPartialBatch,
		Message: "some photos could not be added",
	}
}

func (p *PhotoIngestion) resolveEvent(ctx context.Context, rawEventID string) (uuid.UUID, error) {
	eventID, err := ParseID(rawEventID, "Event ID")
	if err != nil {
		return uuid.Nil, err
	}
	exists, err := p.registry.Exists(ctx, eventID)
	if err != nil {
		return uuid.Nil, err
	}
	if !exists {
		return uuid.Nil, apperr.Validation("Event not found.")
	}
	return eventID, nil
}

func (p *PhotoIngestion) Submit(ctx context.Context, rawEventID string, source models.PhotoSource) (*models.Photo, error) {
	eventID, err := p.resolveEvent(ctx, rawEventID)
	if err != nil {
		return nil, err
	}
	return p.submit(ctx, eventID, source)
}

// SubmitBatch processes every source independently; one failing item does
// not stop the others. Accepted photos are reported in input order.
func (p *PhotoIngestion) SubmitBatch(ctx context.Context, rawEventID string, sources []models.PhotoSource) (*BatchResult, error) {
	eventID, err := p.resolveEvent(ctx, rawEventID)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, apperr.Validation("Image URL or File is required")
	}
	if p.maxBatch > 0 && len(sources) > p.maxBatch {
		return nil, apperr.Validation("A batch accepts at most %d photos, got %d", p.maxBatch, len(sources))
	}

	photos := make([]*models.Photo, len(sources))
	errs := make([]error, len(sources))

	var g errgroup.Group
	g.SetLimit(max(p.workers, 1))
	for i := range sources {
		g.Go(func() error {
			photos[i], errs[i] = p.submit(ctx, eventID, sources[i])
			return nil
		})
	}
	g.Wait()

	result := &BatchResult{
		Accepted: []models.Photo{},
		Failures: []ItemFailure{},
	}
	for i, err := range errs {
		if err != nil {
			result.Failures = append(result.Failures, ItemFailure{
				Index:   i,
				Source:  describeSource(sources[i]),
				Kind:    apperr.KindOf(err).String(),
				Message: apperr.Message(err),
			})
			continue
		}
		result.Accepted = append(result.Accepted, *photos[i])
	}
	result.AcceptedCount = len(result.Accepted)
	result.FailedCount = len(result.Failures)
	return result, nil
}

func describeSource(source models.PhotoSource) string {
	if source.Kind == models.SourceUpload {
		return source.Filename
	}
	return source.Value
}

func (p *PhotoIngestion) submit(ctx context.Context, eventID uuid.UUID, source models.PhotoSource) (*models.Photo, error) {
	photo := &models.Photo{
		EventID:    eventID,
		SourceType: source.Kind,
	}

	switch source.Kind {
	case models.SourceURL:
		if err := validateLink(source.Value); err != nil {
			return nil, err
		}
		photo.ImageURL = source.Value
	case models.SourceDriveFolder:
		if strings.TrimSpace(source.Value) == "" {
			return nil, apperr.Validation("Drive folder link is required")
		}
		photo.ImageURL = source.Value
	case models.SourceUpload:
		data := source.Data
		if len(data) == 0 {
			if source.Open == nil {
				return nil, apperr.Validation("Image URL or File is required")
			}
			var err error
			if data, err = p.policy.Read(source.Open); err != nil {
				return nil, err
			}
		}
		contentType, err := p.policy.Check(data)
		if err != nil {
			return nil, err
		}
		objectPath := objectstore.UploadPath(eventID.String(), source.Filename, p.now())
		obj, err := p.objects.Put(ctx, objectPath, bytes.NewReader(data), contentType)
		if err != nil {
			return nil, apperr.Store("Storage upload failed.", err)
		}
		photo.ImageURL = obj.URL
		photo.StoragePath = obj.Path
	default:
		return nil, apperr.Validation("Unknown source type %q", source.Kind)
	}

	if err := p.photos.CreatePhoto(ctx, photo); err != nil {
		if photo.StoragePath != "" {
			log.Printf("photo record insert failed, object %s is orphaned: %v", photo.StoragePath, err)
		}
		return nil, apperr.Store("Failed to save photo.", err)
	}
	return photo, nil
}

// validateLink accepts absolute http(s) URLs. Surrounding whitespace is
// tolerated for the check; the stored value is the one submitted.
func validateLink(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return apperr.Validation("Image URL or File is required")
	}
	u, err := url.Parse(trimmed)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperr.Validation("Invalid image URL: %s", trimmed)
	}
	return nil
}
