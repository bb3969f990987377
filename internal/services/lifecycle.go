package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/farellandr/eventshots/internal/apperr"
	"github.com/farellandr/eventshots/internal/models"
	"github.com/farellandr/eventshots/internal/objectstore"
	"github.com/farellandr/eventshots/internal/store"
	"github.com/google/uuid"
)

// PhotoLifecycle lists photos and deletes them together with their backing
// object. The record is the source of truth: an object that cannot be removed
// is logged and left behind rather than blocking the delete.
type PhotoLifecycle struct {
	photos  store.PhotoStore
	objects objectstore.ObjectStore
}

func NewPhotoLifecycle(photos store.PhotoStore, objects objectstore.ObjectStore) *PhotoLifecycle {
	return &PhotoLifecycle{photos: photos, objects: objects}
}

func (l *PhotoLifecycle) List(ctx context.Context, rawEventID string) ([]models.Photo, error) {
	eventID, err := ParseID(rawEventID, "Event ID")
	if err != nil {
		return nil, err
	}
	photos, err := l.photos.ListPhotos(ctx, eventID)
	if err != nil {
		return nil, apperr.Store("Error retrieving photos.", err)
	}
	return photos, nil
}

func (l *PhotoLifecycle) Delete(ctx context.Context, rawPhotoID string) error {
	rawPhotoID = strings.TrimSpace(rawPhotoID)
	if rawPhotoID == "" {
		return apperr.Validation("Photo ID is required")
	}
	photoID, err := uuid.Parse(rawPhotoID)
	if err != nil {
		return apperr.NotFound("Photo not found.")
	}

	photo, err := l.photos.GetPhoto(ctx, photoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Photo not found.")
		}
		return apperr.Store("Error retrieving photo.", err)
	}

	if photo.SourceType.OwnsObject() {
		l.removeObject(ctx, photo)
	}

	if err := l.photos.DeletePhoto(ctx, photoID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Photo not found.")
		}
		return apperr.Store("Failed to delete photo.", err)
	}
	return nil
}

func (l *PhotoLifecycle) removeObject(ctx context.Context, photo *models.Photo) {
	objectPath := photo.StoragePath
	if objectPath == "" {
		derived, err := l.objects.PathFromURL(photo.ImageURL)
		if err != nil {
			log.Printf("photo %s: cannot derive storage path: %v", photo.ID, err)
			return
		}
		objectPath = derived
	}

	if err := l.objects.Remove(ctx, objectPath); err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			log.Printf("photo %s: object %s already gone", photo.ID, objectPath)
			return
		}
		log.Printf("photo %s: failed to remove object %s: %v", photo.ID, objectPath, err)
	}
}
