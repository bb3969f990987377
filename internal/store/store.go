// Package store holds the record store contract used by the services and
// its backends: gorm (postgres or sqlite) and mongo.
package store

import (
	"context"
	"errors"

	"github.com/farellandr/eventshots/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

type EventStore interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	ListEvents(ctx context.Context) ([]models.Event, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	FindEventByCode(ctx context.Context, code string) (*models.Event, error)
}

type PhotoStore interface {
	CreatePhoto(ctx context.Context, photo *models.Photo) error
	ListPhotos(ctx context.Context, eventID uuid.UUID) ([]models.Photo, error)
	GetPhoto(ctx context.Context, id uuid.UUID) (*models.Photo, error)
	DeletePhoto(ctx context.Context, id uuid.UUID) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type Store interface {
	EventStore
	PhotoStore
	UserStore
	Close() error
}
