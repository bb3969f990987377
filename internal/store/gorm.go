package store

import (
	"context"
	"errors"
	"strings"

	"github.com/farellandr/eventshots/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the tables backing events, photos and users.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&models.User{}, &models.Event{}, &models.Photo{})
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) CreateEvent(ctx context.Context, event *models.Event) error {
	return translate(s.db.WithContext(ctx).Create(event).Error)
}

func (s *GormStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	events := []models.Event{}
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (s *GormStore) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (s *GormStore) FindEventByCode(ctx context.Context, code string) (*models.Event, error) {
	var event models.Event
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&event).Error; err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (s *GormStore) CreatePhoto(ctx context.Context, photo *models.Photo) error {
	return translate(s.db.WithContext(ctx).Create(photo).Error)
}

func (s *GormStore) ListPhotos(ctx context.Context, eventID uuid.UUID) ([]models.Photo, error) {
	photos := []models.Photo{}
	err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Find(&photos).Error
	if err != nil {
		return nil, err
	}
	return photos, nil
}

func (s *GormStore) GetPhoto(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	var photo models.Photo
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&photo).Error; err != nil {
		return nil, translate(err)
	}
	return &photo, nil
}

func (s *GormStore) DeletePhoto(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Photo{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// translate maps driver-specific failures onto the package sentinels so the
// services never see a postgres or sqlite error type.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if isDuplicate(err) {
		return errors.Join(ErrDuplicate, err)
	}
	return err
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
