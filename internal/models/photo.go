package models

import (
	"io"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SourceType string

const (
	SourceUpload      SourceType = "upload"
	SourceURL         SourceType = "url"
	SourceDriveFolder SourceType = "drive_folder"
)

func ParseSourceType(s string) (SourceType, bool) {
	switch SourceType(s) {
	case SourceUpload, SourceURL, SourceDriveFolder:
		return SourceType(s), true
	}
	return "", false
}

// OwnsObject reports whether photos of this source keep a backing object in
// the object store.
func (s SourceType) OwnsObject() bool {
	return s == SourceUpload
}

type Photo struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	EventID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"event_id"`
	ImageURL    string     `gorm:"not null" json:"image_url"`
	SourceType  SourceType `gorm:"type:varchar(32);not null" json:"source_type"`
	StoragePath string     `json:"storage_path,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}

func (photo *Photo) BeforeCreate(tx *gorm.DB) (err error) {
	if photo.ID == uuid.Nil {
		photo.ID = uuid.New()
	}
	return
}

// PhotoSource is one submission to the ingestion pipeline. Value carries the
// link for url and drive_folder sources. An upload carries its bytes in Data,
// or an Open func that is only called when the item is processed.
type PhotoSource struct {
	Kind     SourceType
	Value    string
	Filename string
	Data     []byte
	Open     func() (io.ReadCloser, error)
}
