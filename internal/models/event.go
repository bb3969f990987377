package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Event struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primary_key" json:"id"`
	Name          string                      `gorm:"not null" json:"name"`
	Code          string                      `gorm:"not null;uniqueIndex" json:"code"`
	CreatedBy     *uuid.UUID                  `gorm:"type:uuid;index" json:"created_by"`
	AllowedEmails datatypes.JSONSlice[string] `json:"allowed_emails"`
	CreatedAt     time.Time                   `gorm:"index" json:"created_at"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.AllowedEmails == nil {
		event.AllowedEmails = datatypes.JSONSlice[string]{}
	}
	return
}

// IsPrivate reports whether only the creator may see the event.
func (event *Event) IsPrivate() bool {
	return len(event.AllowedEmails) == 0
}

// VisibleTo reports whether user may see the event. The creator always can;
// anyone else needs their email on the allow list.
func (event *Event) VisibleTo(user *User) bool {
	if user == nil {
		return false
	}
	if event.CreatedBy != nil && *event.CreatedBy == user.ID {
		return true
	}
	email := strings.ToLower(user.Email)
	for _, allowed := range event.AllowedEmails {
		if allowed == email {
			return true
		}
	}
	return false
}

type CreateEventRequest struct {
	Name          string   `json:"name"`
	Code          string   `json:"code"`
	AllowedEmails []string `json:"allowedEmails"`
}
