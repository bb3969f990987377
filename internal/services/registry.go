package services

import (
	"context"
	"errors"
	"strings"

	"github.com/farellandr/eventshots/internal/apperr"
	"github.com/farellandr/eventshots/internal/models"
	"github.com/farellandr/eventshots/internal/store"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EventRegistry creates and lists events. Event codes are unique and always
// stored uppercase; uniqueness itself is left to the record store.
type EventRegistry struct {
	events store.EventStore
}

func NewEventRegistry(events store.EventStore) *EventRegistry {
	return &EventRegistry{events: events}
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// normalizeEmails lowercases, trims and deduplicates the allow list while
// keeping first-seen order.
func normalizeEmails(emails []string) ([]string, error) {
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" || seen[email] {
			continue
		}
		if strings.Count(email, "@") != 1 || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
			return nil, apperr.Validation("Invalid email in allowed list: %s", email)
		}
		seen[email] = true
		out = append(out, email)
	}
	return out, nil
}

func (r *EventRegistry) List(ctx context.Context) ([]models.Event, error) {
	events, err := r.events.ListEvents(ctx)
	if err != nil {
		return nil, apperr.Store("Error retrieving events.", err)
	}
	return events, nil
}

// ListVisible returns the events user created or is on the allow list of.
func (r *EventRegistry) ListVisible(ctx context.Context, user *models.User) ([]models.Event, error) {
	if user == nil {
		return nil, apperr.Unauthorized("Authentication required.")
	}
	events, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]models.Event, 0, len(events))
	for i := range events {
		if events[i].VisibleTo(user) {
			visible = append(visible, events[i])
		}
	}
	return visible, nil
}

func (r *EventRegistry) Create(ctx context.Context, req models.CreateEventRequest, user *models.User) (*models.Event, error) {
	if user == nil {
		return nil, apperr.Unauthorized("Unauthorized")
	}

	name := strings.TrimSpace(req.Name)
	code := NormalizeCode(req.Code)
	if name == "" || code == "" {
		return nil, apperr.Validation("Name and code are required")
	}
	emails, err := normalizeEmails(req.AllowedEmails)
	if err != nil {
		return nil, err
	}

	createdBy := user.ID
	event := &models.Event{
		Name:          name,
		Code:          code,
		CreatedBy:     &createdBy,
		AllowedEmails: datatypes.NewJSONSlice(emails),
	}
	if err := r.events.CreateEvent(ctx, event); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("Event code already exists. Please choose a different unique code.", err)
		}
		return nil, apperr.Store("Failed to create event.", err)
	}
	return event, nil
}

func (r *EventRegistry) FindByCode(ctx context.Context, code string) (*models.Event, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, apperr.Validation("Event code is required")
	}
	event, err := r.events.FindEventByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Event not found.")
		}
		return nil, apperr.Store("Error retrieving event.", err)
	}
	return event, nil
}

// Exists reports whether an event with id is present.
func (r *EventRegistry) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, err := r.events.GetEvent(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, apperr.Store("Error retrieving event.", err)
	}
	return true, nil
}

func ParseID(raw string, field string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, apperr.Validation("%s is required", field)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation("%s is not a valid id", field)
	}
	return id, nil
}
