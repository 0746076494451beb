package services

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/rzaleman/taskman-be/internal/models"
)

// EventServiceProvider defines the interface for activity-feed services.
type EventServiceProvider interface {
	Record(ctx context.Context, userID, eventType, level, message string)
	GetRecentEvents(ctx context.Context, userID string, limit int) ([]models.Event, error)
}

// EventService writes and reads the per-user activity log.
type EventService struct {
	db *sql.DB
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db}
}

// Record logs an activity event. Best-effort: a failed write is logged and
// never propagated to the triggering request.
func (s *EventService) Record(ctx context.Context, userID, eventType, level, message string) {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, type, level, message, user_id) VALUES (?, ?, ?, ?, ?)",
		uuid.New().String(), eventType, level, message, userID)
	if err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("Failed to record event")
	}
}

// GetRecentEvents retrieves the caller's most recent events.
func (s *EventService) GetRecentEvents(ctx context.Context, userID string, limit int) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, type, level, message, user_id, created_at FROM events WHERE user_id = ? ORDER BY created_at DESC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.UserID, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
