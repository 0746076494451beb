package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/rzaleman/taskman-be/internal/auth"
	"github.com/rzaleman/taskman-be/internal/httpx"
	"github.com/rzaleman/taskman-be/internal/services"
)

// EventHandler handles HTTP requests for the activity feed.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// GetRecent returns the caller's recent activity events.
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	limitStr := r.URL.Query().Get("limit")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 20 // Default limit
	}

	events, err := h.service.GetRecentEvents(r.Context(), user.ID, limit)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to retrieve events")
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, events)
}
