package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/rzaleman/taskman-be/internal/auth"
	"github.com/rzaleman/taskman-be/internal/httpx"
	"github.com/rzaleman/taskman-be/internal/services"
	ws "github.com/rzaleman/taskman-be/internal/websocket"
)

// TaskHandler handles HTTP requests for tasks. Every operation is scoped to
// the authenticated owner.
type TaskHandler struct {
	service services.TaskServiceProvider
	events  services.EventServiceProvider
	hub     *ws.Hub
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service services.TaskServiceProvider, events services.EventServiceProvider, hub *ws.Hub) *TaskHandler {
	return &TaskHandler{service: service, events: events, hub: hub}
}

// CreatePayload defines the structure for task creation requests.
type CreatePayload struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Create handles the request to create a new task for the caller.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var payload CreatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	task, err := h.service.CreateTask(r.Context(), user.ID, payload.Description, payload.Completed)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}

	h.events.Record(r.Context(), user.ID, "task.created", "info", "created task "+task.ID)
	h.hub.SendToUser(user.ID, ws.NewTaskMessage("task.created", task))

	httpx.WriteJSON(w, http.StatusCreated, task)
}

// List returns the caller's tasks with filter, sort and pagination options.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	query, err := parseTaskQuery(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	tasks, err := h.service.ListTasks(r.Context(), user.ID, query)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to list tasks")
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tasks)
}

// parseTaskQuery reads completed, sortBy, limit and skip from the URL.
func parseTaskQuery(r *http.Request) (services.TaskQuery, error) {
	q := services.TaskQuery{Limit: -1}
	params := r.URL.Query()

	if v := params.Get("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			return q, errors.New("invalid query parameter: completed")
		}
		q.Completed = &completed
	}
	if v := params.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return q, errors.New("invalid query parameter: limit")
		}
		q.Limit = limit
	}
	if v := params.Get("skip"); v != "" {
		skip, err := strconv.Atoi(v)
		if err != nil || skip < 0 {
			return q, errors.New("invalid query parameter: skip")
		}
		q.Skip = skip
	}
	q.SortBy = params.Get("sortBy")
	return q, nil
}

// Get handles the request to fetch a single owned task.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	task, err := h.service.GetTask(r.Context(), user.ID, id)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, task)
}

// allowedTaskUpdates whitelists the PATCH /tasks/{id} body keys.
var allowedTaskUpdates = map[string]bool{
	"description": true, "completed": true,
}

// Update applies a partial update to an owned task. Any key outside the
// whitelist rejects the whole request.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	for key := range body {
		if !allowedTaskUpdates[key] {
			httpx.WriteError(w, http.StatusBadRequest, "invalid update field: "+key, nil)
			return
		}
	}

	var update services.TaskUpdate
	ok := unmarshalField(body, "description", &update.Description) &&
		unmarshalField(body, "completed", &update.Completed)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	task, err := h.service.UpdateTask(r.Context(), user.ID, id, update)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}

	eventType := "task.updated"
	if update.Completed != nil && *update.Completed {
		eventType = "task.completed"
	}
	h.events.Record(r.Context(), user.ID, eventType, "info", "updated task "+task.ID)
	h.hub.SendToUser(user.ID, ws.NewTaskMessage("task.updated", task))

	httpx.WriteJSON(w, http.StatusOK, task)
}

// Delete removes an owned task and returns it.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	task, err := h.service.DeleteTask(r.Context(), user.ID, id)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}

	h.events.Record(r.Context(), user.ID, "task.deleted", "info", "deleted task "+task.ID)
	h.hub.SendToUser(user.ID, ws.NewTaskMessage("task.deleted", task))

	httpx.WriteJSON(w, http.StatusOK, task)
}
