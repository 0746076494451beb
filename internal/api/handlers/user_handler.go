package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/rzaleman/taskman-be/internal/auth"
	"github.com/rzaleman/taskman-be/internal/httpx"
	"github.com/rzaleman/taskman-be/internal/images"
	"github.com/rzaleman/taskman-be/internal/services"
	"github.com/rzaleman/taskman-be/internal/validation"
)

// UserHandler handles HTTP requests for account management.
type UserHandler struct {
	service   services.UserServiceProvider
	events    services.EventServiceProvider
	notifier  *services.Notifier
	avatarMax int64
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, events services.EventServiceProvider, notifier *services.Notifier, avatarMax int64) *UserHandler {
	return &UserHandler{service: service, events: events, notifier: notifier, avatarMax: avatarMax}
}

// SignupPayload defines the structure for signup requests.
type SignupPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles new user registration.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload SignupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	user, token, err := h.service.Signup(r.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed signup")
		httpx.WriteServiceError(w, err)
		return
	}

	h.notifier.NotifyWelcome(user.Email, user.Name)
	h.events.Record(r.Context(), user.ID, "user.signup", "info", "account created")

	httpx.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

// Login handles credential verification and token issuance.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	user, token, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		log.Warn().Str("email", payload.Email).Msg("Failed login attempt")
		httpx.WriteServiceError(w, err)
		return
	}

	h.events.Record(r.Context(), user.ID, "user.login", "info", "logged in")

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

// Logout invalidates exactly the session token used for this request.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	token, _ := auth.TokenFromContext(r.Context())

	if err := h.service.Logout(r.Context(), user.ID, token); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to log out")
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// LogoutAll invalidates every session token of the caller.
func (h *UserHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if err := h.service.LogoutAll(r.Context(), user.ID); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to log out all sessions")
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out everywhere"})
}

// GetMe returns the caller's profile.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	httpx.WriteJSON(w, http.StatusOK, user)
}

// allowedUserUpdates whitelists the PATCH /users/me body keys.
var allowedUserUpdates = map[string]bool{
	"name": true, "email": true, "age": true, "password": true,
}

// UpdateMe applies a partial profile update. Any key outside the whitelist
// rejects the whole request.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	for key := range body {
		if !allowedUserUpdates[key] {
			httpx.WriteError(w, http.StatusBadRequest, "invalid update field: "+key, nil)
			return
		}
	}

	var update services.UserUpdate
	ok := unmarshalField(body, "name", &update.Name) &&
		unmarshalField(body, "email", &update.Email) &&
		unmarshalField(body, "age", &update.Age) &&
		unmarshalField(body, "password", &update.Password)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	updated, err := h.service.UpdateUser(r.Context(), user.ID, update)
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed profile update")
		httpx.WriteServiceError(w, err)
		return
	}

	h.events.Record(r.Context(), user.ID, "user.updated", "info", "profile updated")
	httpx.WriteJSON(w, http.StatusOK, updated)
}

// unmarshalField decodes body[key] into dst when present.
func unmarshalField[T any](body map[string]json.RawMessage, key string, dst **T) bool {
	raw, ok := body[key]
	if !ok {
		return true
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	*dst = &v
	return true
}

// DeleteMe deletes the caller's account, cascading to their tasks, and
// fires the goodbye email.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	deleted, err := h.service.DeleteUser(r.Context(), user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to delete account")
		httpx.WriteServiceError(w, err)
		return
	}

	h.notifier.NotifyCancellation(deleted.Email, deleted.Name)
	httpx.WriteJSON(w, http.StatusOK, deleted)
}

// UploadAvatar accepts a multipart image, normalizes it and stores it on
// the caller's record.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.avatarMax+4096)
	if err := r.ParseMultipartForm(h.avatarMax); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "avatar upload too large or malformed", nil)
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "avatar file is required", nil)
		return
	}
	defer file.Close()

	constraints := validation.ImageConstraints
	constraints.MaxSize = h.avatarMax
	if err := validation.File(header, constraints); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "failed to read avatar file", nil)
		return
	}

	normalized, err := images.NormalizeAvatar(data)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "unsupported image data", nil)
		return
	}

	if err := h.service.SetAvatar(r.Context(), user.ID, normalized); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to store avatar")
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "avatar uploaded"})
}

// DeleteAvatar clears the caller's avatar.
func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if err := h.service.DeleteAvatar(r.Context(), user.ID); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to delete avatar")
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "avatar deleted"})
}

// GetAvatar serves any user's stored avatar. Public: avatars are fetched by
// id so profile JSON never carries the bytes.
func (h *UserHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	avatar, err := h.service.GetAvatar(r.Context(), id)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(avatar)
}
