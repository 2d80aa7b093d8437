package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/amts/internal/models"
	"github.com/desertthunder/amts/internal/services"
	"github.com/desertthunder/amts/internal/shared"
)

// TasteEngine is the slice of the engine the API layer consumes.
type TasteEngine interface {
	Sync(ctx context.Context, userID, storefront string) (*models.SyncResult, error)
	Rank(targetUserID string, limit, minPercent int) ([]models.SimilarityCandidate, error)
	Compare(userIDA, userIDB string) (*models.ComparisonResult, error)
}

// UserStore is the slice of the user repository the API layer consumes.
type UserStore interface {
	Get(id string) (*models.User, error)
	GetByMusicID(musicID string) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	List(criteria map[string]any) ([]*models.User, error)
}

// ProfileReader provides point lookup of stored taste profiles.
type ProfileReader interface {
	Get(userID string) (*models.TasteProfile, error)
}

// TasteHandler serves the JSON API: auth endpoints, profile sync, and
// similarity queries.
type TasteHandler struct {
	engine   TasteEngine
	users    UserStore
	profiles ProfileReader
	tokens   services.TokenSource
	logger   *log.Logger
}

// NewTasteHandler creates a [TasteHandler] with its dependencies.
func NewTasteHandler(engine TasteEngine, users UserStore, profiles ProfileReader, tokens services.TokenSource, logger *log.Logger) *TasteHandler {
	return &TasteHandler{
		engine:   engine,
		users:    users,
		profiles: profiles,
		tokens:   tokens,
		logger:   logger,
	}
}

// Routes returns the method-qualified patterns this handler serves.
func (h *TasteHandler) Routes() []string {
	return []string{
		"GET /api/auth/developer-token",
		"POST /api/auth/login",
		"POST /api/sync/{userID}",
		"GET /api/users",
		"GET /api/users/{userID}/profile",
		"GET /api/users/{userID}/similar",
		"GET /api/users/{userID}/compare/{otherID}",
	}
}

// ServeHTTP dispatches on the matched route pattern.
func (h *TasteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Pattern {
	case "GET /api/auth/developer-token":
		h.developerToken(w, r)
	case "POST /api/auth/login":
		h.login(w, r)
	case "POST /api/sync/{userID}":
		h.sync(w, r)
	case "GET /api/users":
		h.listUsers(w, r)
	case "GET /api/users/{userID}/profile":
		h.profile(w, r)
	case "GET /api/users/{userID}/similar":
		h.similar(w, r)
	case "GET /api/users/{userID}/compare/{otherID}":
		h.compare(w, r)
	default:
		http.NotFound(w, r)
	}
}

// userResponse is the public projection of a user record.
type userResponse struct {
	ID               string     `json:"id"`
	AppleMusicUserID string     `json:"appleMusicUserId"`
	DisplayName      string     `json:"displayName"`
	Storefront       string     `json:"storefront"`
	LastLogin        *time.Time `json:"lastLogin,omitempty"`
	HasToken         bool       `json:"hasToken"`
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:               user.ID(),
		AppleMusicUserID: user.AppleMusicUserID(),
		DisplayName:      user.DisplayName(),
		Storefront:       user.Storefront(),
		LastLogin:        user.LastLogin(),
		HasToken:         user.HasToken(),
	}
}

func (h *TasteHandler) developerToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokens.Token()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// loginRequest carries the client-side authorization result: the opaque
// Music-User-Token plus enough identity to create the user record on first
// login.
type loginRequest struct {
	AppleMusicUserID string `json:"appleMusicUserId"`
	MusicUserToken   string `json:"musicUserToken"`
	DisplayName      string `json:"displayName"`
	Storefront       string `json:"storefront"`
}

func (h *TasteHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, shared.ErrInvalidInput)
		return
	}
	if req.AppleMusicUserID == "" || req.MusicUserToken == "" {
		h.writeError(w, shared.ErrInvalidInput)
		return
	}

	now := time.Now()

	user, err := h.users.GetByMusicID(req.AppleMusicUserID)
	switch {
	case errors.Is(err, shared.ErrUserNotFound):
		displayName := req.DisplayName
		if displayName == "" {
			displayName = req.AppleMusicUserID
		}
		user = models.NewUser(0, req.AppleMusicUserID, displayName, req.Storefront)
		user.SetUserToken(req.MusicUserToken)
		user.SetLastLogin(&now)
		if err := h.users.Create(user); err != nil {
			h.writeError(w, err)
			return
		}
	case err != nil:
		h.writeError(w, err)
		return
	default:
		user.SetUserToken(req.MusicUserToken)
		user.SetLastLogin(&now)
		if req.DisplayName != "" {
			user.SetDisplayName(req.DisplayName)
		}
		if req.Storefront != "" {
			user.SetStorefront(req.Storefront)
		}
		if err := h.users.Update(user); err != nil {
			h.writeError(w, err)
			return
		}
	}

	h.writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *TasteHandler) sync(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	user, err := h.users.Get(userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.engine.Sync(r.Context(), user.ID(), user.Storefront())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *TasteHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	criteria := map[string]any{}
	if storefront := r.URL.Query().Get("storefront"); storefront != "" {
		criteria["storefront"] = storefront
	}

	users, err := h.users.List(criteria)
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, user := range users {
		out = append(out, toUserResponse(user))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *TasteHandler) profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Get(r.PathValue("userID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

func (h *TasteHandler) similar(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	minPercent := queryInt(r, "minPercent", -1)

	candidates, err := h.engine.Rank(r.PathValue("userID"), limit, minPercent)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, candidates)
}

func (h *TasteHandler) compare(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Compare(r.PathValue("userID"), r.PathValue("otherID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// queryInt parses an integer query parameter, falling back on absence or
// garbage.
func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func (h *TasteHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps the shared error taxonomy to HTTP statuses.
func (h *TasteHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, shared.ErrUserNotFound), errors.Is(err, shared.ErrProfileNotFound):
		status = http.StatusNotFound
	case errors.Is(err, shared.ErrEmptyProfile):
		// Distinct from 404 so clients can prompt a re-sync.
		status = http.StatusConflict
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrInvalidArgument), errors.Is(err, shared.ErrInvalidActivityData):
		status = http.StatusBadRequest
	case errors.Is(err, shared.ErrTokenExpired), errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrAuthFailed):
		status = http.StatusUnauthorized
	case errors.Is(err, shared.ErrMissingCredentials), errors.Is(err, shared.ErrInvalidCredentials):
		status = http.StatusServiceUnavailable
	case errors.Is(err, shared.ErrUpstreamUnavailable), errors.Is(err, shared.ErrServiceUnavailable):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
