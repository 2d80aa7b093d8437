package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/amts/internal/models"
	"github.com/desertthunder/amts/internal/shared"
	internaltest "github.com/desertthunder/amts/internal/testing"
)

type fakeEngine struct {
	syncResult *models.SyncResult
	syncErr    error
	candidates []models.SimilarityCandidate
	rankErr    error
	comparison *models.ComparisonResult
	compareErr error
}

func (f *fakeEngine) Sync(ctx context.Context, userID, storefront string) (*models.SyncResult, error) {
	return f.syncResult, f.syncErr
}

func (f *fakeEngine) Rank(targetUserID string, limit, minPercent int) ([]models.SimilarityCandidate, error) {
	return f.candidates, f.rankErr
}

func (f *fakeEngine) Compare(userIDA, userIDB string) (*models.ComparisonResult, error) {
	return f.comparison, f.compareErr
}

type fakeUsers struct {
	byID      map[string]*models.User
	byMusicID map[string]*models.User
	created   []*models.User
	updated   []*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byID:      make(map[string]*models.User),
		byMusicID: make(map[string]*models.User),
	}
}

func (f *fakeUsers) add(user *models.User) {
	f.byID[user.ID()] = user
	f.byMusicID[user.AppleMusicUserID()] = user
}

func (f *fakeUsers) Get(id string) (*models.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}
	return user, nil
}

func (f *fakeUsers) GetByMusicID(musicID string) (*models.User, error) {
	user, ok := f.byMusicID[musicID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, musicID)
	}
	return user, nil
}

func (f *fakeUsers) Create(user *models.User) error {
	user.SetID(shared.GenerateID())
	f.add(user)
	f.created = append(f.created, user)
	return nil
}

func (f *fakeUsers) Update(user *models.User) error {
	f.updated = append(f.updated, user)
	return nil
}

func (f *fakeUsers) List(criteria map[string]any) ([]*models.User, error) {
	var out []*models.User
	for _, user := range f.byID {
		out = append(out, user)
	}
	return out, nil
}

type fakeProfiles struct {
	profiles map[string]*models.TasteProfile
}

func (f *fakeProfiles) Get(userID string) (*models.TasteProfile, error) {
	profile, ok := f.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrProfileNotFound, userID)
	}
	return profile, nil
}

func newTestRouter(engine *fakeEngine, users *fakeUsers, profiles *fakeProfiles) *BasicRouter {
	logger := shared.NewLogger(io.Discard)
	handler := NewTasteHandler(engine, users, profiles, &internaltest.MockTokenSource{TokenValue: "dev-token"}, logger)

	router := NewBasicRouter()
	router.Use(Recoverer(logger))
	router.Handler(handler)
	return router
}

func TestTasteHandler(t *testing.T) {
	t.Run("DeveloperToken", func(t *testing.T) {
		router := newTestRouter(&fakeEngine{}, newFakeUsers(), &fakeProfiles{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/developer-token", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body["token"] != "dev-token" {
			t.Errorf("expected dev-token, got %q", body["token"])
		}
	})

	t.Run("LoginCreatesUser", func(t *testing.T) {
		users := newFakeUsers()
		router := newTestRouter(&fakeEngine{}, users, &fakeProfiles{})

		payload := `{"appleMusicUserId":"amu_new","musicUserToken":"mut-1","displayName":"New Listener","storefront":"gb"}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(payload)))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(users.created) != 1 {
			t.Fatalf("expected 1 created user, got %d", len(users.created))
		}
		if !users.created[0].HasToken() {
			t.Error("expected stored music user token")
		}
		if users.created[0].Storefront() != "gb" {
			t.Errorf("expected storefront gb, got %s", users.created[0].Storefront())
		}
	})

	t.Run("LoginUpdatesExistingUser", func(t *testing.T) {
		users := newFakeUsers()
		existing := models.NewUser(1, "amu_known", "Known", "us")
		existing.SetID("user-1")
		users.add(existing)

		router := newTestRouter(&fakeEngine{}, users, &fakeProfiles{})

		payload := `{"appleMusicUserId":"amu_known","musicUserToken":"mut-2"}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(payload)))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(users.updated) != 1 {
			t.Fatalf("expected 1 updated user, got %d", len(users.updated))
		}
		if existing.UserToken() != "mut-2" {
			t.Errorf("expected refreshed token, got %q", existing.UserToken())
		}
	})

	t.Run("LoginRejectsMissingFields", func(t *testing.T) {
		router := newTestRouter(&fakeEngine{}, newFakeUsers(), &fakeProfiles{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`)))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("SyncKnownUser", func(t *testing.T) {
		users := newFakeUsers()
		user := models.NewUser(1, "amu_one", "One", "us")
		user.SetID("user-1")
		users.add(user)

		engine := &fakeEngine{
			syncResult: &models.SyncResult{UserID: "user-1", SongsProcessed: 30, TopGenres: []string{"Pop"}},
		}
		router := newTestRouter(engine, users, &fakeProfiles{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sync/user-1", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var result models.SyncResult
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if result.SongsProcessed != 30 {
			t.Errorf("expected 30 songs processed, got %d", result.SongsProcessed)
		}
	})

	t.Run("SyncUnknownUser", func(t *testing.T) {
		router := newTestRouter(&fakeEngine{}, newFakeUsers(), &fakeProfiles{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sync/ghost", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("ProfileNotFound", func(t *testing.T) {
		router := newTestRouter(&fakeEngine{}, newFakeUsers(), &fakeProfiles{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/ghost/profile", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("SimilarReturnsCandidates", func(t *testing.T) {
		engine := &fakeEngine{
			candidates: []models.SimilarityCandidate{
				{UserID: "user-2", SimilarityPercent: 91, TopGenres: []string{"Pop"}, TopArtists: []string{"A"}},
			},
		}
		router := newTestRouter(engine, newFakeUsers(), &fakeProfiles{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/user-1/similar?limit=5&minPercent=50", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var candidates []models.SimilarityCandidate
		if err := json.Unmarshal(rec.Body.Bytes(), &candidates); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if len(candidates) != 1 || candidates[0].SimilarityPercent != 91 {
			t.Errorf("unexpected candidates: %v", candidates)
		}
	})

	t.Run("SimilarEmptyProfileConflict", func(t *testing.T) {
		engine := &fakeEngine{rankErr: fmt.Errorf("%w: user-1", shared.ErrEmptyProfile)}
		router := newTestRouter(engine, newFakeUsers(), &fakeProfiles{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/user-1/similar", nil))

		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409 for empty profile, got %d", rec.Code)
		}
	})

	t.Run("Compare", func(t *testing.T) {
		engine := &fakeEngine{
			comparison: &models.ComparisonResult{
				UserID1:           "user-1",
				UserID2:           "user-2",
				SimilarityPercent: 77,
				CommonInterests:   models.CommonInterests{Genres: []string{"Pop"}, Artists: []string{}, Songs: []string{}, Albums: []string{}},
			},
		}
		router := newTestRouter(engine, newFakeUsers(), &fakeProfiles{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/user-1/compare/user-2", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var result models.ComparisonResult
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if result.SimilarityPercent != 77 {
			t.Errorf("expected 77%%, got %d%%", result.SimilarityPercent)
		}
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		router := newTestRouter(&fakeEngine{}, newFakeUsers(), &fakeProfiles{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/users", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("UpstreamFailureIsBadGateway", func(t *testing.T) {
		users := newFakeUsers()
		user := models.NewUser(1, "amu_one", "One", "us")
		user.SetID("user-1")
		users.add(user)

		engine := &fakeEngine{syncErr: fmt.Errorf("%w: timeout", shared.ErrUpstreamUnavailable)}
		router := newTestRouter(engine, users, &fakeProfiles{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sync/user-1", nil))

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
	})
}
