package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/amts/internal/shared"
	th "github.com/desertthunder/amts/internal/testing"
)

// roundTripFunc adapts a function into an [http.RoundTripper] so tests can
// inspect outgoing requests.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func newTestService(rt http.RoundTripper) *AppleMusicService {
	return NewAppleMusicService(
		&th.MockTokenSource{TokenValue: "dev-token"},
		func(ctx context.Context, userID string) (string, error) {
			return "mut-" + userID, nil
		},
		AppleMusicOpts{
			HTTPClient: &http.Client{Transport: rt},
			BaseURL:    "https://music.test/v1",
			RateLimit:  1000,
		},
	)
}

const recentTracksBody = `{"data": [
	{"id": "s1", "type": "songs", "attributes": {"name": "Track One"}},
	{"id": "s2", "type": "songs", "attributes": {"name": "Track Two"}},
	{"id": "s1", "type": "songs", "attributes": {"name": "Track One"}}
]}`

const catalogSongsBody = `{"data": [
	{"id": "s1", "type": "songs", "attributes": {
		"name": "Track One", "artistName": "Artist A", "albumName": "Album A",
		"genreNames": ["Pop", "Dance"]}},
	{"id": "s2", "type": "songs", "attributes": {
		"name": "Track Two", "artistName": "Artist B", "albumName": "Album B",
		"genreNames": ["Jazz"]}}
]}`

func TestRecentActivity(t *testing.T) {
	t.Run("Counts Repeated Plays", func(t *testing.T) {
		rt := th.NewSequenceRoundTripper(
			jsonResponse(http.StatusOK, recentTracksBody),
			jsonResponse(http.StatusOK, catalogSongsBody),
		)
		service := newTestService(rt)

		activity, err := service.RecentActivity(context.Background(), "user-1", "us")
		if err != nil {
			t.Fatalf("Failed to fetch activity: %v", err)
		}
		if len(activity) != 2 {
			t.Fatalf("Expected 2 activity entries, got %d", len(activity))
		}

		first := activity[0]
		if first.SongName != "Track One" || first.Plays != 2 {
			t.Errorf("Expected Track One with 2 plays, got %s with %d", first.SongName, first.Plays)
		}
		if len(first.Genres) != 2 || first.Genres[0] != "Pop" {
			t.Errorf("Expected catalog genres on activity, got %v", first.Genres)
		}
		if activity[1].Plays != 1 {
			t.Errorf("Expected single play for Track Two, got %d", activity[1].Plays)
		}
	})

	t.Run("Sends Auth Headers", func(t *testing.T) {
		var authHeader, userTokenHeader string
		rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
			authHeader = r.Header.Get("Authorization")
			userTokenHeader = r.Header.Get("Music-User-Token")
			return jsonResponse(http.StatusOK, `{"data": []}`), nil
		})
		service := newTestService(rt)

		if _, err := service.RecentActivity(context.Background(), "user-1", "us"); err != nil {
			t.Fatalf("Failed to fetch activity: %v", err)
		}
		if authHeader != "Bearer dev-token" {
			t.Errorf("Expected developer token bearer header, got %q", authHeader)
		}
		if userTokenHeader != "mut-user-1" {
			t.Errorf("Expected music user token header, got %q", userTokenHeader)
		}
	})

	t.Run("Empty History", func(t *testing.T) {
		service := newTestService(th.NewMockRoundTripper(jsonResponse(http.StatusOK, `{"data": []}`), nil))

		activity, err := service.RecentActivity(context.Background(), "user-1", "us")
		if err != nil {
			t.Fatalf("Expected empty history to succeed, got %v", err)
		}
		if len(activity) != 0 {
			t.Errorf("Expected no activity, got %d entries", len(activity))
		}
	})

	t.Run("No Stored User Token", func(t *testing.T) {
		service := NewAppleMusicService(
			&th.MockTokenSource{TokenValue: "dev-token"},
			func(ctx context.Context, userID string) (string, error) { return "", nil },
			AppleMusicOpts{RateLimit: 1000},
		)

		_, err := service.RecentActivity(context.Background(), "user-1", "us")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("Expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("No Token Resolver", func(t *testing.T) {
		service := NewAppleMusicService(&th.MockTokenSource{TokenValue: "dev-token"}, nil,
			AppleMusicOpts{RateLimit: 1000})

		_, err := service.RecentActivity(context.Background(), "user-1", "us")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("Expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Token Resolver Error Propagates", func(t *testing.T) {
		resolverErr := errors.New("store unavailable")
		service := NewAppleMusicService(
			&th.MockTokenSource{TokenValue: "dev-token"},
			func(ctx context.Context, userID string) (string, error) { return "", resolverErr },
			AppleMusicOpts{RateLimit: 1000},
		)

		if _, err := service.RecentActivity(context.Background(), "user-1", "us"); !errors.Is(err, resolverErr) {
			t.Errorf("Expected resolver error, got %v", err)
		}
	})
}

func TestStatusMapping(t *testing.T) {
	fetch := func(t *testing.T, rt http.RoundTripper) error {
		t.Helper()
		service := newTestService(rt)
		_, err := service.RecentPlayedTracks(context.Background(), "mut-user-1", 10)
		return err
	}

	t.Run("Unauthorized Is Token Expired", func(t *testing.T) {
		err := fetch(t, th.NewMockRoundTripper(jsonResponse(http.StatusUnauthorized, `{}`), nil))
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("Expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("Forbidden Is Token Expired", func(t *testing.T) {
		err := fetch(t, th.NewMockRoundTripper(jsonResponse(http.StatusForbidden, `{}`), nil))
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("Expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("Rate Limited Is Upstream Unavailable", func(t *testing.T) {
		err := fetch(t, th.NewMockRoundTripper(jsonResponse(http.StatusTooManyRequests, `{}`), nil))
		if !errors.Is(err, shared.ErrUpstreamUnavailable) {
			t.Errorf("Expected ErrUpstreamUnavailable, got %v", err)
		}
	})

	t.Run("Server Error Is Upstream Unavailable", func(t *testing.T) {
		err := fetch(t, th.NewMockRoundTripper(jsonResponse(http.StatusBadGateway, `{}`), nil))
		if !errors.Is(err, shared.ErrUpstreamUnavailable) {
			t.Errorf("Expected ErrUpstreamUnavailable, got %v", err)
		}
	})

	t.Run("Client Error Is API Request Failure", func(t *testing.T) {
		err := fetch(t, th.NewMockRoundTripper(jsonResponse(http.StatusNotFound, `{}`), nil))
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("Expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Transport Failure Is Upstream Unavailable", func(t *testing.T) {
		err := fetch(t, th.NewMockRoundTripper(nil, errors.New("connection refused")))
		if !errors.Is(err, shared.ErrUpstreamUnavailable) {
			t.Errorf("Expected ErrUpstreamUnavailable, got %v", err)
		}
	})

	t.Run("Developer Token Failure Surfaces", func(t *testing.T) {
		service := NewAppleMusicService(
			&th.MockTokenSource{Err: shared.ErrMissingCredentials},
			nil, AppleMusicOpts{RateLimit: 1000})

		_, err := service.RecentPlayedTracks(context.Background(), "mut-user-1", 10)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("Expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestCatalogSongs(t *testing.T) {
	t.Run("Empty IDs Skip Request", func(t *testing.T) {
		rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
			t.Error("Expected no request for empty id list")
			return jsonResponse(http.StatusOK, `{"data": []}`), nil
		})
		service := newTestService(rt)

		songs, err := service.CatalogSongs(context.Background(), "us", nil)
		if err != nil || songs != nil {
			t.Errorf("Expected nil result for empty ids, got %v, %v", songs, err)
		}
	})

	t.Run("Defaults Storefront", func(t *testing.T) {
		var path string
		rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
			path = r.URL.Path
			return jsonResponse(http.StatusOK, `{"data": []}`), nil
		})
		service := newTestService(rt)

		if _, err := service.CatalogSongs(context.Background(), "", []string{"s1"}); err != nil {
			t.Fatalf("Failed to fetch catalog: %v", err)
		}
		if !strings.Contains(path, "/catalog/us/songs") {
			t.Errorf("Expected default us storefront in path, got %q", path)
		}
	})

	t.Run("Batches Large ID Lists", func(t *testing.T) {
		ids := make([]string, 150)
		for i := range ids {
			ids[i] = "song"
		}

		requests := 0
		rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
			requests++
			return jsonResponse(http.StatusOK, `{"data": [{"id": "song", "type": "songs"}]}`), nil
		})
		service := newTestService(rt)

		songs, err := service.CatalogSongs(context.Background(), "us", ids)
		if err != nil {
			t.Fatalf("Failed to fetch catalog: %v", err)
		}
		if requests != 2 {
			t.Errorf("Expected 2 batched requests for 150 ids, got %d", requests)
		}
		if len(songs) != 2 {
			t.Errorf("Expected combined batch results, got %d songs", len(songs))
		}
	})
}
