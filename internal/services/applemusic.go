// Apple Music API implementation of [ActivityProvider]
//
// Response types based on https://developer.apple.com/documentation/applemusicapi
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/amts/internal/models"
	"github.com/desertthunder/amts/internal/shared"
	"golang.org/x/time/rate"
)

const (
	appleMusicBaseURL = "https://api.music.apple.com/v1"

	// catalogBatchSize is the maximum number of song ids per catalog request.
	catalogBatchSize = 100

	defaultRecentLimit = 30
	requestTimeout     = 15 * time.Second
)

// SongAttributes holds the catalog metadata the taste engine reads.
type SongAttributes struct {
	Name             string   `json:"name"`
	ArtistName       string   `json:"artistName"`
	AlbumName        string   `json:"albumName"`
	GenreNames       []string `json:"genreNames"`
	DurationInMillis int      `json:"durationInMillis"`
	ReleaseDate      string   `json:"releaseDate"`
}

// Song represents a song resource from the history or catalog endpoints.
type Song struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Attributes SongAttributes `json:"attributes"`
}

// songCollection is the envelope for song list responses.
type songCollection struct {
	Data []Song  `json:"data"`
	Next *string `json:"next"`
}

// UserTokenFunc resolves the Music-User-Token for a user id.
type UserTokenFunc func(ctx context.Context, userID string) (string, error)

// AppleMusicService implements [ActivityProvider] for the Apple Music API.
//
// Every request carries the developer token; user-scoped endpoints add the
// Music-User-Token header resolved through the configured [UserTokenFunc].
type AppleMusicService struct {
	tokens      TokenSource
	userToken   UserTokenFunc
	httpClient  *http.Client
	baseURL     string
	limiter     *rate.Limiter
	recentLimit int
}

// AppleMusicOpts contains optional settings for [NewAppleMusicService].
type AppleMusicOpts struct {
	HTTPClient  *http.Client
	BaseURL     string
	RecentLimit int     // Recently played tracks fetched per sync (default 30)
	RateLimit   float64 // Requests per second (default 5)
}

// NewAppleMusicService creates an Apple Music client.
func NewAppleMusicService(tokens TokenSource, userToken UserTokenFunc, opts AppleMusicOpts) *AppleMusicService {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: requestTimeout}
	}
	if opts.BaseURL == "" {
		opts.BaseURL = appleMusicBaseURL
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = defaultRecentLimit
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	return &AppleMusicService{
		tokens:      tokens,
		userToken:   userToken,
		httpClient:  opts.HTTPClient,
		baseURL:     opts.BaseURL,
		limiter:     rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		recentLimit: opts.RecentLimit,
	}
}

func (s *AppleMusicService) Name() string {
	return "Apple Music"
}

// doRequest performs an authenticated GET against the Apple Music API.
// musicUserToken may be empty for catalog (developer-scoped) endpoints.
func (s *AppleMusicService) doRequest(ctx context.Context, endpoint, musicUserToken string, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}

	devToken, err := s.tokens.Token()
	if err != nil {
		return fmt.Errorf("failed to obtain developer token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+devToken)
	req.Header.Set("Content-Type", "application/json")
	if musicUserToken != "" {
		req.Header.Set("Music-User-Token", musicUserToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: apple music returned status %d", shared.ErrTokenExpired, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: apple music returned status %d", shared.ErrUpstreamUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: apple music returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// RecentPlayedTracks retrieves the user's recently played tracks.
func (s *AppleMusicService) RecentPlayedTracks(ctx context.Context, musicUserToken string, limit int) ([]Song, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	endpoint := fmt.Sprintf("/me/recent/played/tracks?limit=%d", limit)

	var response songCollection
	if err := s.doRequest(ctx, endpoint, musicUserToken, &response); err != nil {
		return nil, err
	}

	return response.Data, nil
}

// CatalogSongs retrieves full catalog metadata for the given song ids.
// History entries lack genre names, so every sync round-trips through here.
func (s *AppleMusicService) CatalogSongs(ctx context.Context, storefront string, ids []string) ([]Song, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if storefront == "" {
		storefront = "us"
	}

	var songs []Song
	for start := 0; start < len(ids); start += catalogBatchSize {
		end := start + catalogBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		endpoint := fmt.Sprintf("/catalog/%s/songs?ids=%s",
			url.PathEscape(storefront), url.QueryEscape(strings.Join(ids[start:end], ",")))

		var response songCollection
		if err := s.doRequest(ctx, endpoint, "", &response); err != nil {
			return nil, err
		}

		songs = append(songs, response.Data...)
	}

	return songs, nil
}

// RecentActivity implements [ActivityProvider].
//
// Fetches the recent-played history, counts repeated plays of the same song,
// and resolves catalog metadata so each entry carries its genre names.
func (s *AppleMusicService) RecentActivity(ctx context.Context, userID, storefront string) ([]models.TrackActivity, error) {
	if s.userToken == nil {
		return nil, fmt.Errorf("%w: no user token resolver configured", shared.ErrNotAuthenticated)
	}

	musicUserToken, err := s.userToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	if musicUserToken == "" {
		return nil, fmt.Errorf("%w: no stored token for user %s", shared.ErrNotAuthenticated, userID)
	}

	recent, err := s.RecentPlayedTracks(ctx, musicUserToken, s.recentLimit)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return nil, nil
	}

	// A song appearing multiple times in the history is multiple plays.
	plays := make(map[string]int)
	order := make([]string, 0, len(recent))
	for _, song := range recent {
		if song.ID == "" {
			continue
		}
		if plays[song.ID] == 0 {
			order = append(order, song.ID)
		}
		plays[song.ID]++
	}

	catalog, err := s.CatalogSongs(ctx, storefront, order)
	if err != nil {
		return nil, err
	}

	activity := make([]models.TrackActivity, 0, len(catalog))
	for _, song := range catalog {
		count := plays[song.ID]
		if count == 0 {
			count = 1
		}
		activity = append(activity, models.TrackActivity{
			SongName:   song.Attributes.Name,
			ArtistName: song.Attributes.ArtistName,
			AlbumName:  song.Attributes.AlbumName,
			Genres:     song.Attributes.GenreNames,
			Plays:      count,
		})
	}

	return activity, nil
}
