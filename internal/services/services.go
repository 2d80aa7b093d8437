// package services defines interfaces for interacting with the external music service
package services

import (
	"context"

	"github.com/desertthunder/amts/internal/models"
)

// ActivityProvider supplies raw listening activity for a user.
//
// Implementations resolve whatever credentials the upstream service needs for
// the given user id; callers only supply the identifier and storefront.
type ActivityProvider interface {
	// RecentActivity returns the user's recently played tracks with full
	// catalog metadata (genres, artist, album). Transient upstream failures
	// surface as shared.ErrUpstreamUnavailable, credential problems as
	// shared.ErrTokenExpired.
	RecentActivity(ctx context.Context, userID, storefront string) ([]models.TrackActivity, error)

	// Name returns the name of the upstream service (e.g., "Apple Music")
	Name() string
}

// TokenSource issues developer tokens for the upstream music service.
type TokenSource interface {
	// Token returns a valid developer token, generating one if needed.
	Token() (string, error)
}
