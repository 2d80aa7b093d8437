package taste

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/amts/internal/models"
	"github.com/desertthunder/amts/internal/services"
	"github.com/desertthunder/amts/internal/shared"
)

// ProfileStore persists taste profiles. The engine is the only writer; writes
// are atomic full replaces so concurrent reads never observe a partial record.
type ProfileStore interface {
	// Put creates or fully replaces the profile for its user id.
	Put(profile *models.TasteProfile) error

	// Get returns the stored profile or wraps shared.ErrProfileNotFound.
	Get(userID string) (*models.TasteProfile, error)

	// ScanAll returns every profile except excludeUserID in deterministic
	// order, re-reading current state on each call.
	ScanAll(excludeUserID string) ([]*models.TasteProfile, error)
}

// Engine runs the sync pipeline and answers similarity queries.
// It holds no per-request state; all durable state lives in the store.
type Engine struct {
	provider services.ActivityProvider
	store    ProfileStore
	schema   SchemaConfig

	rankLimit  int
	minPercent int

	logger *log.Logger
}

// NewEngine creates an Engine wired to an activity provider and profile store,
// with schema and ranking defaults taken from engine configuration.
func NewEngine(provider services.ActivityProvider, store ProfileStore, cfg shared.EngineConfig, logger *log.Logger) *Engine {
	rankLimit := cfg.RankLimit
	if rankLimit <= 0 {
		rankLimit = 20
	}
	minPercent := cfg.MinPercent
	if minPercent < 0 {
		minPercent = 0
	}

	return &Engine{
		provider:   provider,
		store:      store,
		schema:     SchemaV1(cfg),
		rankLimit:  rankLimit,
		minPercent: minPercent,
		logger:     logger,
	}
}

// Sync fetches the user's recent activity, rebuilds their taste profile, and
// fully replaces the stored record. An empty activity payload still succeeds:
// the stored embedding is the zero vector and songsProcessed is 0.
func (e *Engine) Sync(ctx context.Context, userID, storefront string) (*models.SyncResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", shared.ErrInvalidArgument)
	}

	activity, err := e.provider.RecentActivity(ctx, userID, storefront)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activity for %s: %w", userID, err)
	}

	counts, err := Normalize(activity)
	if err != nil {
		return nil, err
	}

	embedding, summary, songsProcessed := Build(counts, e.schema)

	profile := &models.TasteProfile{
		UserID:         userID,
		Storefront:     storefront,
		Embedding:      embedding,
		TopSummary:     summary,
		SongsProcessed: songsProcessed,
		LastSyncedAt:   time.Now(),
	}

	if err := e.store.Put(profile); err != nil {
		return nil, fmt.Errorf("failed to store profile for %s: %w", userID, err)
	}

	return &models.SyncResult{
		UserID:         userID,
		SongsProcessed: songsProcessed,
		TopGenres:      summary.Genres,
	}, nil
}

// SyncAll re-syncs every given user, typically at server startup. Per-user
// failures are logged and skipped, never fatal; the count of successful syncs
// is returned. Stops early if the context is canceled.
func (e *Engine) SyncAll(ctx context.Context, users []*models.User) int {
	synced := 0
	for _, user := range users {
		if ctx.Err() != nil {
			e.logger.Warn("resync canceled", "synced", synced, "remaining", len(users)-synced)
			return synced
		}

		result, err := e.Sync(ctx, user.ID(), user.Storefront())
		if err != nil {
			e.logger.Error("resync failed", "user", user.ID(), "error", err)
			continue
		}

		e.logger.Info("resynced profile", "user", user.ID(), "songs", result.SongsProcessed)
		synced++
	}
	return synced
}

// Rank scores every other stored profile against the target user and returns
// the ordered candidate list. Zero or negative limit and out-of-range
// minPercent fall back to the engine defaults.
//
// Fails with [shared.ErrProfileNotFound] when the target has never synced and
// [shared.ErrEmptyProfile] when the target synced with no listening activity.
// An empty candidate list is a valid result, not an error.
func (e *Engine) Rank(targetUserID string, limit, minPercent int) ([]models.SimilarityCandidate, error) {
	target, err := e.store.Get(targetUserID)
	if err != nil {
		return nil, err
	}
	if target.Embedding.IsEmpty() {
		return nil, fmt.Errorf("%w: %s has no listening activity", shared.ErrEmptyProfile, targetUserID)
	}

	if limit <= 0 {
		limit = e.rankLimit
	}
	if minPercent < 0 || minPercent > 100 {
		minPercent = e.minPercent
	}

	others, err := e.store.ScanAll(targetUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to scan profiles: %w", err)
	}

	return rankCandidates(target, others, limit, minPercent), nil
}

// Compare scores one pair of users and lists their shared interests.
// Comparing a user with themselves yields 100%.
func (e *Engine) Compare(userIDA, userIDB string) (*models.ComparisonResult, error) {
	profileA, err := e.store.Get(userIDA)
	if err != nil {
		return nil, err
	}

	profileB := profileA
	if userIDB != userIDA {
		profileB, err = e.store.Get(userIDB)
		if err != nil {
			return nil, err
		}
	}

	if profileA.Embedding.IsEmpty() {
		return nil, fmt.Errorf("%w: %s has no listening activity", shared.ErrEmptyProfile, userIDA)
	}
	if profileB.Embedding.IsEmpty() {
		return nil, fmt.Errorf("%w: %s has no listening activity", shared.ErrEmptyProfile, userIDB)
	}

	return compareProfiles(profileA, profileB)
}
