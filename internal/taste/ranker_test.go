package taste

import (
	"testing"

	"github.com/desertthunder/amts/internal/models"
)

// unitProfile builds a stored profile with a hand-made unit vector.
func unitProfile(userID string, dims []float64) *models.TasteProfile {
	return &models.TasteProfile{
		UserID:    userID,
		Embedding: models.Embedding{SchemaVersion: 1, Dims: dims},
		TopSummary: models.TopSummary{
			Genres:  []string{"Pop", "Rock", "Jazz", "Blues", "Funk"},
			Artists: []string{"A1", "A2", "A3", "A4"},
			Songs:   []string{},
			Albums:  []string{},
		},
	}
}

func TestCosine(t *testing.T) {
	t.Run("Symmetric", func(t *testing.T) {
		a := models.Embedding{SchemaVersion: 1, Dims: []float64{0.6, 0.8, 0}}
		b := models.Embedding{SchemaVersion: 1, Dims: []float64{0, 0.8, 0.6}}

		if Cosine(a, b) != Cosine(b, a) {
			t.Errorf("cosine must be symmetric: %f vs %f", Cosine(a, b), Cosine(b, a))
		}
	})

	t.Run("IdenticalVectors", func(t *testing.T) {
		a := models.Embedding{SchemaVersion: 1, Dims: []float64{0.6, 0.8}}

		if got := Percent(Cosine(a, a)); got != 100 {
			t.Errorf("expected 100%% for identical vectors, got %d%%", got)
		}
	})

	t.Run("OpposingTasteFloorsAtZero", func(t *testing.T) {
		a := models.Embedding{SchemaVersion: 1, Dims: []float64{1, 0}}
		b := models.Embedding{SchemaVersion: 1, Dims: []float64{-1, 0}}

		if cos := Cosine(a, b); cos != -1 {
			t.Errorf("expected cosine -1, got %f", cos)
		}
		if got := Percent(Cosine(a, b)); got != 0 {
			t.Errorf("negative cosine must floor at 0%%, got %d%%", got)
		}
	})

	t.Run("SchemaMismatchIncomparable", func(t *testing.T) {
		a := models.Embedding{SchemaVersion: 1, Dims: []float64{1, 0}}
		b := models.Embedding{SchemaVersion: 2, Dims: []float64{1, 0}}

		if cos := Cosine(a, b); cos != -1 {
			t.Errorf("expected mismatched schemas to score -1, got %f", cos)
		}
	})
}

func TestRankCandidates(t *testing.T) {
	target := unitProfile("target", []float64{1, 0, 0})

	t.Run("SortedAndBounded", func(t *testing.T) {
		others := []*models.TasteProfile{
			unitProfile("user-far", []float64{0, 1, 0}),
			unitProfile("user-close", []float64{0.9486832980505138, 0.31622776601683794, 0}),
			unitProfile("user-mid", []float64{0.7071067811865476, 0.7071067811865476, 0}),
		}

		candidates := rankCandidates(target, others, 10, 0)

		if len(candidates) != 3 {
			t.Fatalf("expected 3 candidates, got %d", len(candidates))
		}
		for i := 1; i < len(candidates); i++ {
			if candidates[i].SimilarityPercent > candidates[i-1].SimilarityPercent {
				t.Errorf("result not sorted non-increasing at index %d", i)
			}
		}
		for _, c := range candidates {
			if c.SimilarityPercent < 0 || c.SimilarityPercent > 100 {
				t.Errorf("candidate %s has out-of-range percent %d", c.UserID, c.SimilarityPercent)
			}
		}
		if candidates[0].UserID != "user-close" {
			t.Errorf("expected user-close first, got %s", candidates[0].UserID)
		}
	})

	t.Run("TieBreakByUserID", func(t *testing.T) {
		dims := []float64{0.7071067811865476, 0.7071067811865476, 0}
		others := []*models.TasteProfile{
			unitProfile("user-b", dims),
			unitProfile("user-a", dims),
		}

		candidates := rankCandidates(target, others, 10, 0)

		if candidates[0].UserID != "user-a" || candidates[1].UserID != "user-b" {
			t.Errorf("expected tie broken by user id ascending, got [%s %s]",
				candidates[0].UserID, candidates[1].UserID)
		}
	})

	t.Run("MinPercentFilters", func(t *testing.T) {
		others := []*models.TasteProfile{
			unitProfile("user-orthogonal", []float64{0, 1, 0}),
			unitProfile("user-identical", []float64{1, 0, 0}),
		}

		candidates := rankCandidates(target, others, 10, 50)

		if len(candidates) != 1 {
			t.Fatalf("expected 1 candidate above 50%%, got %d", len(candidates))
		}
		for _, c := range candidates {
			if c.SimilarityPercent < 50 {
				t.Errorf("candidate %s below minPercent: %d", c.UserID, c.SimilarityPercent)
			}
		}
	})

	t.Run("SkipsEmptyAndMismatched", func(t *testing.T) {
		empty := unitProfile("user-empty", make([]float64, 3))
		mismatched := unitProfile("user-old-schema", []float64{1, 0, 0})
		mismatched.Embedding.SchemaVersion = 99

		candidates := rankCandidates(target, []*models.TasteProfile{empty, mismatched}, 10, 0)

		if len(candidates) != 0 {
			t.Errorf("expected empty and mismatched profiles skipped, got %v", candidates)
		}
	})

	t.Run("TruncatesToLimit", func(t *testing.T) {
		others := []*models.TasteProfile{
			unitProfile("user-1", []float64{1, 0, 0}),
			unitProfile("user-2", []float64{1, 0, 0}),
			unitProfile("user-3", []float64{1, 0, 0}),
		}

		candidates := rankCandidates(target, others, 2, 0)

		if len(candidates) != 2 {
			t.Errorf("expected limit 2 enforced, got %d", len(candidates))
		}
	})

	t.Run("DecoratesTopItems", func(t *testing.T) {
		others := []*models.TasteProfile{unitProfile("user-1", []float64{1, 0, 0})}

		candidates := rankCandidates(target, others, 10, 0)

		if len(candidates[0].TopGenres) != 4 {
			t.Errorf("expected at most 4 top genres, got %d", len(candidates[0].TopGenres))
		}
		if len(candidates[0].TopArtists) != 3 {
			t.Errorf("expected at most 3 top artists, got %d", len(candidates[0].TopArtists))
		}
	})

	t.Run("EmptyPopulation", func(t *testing.T) {
		candidates := rankCandidates(target, nil, 10, 0)
		if candidates == nil || len(candidates) != 0 {
			t.Errorf("expected empty non-nil result, got %v", candidates)
		}
	})
}
