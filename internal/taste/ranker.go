package taste

import (
	"math"
	"sort"

	"github.com/desertthunder/amts/internal/models"
)

const (
	rankTopGenres  = 4
	rankTopArtists = 3
)

// Cosine computes the cosine similarity of two embeddings, clamped to [-1, 1].
// Stored embeddings are unit length, so this is a plain dot product. Vectors
// of different lengths or schema versions are incomparable and score -1 so
// callers filter them out before mapping to a percentage.
func Cosine(a, b models.Embedding) float64 {
	if a.SchemaVersion != b.SchemaVersion || len(a.Dims) != len(b.Dims) {
		return -1
	}

	var dot float64
	for i := range a.Dims {
		dot += a.Dims[i] * b.Dims[i]
	}

	return math.Max(-1, math.Min(1, dot))
}

// Percent maps a cosine similarity to a display percentage. Negative cosine
// (opposing taste) floors at 0, never reported as negative.
func Percent(cos float64) int {
	return int(math.Round(math.Max(0, cos) * 100))
}

// rankCandidates scores every candidate profile against the target and
// returns the ordered, truncated, decorated result. Empty and
// schema-mismatched candidates are skipped entirely.
func rankCandidates(target *models.TasteProfile, others []*models.TasteProfile, limit, minPercent int) []models.SimilarityCandidate {
	candidates := make([]models.SimilarityCandidate, 0, len(others))

	for _, other := range others {
		if other.Embedding.IsEmpty() {
			continue
		}
		if other.Embedding.SchemaVersion != target.Embedding.SchemaVersion {
			continue
		}

		percent := Percent(Cosine(target.Embedding, other.Embedding))
		if percent < minPercent {
			continue
		}

		candidates = append(candidates, models.SimilarityCandidate{
			UserID:            other.UserID,
			SimilarityPercent: percent,
			TopGenres:         truncate(other.TopSummary.Genres, rankTopGenres),
			TopArtists:        truncate(other.TopSummary.Artists, rankTopArtists),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].SimilarityPercent != candidates[j].SimilarityPercent {
			return candidates[i].SimilarityPercent > candidates[j].SimilarityPercent
		}
		return candidates[i].UserID < candidates[j].UserID
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return candidates
}

// truncate returns at most n items, never nil.
func truncate(items []string, n int) []string {
	if items == nil {
		return []string{}
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}
