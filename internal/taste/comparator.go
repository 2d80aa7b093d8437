package taste

import (
	"fmt"

	"github.com/desertthunder/amts/internal/models"
	"github.com/desertthunder/amts/internal/shared"
)

// compareProfiles scores one pair of stored profiles and lists their shared
// interests per category. Pure function of the two profiles: same inputs,
// same result, regardless of call order.
func compareProfiles(a, b *models.TasteProfile) (*models.ComparisonResult, error) {
	if a.Embedding.SchemaVersion != b.Embedding.SchemaVersion {
		return nil, fmt.Errorf("%w: %s has schema %d, %s has schema %d",
			shared.ErrSchemaMismatch, a.UserID, a.Embedding.SchemaVersion, b.UserID, b.Embedding.SchemaVersion)
	}

	return &models.ComparisonResult{
		UserID1:           a.UserID,
		UserID2:           b.UserID,
		SimilarityPercent: Percent(Cosine(a.Embedding, b.Embedding)),
		CommonInterests: models.CommonInterests{
			Genres:  intersect(a.TopSummary.Genres, b.TopSummary.Genres),
			Artists: intersect(a.TopSummary.Artists, b.TopSummary.Artists),
			Songs:   intersect(a.TopSummary.Songs, b.TopSummary.Songs),
			Albums:  intersect(a.TopSummary.Albums, b.TopSummary.Albums),
		},
		Profile1Summary: a.TopSummary,
		Profile2Summary: b.TopSummary,
	}, nil
}

// intersect returns the names present in both lists, matched
// case-insensitively, in the order they appear in a. Never nil.
func intersect(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, name := range b {
		inB[shared.NormalizeName(name)] = true
	}

	common := []string{}
	for _, name := range a {
		if inB[shared.NormalizeName(name)] {
			common = append(common, name)
		}
	}
	return common
}
