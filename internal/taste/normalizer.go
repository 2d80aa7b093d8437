package taste

import (
	"fmt"

	"github.com/desertthunder/amts/internal/models"
	"github.com/desertthunder/amts/internal/shared"
)

// Normalize converts raw listening-history entries into the four per-category
// count maps that feed the embedding builder.
//
// Every entry must name its song; an entry without a song name makes the whole
// payload invalid. Artist and album are optional and simply skipped when
// absent. A track tagged with multiple genres adds its full play weight to
// every one of them, so a heavily tagged track legitimately boosts several
// genres at once. Counts accumulate without capping.
func Normalize(activity []models.TrackActivity) (map[models.Category]models.CategoryCounts, error) {
	counts := map[models.Category]models.CategoryCounts{
		models.CategoryGenre:  {},
		models.CategoryArtist: {},
		models.CategorySong:   {},
		models.CategoryAlbum:  {},
	}

	for i, entry := range activity {
		if entry.SongName == "" {
			return nil, fmt.Errorf("%w: entry %d has no song name", shared.ErrInvalidActivityData, i)
		}
		if entry.Plays < 0 {
			return nil, fmt.Errorf("%w: entry %d has negative play count %d", shared.ErrInvalidActivityData, i, entry.Plays)
		}

		plays := entry.Plays
		if plays == 0 {
			// Entries without an explicit play count count once.
			plays = 1
		}

		counts[models.CategorySong][entry.SongName] += plays

		if entry.ArtistName != "" {
			counts[models.CategoryArtist][entry.ArtistName] += plays
		}
		if entry.AlbumName != "" {
			counts[models.CategoryAlbum][entry.AlbumName] += plays
		}
		for _, genre := range entry.Genres {
			if genre == "" {
				continue
			}
			counts[models.CategoryGenre][genre] += plays
		}
	}

	return counts, nil
}
