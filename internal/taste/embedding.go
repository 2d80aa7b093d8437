package taste

import (
	"hash/fnv"
	"math"
	"sort"

	"github.com/desertthunder/amts/internal/models"
	"github.com/desertthunder/amts/internal/shared"
)

// genreVocabularyV1 is the pinned genre basis for schema version 1. Genres
// outside the vocabulary fall into a shared "other" slot. The list and its
// order are frozen; changing either requires a new schema version.
var genreVocabularyV1 = []string{
	"Pop",
	"Rock",
	"Alternative",
	"Hip-Hop/Rap",
	"R&B/Soul",
	"Country",
	"Electronic",
	"Dance",
	"Jazz",
	"Classical",
	"Metal",
	"Indie Pop",
	"Indie Rock",
	"Folk",
	"Singer/Songwriter",
	"Latin",
	"Reggae",
	"Blues",
	"Soundtrack",
	"K-Pop",
	"J-Pop",
	"Christian & Gospel",
	"Punk",
	"House",
	"Techno",
	"Ambient",
	"Funk",
	"Soul",
	"World",
	"New Age",
	"Instrumental",
}

// SchemaConfig pins a feature basis and weighting scheme for embeddings.
//
// Vectors built under different configs are incomparable, so the whole basis
// (vocabulary, bucket sizes, category order, weights) is identified by a
// single version number that travels inside every [models.Embedding].
type SchemaConfig struct {
	Version int

	// GenreVocabulary gets one slot per entry plus a trailing "other" slot.
	// Artist, song, and album names hash into fixed bucket ranges.
	GenreVocabulary []string
	ArtistBuckets   int
	SongBuckets     int
	AlbumBuckets    int

	GenreWeight  float64
	ArtistWeight float64
	SongWeight   float64
	AlbumWeight  float64

	TopN int
}

// SchemaV1 builds the version-1 schema with weights and top-N taken from
// engine configuration. Zero or missing config values fall back to defaults.
func SchemaV1(cfg shared.EngineConfig) SchemaConfig {
	s := SchemaConfig{
		Version:         1,
		GenreVocabulary: genreVocabularyV1,
		ArtistBuckets:   64,
		SongBuckets:     128,
		AlbumBuckets:    64,
		GenreWeight:     cfg.GenreWeight,
		ArtistWeight:    cfg.ArtistWeight,
		SongWeight:      cfg.SongWeight,
		AlbumWeight:     cfg.AlbumWeight,
		TopN:            cfg.TopN,
	}

	if s.GenreWeight <= 0 {
		s.GenreWeight = 0.5
	}
	if s.ArtistWeight <= 0 {
		s.ArtistWeight = 0.3
	}
	if s.SongWeight <= 0 {
		s.SongWeight = 0.1
	}
	if s.AlbumWeight <= 0 {
		s.AlbumWeight = 0.1
	}
	if s.TopN <= 0 {
		s.TopN = 10
	}

	return s
}

// Dimensions returns the fixed vector length for this schema.
func (s SchemaConfig) Dimensions() int {
	return len(s.GenreVocabulary) + 1 + s.ArtistBuckets + s.SongBuckets + s.AlbumBuckets
}

// genreSlot maps a genre name to its vocabulary slot, or the "other" slot
// when the genre is not in the pinned vocabulary.
func (s SchemaConfig) genreSlot(name string) int {
	normalized := shared.NormalizeName(name)
	for i, genre := range s.GenreVocabulary {
		if shared.NormalizeName(genre) == normalized {
			return i
		}
	}
	return len(s.GenreVocabulary)
}

// hashSlot maps an item name to a bucket offset via FNV-1a over the
// normalized name, so casing differences land in the same bucket.
func hashSlot(name string, buckets int) int {
	h := fnv.New32a()
	h.Write([]byte(shared.NormalizeName(name)))
	return int(h.Sum32() % uint32(buckets))
}

// Build converts the four count maps into a normalized embedding, the top-N
// per-category summary, and the number of song plays processed.
//
// Slot accumulation iterates names in sorted order so repeated builds from the
// same counts produce bit-identical vectors. The weighted vector is scaled to
// unit length; when every count is zero the vector stays zero rather than
// dividing by zero.
func Build(counts map[models.Category]models.CategoryCounts, schema SchemaConfig) (models.Embedding, models.TopSummary, int) {
	dims := make([]float64, schema.Dimensions())

	genreBase := 0
	artistBase := len(schema.GenreVocabulary) + 1
	songBase := artistBase + schema.ArtistBuckets
	albumBase := songBase + schema.SongBuckets

	accumulate := func(category models.Category, base int, slot func(string) int, weight float64) {
		names := sortedNames(counts[category])
		for _, name := range names {
			dims[base+slot(name)] += float64(counts[category][name]) * weight
		}
	}

	accumulate(models.CategoryGenre, genreBase, schema.genreSlot, schema.GenreWeight)
	accumulate(models.CategoryArtist, artistBase, func(n string) int { return hashSlot(n, schema.ArtistBuckets) }, schema.ArtistWeight)
	accumulate(models.CategorySong, songBase, func(n string) int { return hashSlot(n, schema.SongBuckets) }, schema.SongWeight)
	accumulate(models.CategoryAlbum, albumBase, func(n string) int { return hashSlot(n, schema.AlbumBuckets) }, schema.AlbumWeight)

	var sumSquares float64
	for _, v := range dims {
		sumSquares += v * v
	}
	if sumSquares > 0 {
		norm := math.Sqrt(sumSquares)
		for i := range dims {
			dims[i] /= norm
		}
	}

	summary := models.TopSummary{
		Genres:  topN(counts[models.CategoryGenre], schema.TopN),
		Artists: topN(counts[models.CategoryArtist], schema.TopN),
		Songs:   topN(counts[models.CategorySong], schema.TopN),
		Albums:  topN(counts[models.CategoryAlbum], schema.TopN),
	}

	songsProcessed := 0
	for _, c := range counts[models.CategorySong] {
		songsProcessed += c
	}

	return models.Embedding{SchemaVersion: schema.Version, Dims: dims}, summary, songsProcessed
}

// topN returns up to n item names ranked by count descending, ties broken by
// name ascending. Always returns a non-nil slice.
func topN(counts models.CategoryCounts, n int) []string {
	names := sortedNames(counts)
	sort.SliceStable(names, func(i, j int) bool {
		return counts[names[i]] > counts[names[j]]
	})

	if len(names) > n {
		names = names[:n]
	}
	return names
}

// sortedNames returns the map's keys in ascending order.
func sortedNames(counts models.CategoryCounts) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
