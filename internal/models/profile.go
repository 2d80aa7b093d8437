package models

import (
	"fmt"
	"time"
)

// Category identifies one of the four listening-count categories.
type Category string

const (
	CategoryGenre  Category = "genre"
	CategoryArtist Category = "artist"
	CategorySong   Category = "song"
	CategoryAlbum  Category = "album"
)

// Categories lists all categories in their fixed vector order.
// The order is part of the embedding schema and must never change within a schema version.
var Categories = []Category{CategoryGenre, CategoryArtist, CategorySong, CategoryAlbum}

// CategoryCounts maps item names to non-negative play/occurrence counts within one category.
// Names are unique within a category; insertion order is irrelevant.
type CategoryCounts map[string]int

// TrackActivity represents one listening-history entry after catalog lookup.
// Plays is the occurrence weight of the entry (at least 1).
type TrackActivity struct {
	SongName   string   `json:"song_name"`
	ArtistName string   `json:"artist_name"`
	AlbumName  string   `json:"album_name"`
	Genres     []string `json:"genres"`
	Plays      int      `json:"plays"`
}

// Embedding is a fixed-length L2-normalized taste vector.
//
// Two embeddings are comparable only when their schema versions match: the
// version pins the feature basis, category order, and weighting scheme.
type Embedding struct {
	SchemaVersion int       `json:"schema_version"`
	Dims          []float64 `json:"dims"`
}

// IsEmpty reports whether the embedding is the zero vector (no usable signal).
func (e Embedding) IsEmpty() bool {
	for _, v := range e.Dims {
		if v != 0 {
			return false
		}
	}
	return true
}

// TopSummary holds up to N item names per category, ordered by count
// descending with name-ascending tie breaks. Display data only: the numeric
// score never reads it.
type TopSummary struct {
	Genres  []string `json:"genres"`
	Artists []string `json:"artists"`
	Songs   []string `json:"songs"`
	Albums  []string `json:"albums"`
}

// ForCategory returns the summary list for the given category.
func (s TopSummary) ForCategory(c Category) []string {
	switch c {
	case CategoryGenre:
		return s.Genres
	case CategoryArtist:
		return s.Artists
	case CategorySong:
		return s.Songs
	case CategoryAlbum:
		return s.Albums
	default:
		return nil
	}
}

// TasteProfile is the per-user record owned by the profile store.
// Created on first successful sync, fully overwritten on every subsequent
// sync, never partially updated.
type TasteProfile struct {
	UserID         string     `json:"user_id"`
	Storefront     string     `json:"storefront"`
	Embedding      Embedding  `json:"embedding"`
	TopSummary     TopSummary `json:"top_summary"`
	SongsProcessed int        `json:"songs_processed"`
	LastSyncedAt   time.Time  `json:"last_synced_at"`
}

// Validate checks the profile invariants before persistence.
func (p *TasteProfile) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if p.Embedding.SchemaVersion <= 0 {
		return fmt.Errorf("embedding schema version is required")
	}
	if len(p.Embedding.Dims) == 0 {
		return fmt.Errorf("embedding has no dimensions")
	}
	if p.SongsProcessed < 0 {
		return fmt.Errorf("songs processed cannot be negative")
	}
	return nil
}

// SimilarityCandidate is a read-only projection built per ranking query.
type SimilarityCandidate struct {
	UserID            string   `json:"userId"`
	SimilarityPercent int      `json:"similarityPercent"`
	TopGenres         []string `json:"topGenres"`
	TopArtists        []string `json:"topArtists"`
}

// CommonInterests lists the shared item names per category.
// Empty categories hold empty slices, never nil.
type CommonInterests struct {
	Genres  []string `json:"genres"`
	Artists []string `json:"artists"`
	Songs   []string `json:"songs"`
	Albums  []string `json:"albums"`
}

// ComparisonResult is the read-only output of a pairwise comparison.
// Both full summaries are returned verbatim for display context.
type ComparisonResult struct {
	UserID1           string          `json:"userId1"`
	UserID2           string          `json:"userId2"`
	SimilarityPercent int             `json:"similarityPercent"`
	CommonInterests   CommonInterests `json:"commonInterests"`
	Profile1Summary   TopSummary      `json:"user1Summary"`
	Profile2Summary   TopSummary      `json:"user2Summary"`
}

// SyncResult reports the outcome of a profile sync.
type SyncResult struct {
	UserID         string   `json:"userId"`
	SongsProcessed int      `json:"songsProcessed"`
	TopGenres      []string `json:"topGenres"`
}
