// package formatter provides functions to export similarity and comparison reports to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/amts/internal/models"
	"github.com/desertthunder/amts/internal/shared"
)

// RankingToCSV converts similarity candidates to CSV with columns: Rank, UserID, Similarity, TopGenres, TopArtists
func RankingToCSV(candidates []models.SimilarityCandidate) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Rank", "UserID", "Similarity", "TopGenres", "TopArtists"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, candidate := range candidates {
		record := []string{
			strconv.Itoa(i + 1),
			candidate.UserID,
			strconv.Itoa(candidate.SimilarityPercent),
			strings.Join(candidate.TopGenres, "; "),
			strings.Join(candidate.TopArtists, "; "),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// RankingToMarkdown converts similarity candidates to a Markdown table.
func RankingToMarkdown(targetUserID string, candidates []models.SimilarityCandidate) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Similar listeners for %s\n\n", targetUserID))
	buf.WriteString(fmt.Sprintf("**Candidates**: %d\n\n", len(candidates)))

	if len(candidates) == 0 {
		buf.WriteString("No similar listeners found.\n")
		return buf.Bytes()
	}

	buf.WriteString("| # | User | Similarity | Top Genres | Top Artists |\n")
	buf.WriteString("|---|------|------------|------------|-------------|\n")
	for i, candidate := range candidates {
		buf.WriteString(fmt.Sprintf("| %d | %s | %d%% | %s | %s |\n",
			i+1,
			candidate.UserID,
			candidate.SimilarityPercent,
			strings.Join(candidate.TopGenres, ", "),
			strings.Join(candidate.TopArtists, ", "),
		))
	}

	return buf.Bytes()
}

// RankingToText converts similarity candidates to plain text.
func RankingToText(targetUserID string, candidates []models.SimilarityCandidate) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Similar listeners for %s (%d found)\n\n", targetUserID, len(candidates)))
	for i, candidate := range candidates {
		buf.WriteString(fmt.Sprintf("%d. %s - %d%%\n", i+1, candidate.UserID, candidate.SimilarityPercent))
		if len(candidate.TopGenres) > 0 {
			buf.WriteString(fmt.Sprintf("   genres: %s\n", strings.Join(candidate.TopGenres, ", ")))
		}
		if len(candidate.TopArtists) > 0 {
			buf.WriteString(fmt.Sprintf("   artists: %s\n", strings.Join(candidate.TopArtists, ", ")))
		}
	}

	return buf.Bytes()
}

// ComparisonToMarkdown converts a pairwise comparison to Markdown with per-category overlap sections.
func ComparisonToMarkdown(result *models.ComparisonResult) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s vs %s\n\n", result.UserID1, result.UserID2))
	buf.WriteString(fmt.Sprintf("**Similarity**: %d%%\n\n", result.SimilarityPercent))

	buf.WriteString("## Common interests\n\n")
	writeOverlapSection(&buf, "Genres", result.CommonInterests.Genres)
	writeOverlapSection(&buf, "Artists", result.CommonInterests.Artists)
	writeOverlapSection(&buf, "Songs", result.CommonInterests.Songs)
	writeOverlapSection(&buf, "Albums", result.CommonInterests.Albums)

	return buf.Bytes()
}

func writeOverlapSection(buf *bytes.Buffer, title string, items []string) {
	buf.WriteString(fmt.Sprintf("### %s\n\n", title))
	if len(items) == 0 {
		buf.WriteString("_none_\n\n")
		return
	}
	for _, item := range items {
		buf.WriteString(fmt.Sprintf("- %s\n", item))
	}
	buf.WriteString("\n")
}

// ComparisonToText converts a pairwise comparison to plain text.
func ComparisonToText(result *models.ComparisonResult) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s vs %s: %d%%\n\n", result.UserID1, result.UserID2, result.SimilarityPercent))

	sections := []struct {
		title string
		items []string
	}{
		{"Common genres", result.CommonInterests.Genres},
		{"Common artists", result.CommonInterests.Artists},
		{"Common songs", result.CommonInterests.Songs},
		{"Common albums", result.CommonInterests.Albums},
	}
	for _, section := range sections {
		if len(section.items) == 0 {
			buf.WriteString(fmt.Sprintf("%s: none\n", section.title))
			continue
		}
		buf.WriteString(fmt.Sprintf("%s: %s\n", section.title, strings.Join(section.items, ", ")))
	}

	return buf.Bytes()
}

// ToJSON generates an indented JSON representation of any report payload
func ToJSON(payload any) ([]byte, error) {
	return shared.MarshalJSON(payload, true)
}

// WriteRankingCSV exports a ranking to {base}_similar.csv.
//
// Defaults to the target user id as the base filename.
func WriteRankingCSV(targetUserID string, candidates []models.SimilarityCandidate, baseFilepath string) (string, error) {
	if baseFilepath == "" {
		baseFilepath = targetUserID
	}

	csvData, err := RankingToCSV(candidates)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	filename := baseFilepath + "_similar.csv"
	if err := os.WriteFile(filename, csvData, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return filename, nil
}
