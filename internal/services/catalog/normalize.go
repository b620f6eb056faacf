package catalog

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"norelock.dev/mediagate/backend/internal/models"
)

const (
	// PlaceholderCoverURL is used when a manga has no cover art relationship.
	PlaceholderCoverURL = "https://mangadex.org/_nuxt/img/cover-placeholder.d12c3c5.jpg"

	// SearchDefaultTitle is the title of an untitled search result.
	SearchDefaultTitle = "No Title"

	// HomeDefaultTitle is the title of an untitled home listing entry.
	HomeDefaultTitle = "Unknown"

	coverBaseURL = "https://uploads.mangadex.org/covers"
	english      = "en"
)

// NormalizeManga maps a raw record to a CatalogItem. It never fails and never performs I/O.
func NormalizeManga(m MangaRecord, defaultTitle string) models.CatalogItem {
	attr := m.Attributes

	tags := make([]string, 0, len(attr.Tags))
	// Any tag with an English key is kept, even when the name is empty
	for _, t := range attr.Tags {
		if name, ok := t.Attributes.Name.Lookup(english); ok {
			tags = append(tags, name)
		}
	}

	return models.CatalogItem{
		ID:          m.ID,
		Title:       resolveTitle(attr.Title, defaultTitle),
		Description: attr.Description.Get(english),
		Status:      attr.Status,
		Year:        attr.Year,
		Tags:        tags,
		CoverURL:    CoverURL(m.ID, m.Relationships),
	}
}

// NormalizeMangaList normalizes records in order.
func NormalizeMangaList(records []MangaRecord, defaultTitle string) []models.CatalogItem {
	return lo.Map(records, func(m MangaRecord, _ int) models.CatalogItem {
		return NormalizeManga(m, defaultTitle)
	})
}

// CoverURL builds the cover image URL from the first cover_art relationship carrying a file
// name, or returns the placeholder.
func CoverURL(mangaID string, relationships []Relationship) string {
	for _, rel := range relationships {
		if rel.Type != "cover_art" || rel.Attributes == nil || rel.Attributes.FileName == "" {
			continue
		}
		return fmt.Sprintf("%s/%s/%s", coverBaseURL, mangaID, rel.Attributes.FileName)
	}
	return PlaceholderCoverURL
}

func resolveTitle(title LocalizedString, defaultTitle string) string {
	if en := title.Get(english); strings.TrimSpace(en) != "" {
		return en
	}
	if first := title.FirstNonEmpty(); first != "" {
		return first
	}
	return defaultTitle
}

// NormalizeChapters maps a chapter feed in upstream order. No deduplication is applied.
func NormalizeChapters(records []ChapterRecord) []models.ChapterSummary {
	return lo.Map(records, func(c ChapterRecord, _ int) models.ChapterSummary {
		return models.ChapterSummary{
			ID:       c.ID,
			Chapter:  c.Attributes.Chapter,
			Title:    c.Attributes.Title,
			Language: c.Attributes.TranslatedLanguage,
		}
	})
}

// BuildPageList joins the session base URL, content hash and each file name in upstream order.
func BuildPageList(chapterID string, session *AtHomeRecord) models.PageList {
	base := strings.TrimRight(session.BaseURL, "/")
	pages := make([]string, 0, len(session.Chapter.Data))
	for _, file := range session.Chapter.Data {
		pages = append(pages, fmt.Sprintf("%s/data/%s/%s", base, session.Chapter.Hash, file))
	}
	return models.PageList{ParentID: chapterID, Pages: pages}
}
