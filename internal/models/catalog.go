// Package models contains the data structures returned by the gateway.
package models

// CatalogItem is a normalized manga record.
// Title and CoverURL are never empty once produced by the catalog normalizer.
type CatalogItem struct {
	// ID is the upstream manga identifier.
	ID string `json:"id"`

	// Title is the English title, another localized title, or a placeholder.
	Title string `json:"title"`

	// Description is the English description, or empty.
	Description string `json:"description"`

	// Status is the publication status as reported upstream.
	Status *string `json:"status"`

	// Year is the publication year as reported upstream.
	Year *int `json:"year"`

	// Tags are the English tag names in upstream order.
	Tags []string `json:"tags"`

	// CoverURL points at the cover image or the placeholder image.
	CoverURL string `json:"cover_url"`
}

// ChapterSummary is one entry of a manga's chapter feed.
type ChapterSummary struct {
	ID       string  `json:"id"`
	Chapter  *string `json:"chapter"`
	Title    *string `json:"title"`
	Language string  `json:"language"`
}

// PageList is the ordered list of page image URLs for a chapter.
// Order is reading order.
type PageList struct {
	ParentID string   `json:"parentId"`
	Pages    []string `json:"pages"`
}

// MangaSearchResponse is returned by the manga search endpoint.
type MangaSearchResponse struct {
	Query   string        `json:"query"`
	Limit   int           `json:"limit"`
	Results []CatalogItem `json:"results"`
}

// MangaHomeResponse is returned by the manga home endpoint.
type MangaHomeResponse struct {
	Results []CatalogItem `json:"results"`
}

// ChapterListResponse is returned by the chapter feed endpoint.
type ChapterListResponse struct {
	MangaID  string           `json:"manga_id"`
	Chapters []ChapterSummary `json:"chapters"`
}

// PageListResponse is returned by the chapter pages endpoint.
type PageListResponse struct {
	ChapterID string   `json:"chapter_id"`
	Pages     []string `json:"pages"`
}
