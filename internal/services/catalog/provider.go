// Package catalog provides manga search, listing, chapter feeds and page lists resolved
// against interchangeable upstream catalog endpoints.
package catalog

import (
	"context"
)

// Provider defines the interface for catalog providers. Each implementation is bound to one
// upstream endpoint and performs exactly one upstream call per method.
type Provider interface {
	// SearchManga searches manga by title.
	SearchManga(ctx context.Context, title string, limit int) ([]MangaRecord, error)

	// PopularManga lists manga ordered by follower count, most followed first.
	PopularManga(ctx context.Context) ([]MangaRecord, error)

	// ChapterFeed lists the English chapters of a manga in ascending chapter order.
	ChapterFeed(ctx context.Context, mangaID string, limit int) ([]ChapterRecord, error)

	// AtHomeServer returns the page-delivery session for a chapter.
	AtHomeServer(ctx context.Context, chapterID string) (*AtHomeRecord, error)

	// Name identifies the provider in diagnostics and metrics.
	Name() string
}
