package catalog

import (
	"context"
	"errors"

	"norelock.dev/mediagate/backend/internal/models"
	"norelock.dev/mediagate/backend/internal/services/fallback"
	"norelock.dev/mediagate/backend/internal/utils"
)

// Client-facing failure codes.
const (
	CodeSearchFailed   = "All sources failed"
	CodeHomeFailed     = "Failed to fetch home manga"
	CodeChaptersFailed = "Failed to fetch chapters"
	CodePagesFailed    = "Failed to fetch chapter pages"
)

// Service resolves catalog requests across providers in order.
type Service struct {
	providers []Provider
	resolver  *fallback.Resolver
	logger    *utils.Logger
}

// NewService creates a catalog service. Providers are tried in the given order.
func NewService(providers []Provider, resolver *fallback.Resolver, logger *utils.Logger) (*Service, error) {
	if len(providers) == 0 {
		return nil, errors.New("catalog: at least one provider is required")
	}
	if logger == nil {
		logger = utils.GetLogger()
	}
	if resolver == nil {
		resolver = fallback.NewResolver(logger)
	}
	return &Service{
		providers: providers,
		resolver:  resolver,
		logger:    logger.Named("catalog_service"),
	}, nil
}

// Search searches manga by title.
func (s *Service) Search(ctx context.Context, query string, limit int) (*models.MangaSearchResponse, error) {
	s.logger.Debug("Searching manga", "query", query, "limit", limit)

	records, err := fallback.Resolve(ctx, s.resolver, "manga_search", s.providers,
		func(ctx context.Context, p Provider) ([]MangaRecord, error) {
			return p.SearchManga(ctx, query, limit)
		})
	if err != nil {
		return nil, utils.BadGatewayError(CodeSearchFailed, err)
	}

	return &models.MangaSearchResponse{
		Query:   query,
		Limit:   limit,
		Results: NormalizeMangaList(records, SearchDefaultTitle),
	}, nil
}

// Home returns a random sample of at most limit entries drawn from the most followed manga.
func (s *Service) Home(ctx context.Context, limit int) (*models.MangaHomeResponse, error) {
	s.logger.Debug("Fetching home manga", "limit", limit)

	records, err := fallback.Resolve(ctx, s.resolver, "manga_home", s.providers,
		func(ctx context.Context, p Provider) ([]MangaRecord, error) {
			return p.PopularManga(ctx)
		})
	if err != nil {
		return nil, utils.BadGatewayError(CodeHomeFailed, err)
	}

	items := NormalizeMangaList(records, HomeDefaultTitle)
	return &models.MangaHomeResponse{
		Results: utils.SampleN(items, limit),
	}, nil
}

// Chapters lists the English chapters of a manga.
func (s *Service) Chapters(ctx context.Context, mangaID string, limit int) (*models.ChapterListResponse, error) {
	s.logger.Debug("Fetching chapters", "manga_id", mangaID, "limit", limit)

	records, err := fallback.Resolve(ctx, s.resolver, "manga_chapters", s.providers,
		func(ctx context.Context, p Provider) ([]ChapterRecord, error) {
			return p.ChapterFeed(ctx, mangaID, limit)
		})
	if err != nil {
		return nil, utils.BadGatewayError(CodeChaptersFailed, err)
	}

	return &models.ChapterListResponse{
		MangaID:  mangaID,
		Chapters: NormalizeChapters(records),
	}, nil
}

// Pages returns the ordered page image URLs of a chapter.
func (s *Service) Pages(ctx context.Context, chapterID string) (*models.PageListResponse, error) {
	s.logger.Debug("Fetching chapter pages", "chapter_id", chapterID)

	session, err := fallback.Resolve(ctx, s.resolver, "chapter_pages", s.providers,
		func(ctx context.Context, p Provider) (*AtHomeRecord, error) {
			return p.AtHomeServer(ctx, chapterID)
		})
	if err != nil {
		return nil, utils.BadGatewayError(CodePagesFailed, err)
	}

	pages := BuildPageList(chapterID, session)
	return &models.PageListResponse{
		ChapterID: pages.ParentID,
		Pages:     pages.Pages,
	}, nil
}
