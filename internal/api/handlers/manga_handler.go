// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"context"
	"net/http"

	"norelock.dev/mediagate/backend/internal/models"
	"norelock.dev/mediagate/backend/internal/utils"
)

// CatalogService is the manga catalog behind the handlers.
type CatalogService interface {
	Search(ctx context.Context, query string, limit int) (*models.MangaSearchResponse, error)
	Home(ctx context.Context, limit int) (*models.MangaHomeResponse, error)
	Chapters(ctx context.Context, mangaID string, limit int) (*models.ChapterListResponse, error)
	Pages(ctx context.Context, chapterID string) (*models.PageListResponse, error)
}

// MangaHandler handles HTTP requests related to the manga catalog.
type MangaHandler struct {
	catalog CatalogService
	logger  *utils.Logger
}

// NewMangaHandler creates a new manga handler.
func NewMangaHandler(catalog CatalogService, logger *utils.Logger) *MangaHandler {
	return &MangaHandler{
		catalog: catalog,
		logger:  logger.Named("manga_handler"),
	}
}

// Search handles requests to search the catalog by title.
func (h *MangaHandler) Search(w http.ResponseWriter, r *http.Request, params *SearchParams) {
	response, err := h.catalog.Search(r.Context(), params.Query, params.Limit)
	if err != nil {
		h.logger.Error("Failed to search manga", err, "query", params.Query, "limit", params.Limit)
		utils.RespondWithAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, response)
}

// Home handles requests for the randomized popular listing.
func (h *MangaHandler) Home(w http.ResponseWriter, r *http.Request, params *HomeParams) {
	response, err := h.catalog.Home(r.Context(), params.Limit)
	if err != nil {
		h.logger.Error("Failed to fetch home manga", err, "limit", params.Limit)
		utils.RespondWithAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, response)
}

// Chapters handles requests for the English chapter feed of a manga.
func (h *MangaHandler) Chapters(w http.ResponseWriter, r *http.Request, params *ChaptersParams) {
	response, err := h.catalog.Chapters(r.Context(), params.MangaID, params.Limit)
	if err != nil {
		h.logger.Error("Failed to fetch chapters", err, "mangaId", params.MangaID)
		utils.RespondWithAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, response)
}

// Pages handles requests for the page image URLs of a chapter.
func (h *MangaHandler) Pages(w http.ResponseWriter, r *http.Request, params *PagesParams) {
	response, err := h.catalog.Pages(r.Context(), params.ChapterID)
	if err != nil {
		h.logger.Error("Failed to fetch chapter pages", err, "chapterId", params.ChapterID)
		utils.RespondWithAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, response)
}
