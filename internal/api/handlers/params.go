package handlers

// SearchParams are the parameters of GET /manga/search.
type SearchParams struct {
	Query string `query:"q" validate:"required"`
	Limit int    `query:"limit" validate:"min=1,max=100"`
}

// SetDefaults implements api.Defaulter.
func (p *SearchParams) SetDefaults() { p.Limit = 10 }

// HomeParams are the parameters of the home listings.
type HomeParams struct {
	Limit int `query:"limit" validate:"min=1,max=50"`
}

// SetDefaults implements api.Defaulter.
func (p *HomeParams) SetDefaults() { p.Limit = 10 }

// ChaptersParams are the parameters of GET /manga/{id}/chapters.
type ChaptersParams struct {
	MangaID string `query:"id" validate:"required"`
	Limit   int    `query:"limit" validate:"min=1,max=500"`
}

// SetDefaults implements api.Defaulter.
func (p *ChaptersParams) SetDefaults() { p.Limit = 50 }

// PagesParams are the parameters of GET /chapter/{id}/pages.
type PagesParams struct {
	ChapterID string `query:"id" validate:"required"`
}

// MusicSearchParams are the parameters of GET /music/search.
type MusicSearchParams struct {
	Query string `query:"q" validate:"required"`
}

// StreamParams are the parameters of GET /music/{videoId}/stream.
type StreamParams struct {
	VideoID string `query:"videoId" validate:"required,video_id"`
}
