// Package models contains the data structures returned by the gateway.
package models

// Thumbnail describes one thumbnail rendition of a song.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int64  `json:"width"`
	Height int64  `json:"height"`
}

// SongSummary is a normalized music search or chart entry.
type SongSummary struct {
	VideoID    string      `json:"videoId"`
	Title      string      `json:"title"`
	Artists    []string    `json:"artists"`
	Album      *string     `json:"album"`
	Duration   *string     `json:"duration"`
	Thumbnails []Thumbnail `json:"thumbnails"`
}

// StreamTarget is a resolved, directly fetchable audio URL plus the headers the media host
// requires. It is resolved once per stream request and never cached.
type StreamTarget struct {
	VideoID  string            `json:"videoId"`
	AudioURL string            `json:"audio_url"`
	Headers  map[string]string `json:"headers"`
}

// MusicSearchResponse is returned by the music search endpoint.
type MusicSearchResponse struct {
	Query         string        `json:"query"`
	SearchResults []SongSummary `json:"search_results"`
	Recommended   []SongSummary `json:"recommended"`
}

// MusicHomeResponse is returned by the music home endpoint.
type MusicHomeResponse struct {
	Results []SongSummary `json:"results"`
}
