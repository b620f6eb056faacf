// Package music provides song search, home charts and audio stream resolution.
package music

import (
	"context"

	"norelock.dev/mediagate/backend/internal/models"
)

// MetadataProvider defines the interface for song metadata providers.
type MetadataProvider interface {
	// SearchSongs searches songs using the given query.
	SearchSongs(ctx context.Context, query string, limit int) ([]models.SongSummary, error)

	// ChartSongs returns the current popular songs.
	ChartSongs(ctx context.Context) ([]models.SongSummary, error)

	// Name returns the provider name (e.g., "youtube").
	Name() string
}

// StreamResolver resolves a video identifier into a directly fetchable audio URL.
type StreamResolver interface {
	ResolveStream(ctx context.Context, videoID string) (*models.StreamTarget, error)
}
