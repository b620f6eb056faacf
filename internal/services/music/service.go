package music

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
	"norelock.dev/mediagate/backend/internal/models"
	"norelock.dev/mediagate/backend/internal/utils"
	"norelock.dev/mediagate/backend/pkg/mediaproxy"
)

// Client-facing failure codes.
const (
	CodeSearchFailed  = "Search failed"
	CodeHomeFailed    = "Failed to fetch home songs"
	CodeExtractFailed = "Failed to extract stream info (yt-dlp)"
	CodeStreamFailed  = "Failed to stream from source"
)

const (
	searchLimit      = 10
	recommendLimit   = 5
	recommendSuffix  = " hits"
	homeFallbackTerm = "hits indonesia"
)

// ErrNoMetadata is returned by Search and Home when no metadata provider is configured.
var ErrNoMetadata = errors.New("music: no metadata provider configured")

// StreamOpener opens an upstream media stream.
type StreamOpener interface {
	Open(ctx context.Context, target mediaproxy.Target) (*mediaproxy.Stream, error)
}

// Service provides music search, home listing and streaming.
type Service struct {
	metadata MetadataProvider
	resolver StreamResolver
	relay    StreamOpener
	logger   *utils.Logger
}

// NewService creates a music service. metadata may be nil, in which case only streaming
// is available.
func NewService(metadata MetadataProvider, resolver StreamResolver, relay StreamOpener, logger *utils.Logger) (*Service, error) {
	if resolver == nil || relay == nil {
		return nil, errors.New("music: stream resolver and relay are required")
	}
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Service{
		metadata: metadata,
		resolver: resolver,
		relay:    relay,
		logger:   logger.Named("music_service"),
	}, nil
}

// HasMetadata reports whether search and home listing are available.
func (s *Service) HasMetadata() bool {
	return s.metadata != nil
}

// Search returns songs matching query plus a short list of related recommendations. Both
// lookups run concurrently; either failing fails the request.
func (s *Service) Search(ctx context.Context, query string) (*models.MusicSearchResponse, error) {
	if s.metadata == nil {
		return nil, ErrNoMetadata
	}
	s.logger.Debug("Searching songs", "query", query)

	var results, recommended []models.SongSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		results, err = s.metadata.SearchSongs(gctx, query, searchLimit)
		return err
	})
	g.Go(func() error {
		var err error
		recommended, err = s.metadata.SearchSongs(gctx, query+recommendSuffix, recommendLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, utils.BadGatewayError(CodeSearchFailed, err)
	}

	return &models.MusicSearchResponse{
		Query:         query,
		SearchResults: nonNil(results),
		Recommended:   nonNil(recommended),
	}, nil
}

// Home returns up to limit songs from the charts, falling back to a search when the charts
// are unavailable or empty.
func (s *Service) Home(ctx context.Context, limit int) (*models.MusicHomeResponse, error) {
	if s.metadata == nil {
		return nil, ErrNoMetadata
	}
	s.logger.Debug("Fetching home songs", "limit", limit)

	songs, err := s.metadata.ChartSongs(ctx)
	if err != nil {
		s.logger.Warn("Chart fetch failed", "provider", s.metadata.Name(), "error", err)
		songs = nil
	}

	if len(songs) == 0 {
		songs, err = s.metadata.SearchSongs(ctx, homeFallbackTerm, limit)
		if err != nil {
			return nil, utils.BadGatewayError(CodeHomeFailed, err)
		}
	}

	return &models.MusicHomeResponse{
		Results: nonNil(utils.SampleN(songs, limit)),
	}, nil
}

// Resolve produces the direct audio URL for videoID.
func (s *Service) Resolve(ctx context.Context, videoID string) (*models.StreamTarget, error) {
	target, err := s.resolver.ResolveStream(ctx, videoID)
	if err != nil {
		return nil, utils.BadGatewayError(CodeExtractFailed, err)
	}
	return target, nil
}

// Stream resolves videoID and opens the upstream audio transfer. The caller ranges over the
// returned stream's chunks and must close it.
func (s *Service) Stream(ctx context.Context, videoID string) (*mediaproxy.Stream, error) {
	target, err := s.Resolve(ctx, videoID)
	if err != nil {
		return nil, err
	}

	stream, err := s.relay.Open(ctx, mediaproxy.Target{URL: target.AudioURL, Headers: target.Headers})
	if err != nil {
		s.logger.Warn("Upstream stream failed to open", "video_id", videoID, "error", err)
		return nil, utils.BadGatewayError(CodeStreamFailed, err)
	}

	s.logger.Debug("Upstream stream opened", "video_id", videoID, "upstream_content_type", stream.UpstreamContentType())
	return stream, nil
}

func nonNil(songs []models.SongSummary) []models.SongSummary {
	if songs == nil {
		return []models.SongSummary{}
	}
	return songs
}
