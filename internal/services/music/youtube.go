package music

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
	"norelock.dev/mediagate/backend/internal/models"
	"norelock.dev/mediagate/backend/internal/utils"
)

const (
	// musicCategoryID is the YouTube video category for music.
	musicCategoryID = "10"

	// DefaultChartRegion is the region used for chart listings.
	DefaultChartRegion = "ID"

	// chartFetchSize is the largest page the Data API serves.
	chartFetchSize = 50
)

// YouTubeProvider implements the MetadataProvider interface with the YouTube Data API.
type YouTubeProvider struct {
	service *youtube.Service
	region  string
	logger  *utils.Logger
}

// NewYouTubeProvider creates a YouTube provider. The underlying service is created once and
// shared across requests.
func NewYouTubeProvider(ctx context.Context, apiKey, region string, logger *utils.Logger, opts ...option.ClientOption) (*YouTubeProvider, error) {
	if logger == nil {
		logger = utils.GetLogger()
	}
	if region == "" {
		region = DefaultChartRegion
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &YouTubeProvider{
		service: service,
		region:  region,
		logger:  logger.Named("youtube_provider"),
	}, nil
}

// SearchSongs searches music videos on YouTube.
func (p *YouTubeProvider) SearchSongs(ctx context.Context, query string, limit int) ([]models.SongSummary, error) {
	p.logger.Debug("Searching YouTube", "query", query, "limit", limit)

	response, err := p.service.Search.List([]string{"id", "snippet"}).
		Q(query).
		Type("video").
		MaxResults(int64(limit)).
		VideoCategoryId(musicCategoryID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search %q: %w", query, err)
	}

	ids := make([]string, 0, len(response.Items))
	for _, item := range response.Items {
		if item.Id != nil && item.Id.Kind == "youtube#video" && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}

	durations := p.durations(ctx, ids)

	songs := make([]models.SongSummary, 0, len(ids))
	for _, item := range response.Items {
		if item.Id == nil || item.Id.Kind != "youtube#video" {
			continue
		}
		if song, ok := songFromSearchResult(item, durations); ok {
			songs = append(songs, song)
		}
	}
	return songs, nil
}

// durations fetches content durations for ids in one call. Durations are optional, so a
// failure is logged and yields an empty map.
func (p *YouTubeProvider) durations(ctx context.Context, ids []string) map[string]string {
	result := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return result
	}

	response, err := p.service.Videos.List([]string{"contentDetails"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		p.logger.Warn("Failed to get video details", "error", err, "count", len(ids))
		return result
	}

	for _, v := range response.Items {
		if v.ContentDetails != nil {
			result[v.Id] = v.ContentDetails.Duration
		}
	}
	return result
}

// ChartSongs returns the most popular music videos in the configured region.
func (p *YouTubeProvider) ChartSongs(ctx context.Context) ([]models.SongSummary, error) {
	p.logger.Debug("Fetching YouTube charts", "region", p.region)

	response, err := p.service.Videos.List([]string{"snippet", "contentDetails"}).
		Chart("mostPopular").
		RegionCode(p.region).
		VideoCategoryId(musicCategoryID).
		MaxResults(chartFetchSize).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube charts %s: %w", p.region, err)
	}

	songs := make([]models.SongSummary, 0, len(response.Items))
	for _, v := range response.Items {
		if song, ok := songFromVideo(v); ok {
			songs = append(songs, song)
		}
	}
	return songs, nil
}

// Name returns the provider name.
func (p *YouTubeProvider) Name() string {
	return "youtube"
}
