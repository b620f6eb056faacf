package music

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"google.golang.org/api/youtube/v3"
	"norelock.dev/mediagate/backend/internal/models"
	"norelock.dev/mediagate/backend/internal/utils"
)

// topicSuffix marks auto-generated artist channels on YouTube Music.
const topicSuffix = " - Topic"

// parseDuration parses an ISO 8601 duration (PT#H#M#S, optionally with a day part) into seconds.
func parseDuration(isoDuration string) (int, error) {
	if !strings.HasPrefix(isoDuration, "P") {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q", isoDuration)
	}
	duration := strings.TrimPrefix(isoDuration, "P")

	var days int
	if idx := strings.Index(duration, "D"); idx != -1 {
		d, err := strconv.Atoi(duration[:idx])
		if err != nil {
			return 0, err
		}
		days = d
		duration = duration[idx+1:]
	}
	duration = strings.TrimPrefix(duration, "T")

	var hours, minutes, seconds int
	for _, unit := range []struct {
		suffix string
		target *int
	}{{"H", &hours}, {"M", &minutes}, {"S", &seconds}} {
		idx := strings.Index(duration, unit.suffix)
		if idx == -1 {
			continue
		}
		v, err := strconv.Atoi(duration[:idx])
		if err != nil {
			return 0, err
		}
		*unit.target = v
		duration = duration[idx+1:]
	}
	if duration != "" {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q", isoDuration)
	}

	return days*86400 + hours*3600 + minutes*60 + seconds, nil
}

// formatDuration renders an ISO 8601 duration for display. Unknown or zero durations
// (live streams report P0D) are absent.
func formatDuration(isoDuration string) *string {
	if isoDuration == "" {
		return nil
	}
	seconds, err := parseDuration(isoDuration)
	if err != nil || seconds == 0 {
		return nil
	}
	formatted := utils.FormatDuration(seconds)
	return &formatted
}

// artistName strips the auto-generated channel suffix.
func artistName(channelTitle string) string {
	return strings.TrimSpace(strings.TrimSuffix(channelTitle, topicSuffix))
}

func artists(channelTitle string) []string {
	name := artistName(channelTitle)
	if name == "" {
		return []string{}
	}
	return []string{name}
}

// thumbnails lists the available renditions smallest first.
func thumbnails(details *youtube.ThumbnailDetails) []models.Thumbnail {
	result := []models.Thumbnail{}
	if details == nil {
		return result
	}
	for _, t := range []*youtube.Thumbnail{details.Default, details.Medium, details.High, details.Standard, details.Maxres} {
		if t == nil || t.Url == "" {
			continue
		}
		result = append(result, models.Thumbnail{URL: t.Url, Width: t.Width, Height: t.Height})
	}
	return result
}

// songFromSearchResult maps a search hit. durations holds ISO 8601 durations keyed by video ID.
func songFromSearchResult(item *youtube.SearchResult, durations map[string]string) (models.SongSummary, bool) {
	if item == nil || item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
		return models.SongSummary{}, false
	}
	return models.SongSummary{
		VideoID:    item.Id.VideoId,
		Title:      html.UnescapeString(item.Snippet.Title),
		Artists:    artists(html.UnescapeString(item.Snippet.ChannelTitle)),
		Album:      nil,
		Duration:   formatDuration(durations[item.Id.VideoId]),
		Thumbnails: thumbnails(item.Snippet.Thumbnails),
	}, true
}

// songFromVideo maps a video resource, as returned by chart listings.
func songFromVideo(video *youtube.Video) (models.SongSummary, bool) {
	if video == nil || video.Id == "" || video.Snippet == nil {
		return models.SongSummary{}, false
	}
	var duration *string
	if video.ContentDetails != nil {
		duration = formatDuration(video.ContentDetails.Duration)
	}
	return models.SongSummary{
		VideoID:    video.Id,
		Title:      html.UnescapeString(video.Snippet.Title),
		Artists:    artists(html.UnescapeString(video.Snippet.ChannelTitle)),
		Album:      nil,
		Duration:   duration,
		Thumbnails: thumbnails(video.Snippet.Thumbnails),
	}, true
}
