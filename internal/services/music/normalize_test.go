package music

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/youtube/v3"
	"norelock.dev/mediagate/backend/internal/models"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		wantErr  bool
	}{
		{"PT3M20S", 200, false},
		{"PT45S", 45, false},
		{"PT1H2M3S", 3723, false},
		{"PT2H", 7200, false},
		{"P1DT1S", 86401, false},
		{"P0D", 0, false},
		{"3M20S", 0, true},
		{"PTxM", 0, true},
		{"PT3M20", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDuration(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	require.NotNil(t, formatDuration("PT3M5S"))
	assert.Equal(t, "3:05", *formatDuration("PT3M5S"))
	assert.Equal(t, "1:02:03", *formatDuration("PT1H2M3S"))
	assert.Nil(t, formatDuration(""))
	assert.Nil(t, formatDuration("P0D"))
	assert.Nil(t, formatDuration("garbage"))
}

func TestArtists(t *testing.T) {
	assert.Equal(t, []string{"Raisa"}, artists("Raisa - Topic"))
	assert.Equal(t, []string{"Tulus Official"}, artists("Tulus Official"))
	assert.Equal(t, []string{}, artists(""))
}

func TestThumbnailsAscending(t *testing.T) {
	details := &youtube.ThumbnailDetails{
		Maxres:  &youtube.Thumbnail{Url: "max", Width: 1280, Height: 720},
		Default: &youtube.Thumbnail{Url: "def", Width: 120, Height: 90},
		High:    &youtube.Thumbnail{Url: "high", Width: 480, Height: 360},
		Medium:  &youtube.Thumbnail{Url: ""},
	}

	assert.Equal(t, []models.Thumbnail{
		{URL: "def", Width: 120, Height: 90},
		{URL: "high", Width: 480, Height: 360},
		{URL: "max", Width: 1280, Height: 720},
	}, thumbnails(details))
	assert.Equal(t, []models.Thumbnail{}, thumbnails(nil))
}

func TestSongFromSearchResult(t *testing.T) {
	item := &youtube.SearchResult{
		Id: &youtube.ResourceId{Kind: "youtube#video", VideoId: "vid12345"},
		Snippet: &youtube.SearchResultSnippet{
			Title:        "Rock &amp; Roll",
			ChannelTitle: "Band - Topic",
		},
	}

	song, ok := songFromSearchResult(item, map[string]string{"vid12345": "PT4M"})

	require.True(t, ok)
	assert.Equal(t, "vid12345", song.VideoID)
	assert.Equal(t, "Rock & Roll", song.Title)
	assert.Equal(t, []string{"Band"}, song.Artists)
	assert.Nil(t, song.Album)
	require.NotNil(t, song.Duration)
	assert.Equal(t, "4:00", *song.Duration)

	_, ok = songFromSearchResult(&youtube.SearchResult{Id: &youtube.ResourceId{}}, nil)
	assert.False(t, ok)
}

func TestSongFromVideo(t *testing.T) {
	video := &youtube.Video{
		Id:             "chart0001",
		Snippet:        &youtube.VideoSnippet{Title: "Hit", ChannelTitle: "Singer"},
		ContentDetails: &youtube.VideoContentDetails{Duration: "PT2M30S"},
	}

	song, ok := songFromVideo(video)

	require.True(t, ok)
	assert.Equal(t, "Hit", song.Title)
	require.NotNil(t, song.Duration)
	assert.Equal(t, "2:30", *song.Duration)

	_, ok = songFromVideo(&youtube.Video{Id: "x"})
	assert.False(t, ok)
}
