package music

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"norelock.dev/mediagate/backend/internal/utils"
)

type fakeRunner struct {
	output []byte
	err    error

	name string
	args []string
	ctx  context.Context
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.ctx, f.name, f.args = ctx, name, args
	return f.output, f.err
}

func newTestYTDLP(runner CommandRunner) *YTDLPResolver {
	return NewYTDLPResolver(utils.NewNopLogger(), WithRunner(runner), WithBinary("/opt/yt-dlp"))
}

func TestResolveStreamInvocation(t *testing.T) {
	runner := &fakeRunner{output: []byte(`{"url":"https://media.example/a","http_headers":{"User-Agent":"ua"}}`)}
	_, err := newTestYTDLP(runner).ResolveStream(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)

	assert.Equal(t, "/opt/yt-dlp", runner.name)
	assert.Equal(t, []string{
		"-J", "--no-playlist", "--skip-download", "--no-warnings",
		"-f", "bestaudio[ext=webm]/bestaudio[ext=m4a]/bestaudio",
		"https://music.youtube.com/watch?v=dQw4w9WgXcQ",
	}, runner.args)

	deadline, ok := runner.ctx.Deadline()
	require.True(t, ok, "extraction runs under a timeout")
	assert.WithinDuration(t, time.Now().Add(DefaultExtractTimeout), deadline, 5*time.Second)
}

func TestResolveStreamTopLevelSelection(t *testing.T) {
	runner := &fakeRunner{output: []byte(`{
		"url": "https://media.example/top",
		"http_headers": {"User-Agent": "yt-dlp-ua", "Accept": "*/*"},
		"formats": [{"url": "https://media.example/format", "acodec": "opus", "vcodec": "none"}]
	}`)}

	target, err := newTestYTDLP(runner).ResolveStream(context.Background(), "abcdef")

	require.NoError(t, err)
	assert.Equal(t, "abcdef", target.VideoID)
	assert.Equal(t, "https://media.example/top", target.AudioURL)
	assert.Equal(t, "yt-dlp-ua", target.Headers["User-Agent"])
	assert.Equal(t, "*/*", target.Headers["Accept"])
}

func TestResolveStreamFormatScan(t *testing.T) {
	runner := &fakeRunner{output: []byte(`{
		"url": "https://media.example/no-headers",
		"formats": [
			{"url": "https://media.example/video", "acodec": "mp4a", "vcodec": "avc1"},
			{"url": "", "acodec": "opus", "vcodec": "none"},
			{"url": "https://media.example/silent", "acodec": "none", "vcodec": "none"},
			{"url": "https://media.example/audio", "acodec": "opus", "vcodec": "none", "http_headers": {"Referer": "r"}},
			{"url": "https://media.example/later", "acodec": "opus", "vcodec": "none"}
		]
	}`)}

	target, err := newTestYTDLP(runner).ResolveStream(context.Background(), "abcdef")

	require.NoError(t, err)
	assert.Equal(t, "https://media.example/audio", target.AudioURL)
	assert.Equal(t, "r", target.Headers["Referer"])
	assert.Equal(t, DefaultUserAgent, target.Headers["User-Agent"], "default user agent is injected")
}

func TestResolveStreamNoAudio(t *testing.T) {
	runner := &fakeRunner{output: []byte(`{"formats":[{"url":"u","acodec":"mp4a","vcodec":"avc1"},{"url":"v","acodec":"none","vcodec":"vp9"}]}`)}

	_, err := newTestYTDLP(runner).ResolveStream(context.Background(), "abcdef")

	require.Error(t, err)
	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "abcdef", resErr.VideoID)
	assert.Equal(t, "No audio stream found for ID abcdef after checking all formats. Available formats: 2", resErr.Diagnostic)
	assert.True(t, errors.Is(err, ErrResolution))
}

func TestResolveStreamExtractorFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1: ERROR: Video unavailable")}

	_, err := newTestYTDLP(runner).ResolveStream(context.Background(), "abcdef")

	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Contains(t, resErr.Diagnostic, "Video unavailable")

	appErr := utils.BadGatewayError(CodeExtractFailed, err)
	assert.Equal(t, "exit status 1: ERROR: Video unavailable", appErr.Diagnostic())
}

func TestResolveStreamInvalidJSON(t *testing.T) {
	runner := &fakeRunner{output: []byte(`not json`)}
	_, err := newTestYTDLP(runner).ResolveStream(context.Background(), "abcdef")
	assert.True(t, errors.Is(err, ErrResolution))
}

func TestExecRunnerReportsStderr(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	out, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "printf ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(out))
}
