package music

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"norelock.dev/mediagate/backend/internal/models"
	"norelock.dev/mediagate/backend/internal/utils"
)

const (
	// DefaultUserAgent is sent to the media host when the extractor supplies none.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36"

	// DefaultExtractTimeout bounds one extractor run.
	DefaultExtractTimeout = 30 * time.Second

	maxDiagnosticLen = 1024

	audioFormatSelector = "bestaudio[ext=webm]/bestaudio[ext=m4a]/bestaudio"
	watchURLFormat      = "https://music.youtube.com/watch?v=%s"
)

// ErrResolution is matched by every ResolutionError.
var ErrResolution = errors.New("stream resolution failed")

// ResolutionError reports that no playable audio URL could be produced for a video.
type ResolutionError struct {
	VideoID    string
	Diagnostic string
	Err        error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return e.Diagnostic
}

// Unwrap returns the underlying error, if any.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Is reports ErrResolution as a match.
func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}

// CommandRunner runs the extractor and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands as child processes.
type ExecRunner struct{}

// Run executes name with args. A non-zero exit includes the trimmed stderr in the error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// ytdlpFormat is one entry of the extractor's formats list.
type ytdlpFormat struct {
	FormatID    string            `json:"format_id"`
	URL         string            `json:"url"`
	Ext         string            `json:"ext"`
	ACodec      string            `json:"acodec"`
	VCodec      string            `json:"vcodec"`
	HTTPHeaders map[string]string `json:"http_headers"`
}

// ytdlpInfo is the subset of the extractor's JSON dump that stream resolution reads.
type ytdlpInfo struct {
	ID          string            `json:"id"`
	URL         string            `json:"url"`
	HTTPHeaders map[string]string `json:"http_headers"`
	Formats     []ytdlpFormat     `json:"formats"`
}

// YTDLPResolver implements the StreamResolver interface by running yt-dlp out of process.
type YTDLPResolver struct {
	binary  string
	timeout time.Duration
	runner  CommandRunner
	logger  *utils.Logger
}

// YTDLPOption configures a YTDLPResolver.
type YTDLPOption func(*YTDLPResolver)

// WithRunner replaces the command runner.
func WithRunner(runner CommandRunner) YTDLPOption {
	return func(r *YTDLPResolver) {
		if runner != nil {
			r.runner = runner
		}
	}
}

// WithExtractTimeout sets the timeout of one extractor run.
func WithExtractTimeout(d time.Duration) YTDLPOption {
	return func(r *YTDLPResolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithBinary sets the extractor binary name or path.
func WithBinary(binary string) YTDLPOption {
	return func(r *YTDLPResolver) {
		if binary != "" {
			r.binary = binary
		}
	}
}

// NewYTDLPResolver creates a resolver.
func NewYTDLPResolver(logger *utils.Logger, options ...YTDLPOption) *YTDLPResolver {
	if logger == nil {
		logger = utils.GetLogger()
	}
	r := &YTDLPResolver{
		binary:  "yt-dlp",
		timeout: DefaultExtractTimeout,
		runner:  ExecRunner{},
		logger:  logger.Named("ytdlp"),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// LookPath reports the resolved extractor binary path, or an error if it is not installed.
func (r *YTDLPResolver) LookPath() (string, error) {
	return exec.LookPath(r.binary)
}

// ResolveStream extracts the best audio-only URL for videoID.
func (r *YTDLPResolver) ResolveStream(ctx context.Context, videoID string) (*models.StreamTarget, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := []string{
		"-J",
		"--no-playlist",
		"--skip-download",
		"--no-warnings",
		"-f", audioFormatSelector,
		fmt.Sprintf(watchURLFormat, videoID),
	}

	r.logger.Debug("Extracting stream info", "video_id", videoID, "binary", r.binary)

	out, err := r.runner.Run(ctx, r.binary, args...)
	if err != nil {
		r.logger.Warn("Extractor failed", "video_id", videoID, "error", err)
		return nil, &ResolutionError{VideoID: videoID, Diagnostic: utils.TruncateString(err.Error(), maxDiagnosticLen), Err: err}
	}

	var info ytdlpInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, &ResolutionError{
			VideoID:    videoID,
			Diagnostic: fmt.Sprintf("invalid extractor output for ID %s: %v", videoID, err),
			Err:        err,
		}
	}

	target := selectAudio(videoID, &info)
	if target == nil {
		return nil, &ResolutionError{
			VideoID: videoID,
			Diagnostic: fmt.Sprintf("No audio stream found for ID %s after checking all formats. Available formats: %d",
				videoID, len(info.Formats)),
		}
	}
	return target, nil
}

// selectAudio prefers the extractor's own selection when it carries both a URL and headers,
// otherwise the first audio-only format with a URL.
func selectAudio(videoID string, info *ytdlpInfo) *models.StreamTarget {
	var audioURL string
	var headers map[string]string

	if info.URL != "" && info.HTTPHeaders != nil {
		audioURL, headers = info.URL, info.HTTPHeaders
	} else {
		for _, f := range info.Formats {
			if f.ACodec != "none" && f.VCodec == "none" && f.URL != "" {
				audioURL, headers = f.URL, f.HTTPHeaders
				break
			}
		}
	}
	if audioURL == "" {
		return nil
	}

	result := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		result[k] = v
	}
	if _, ok := result["User-Agent"]; !ok {
		result["User-Agent"] = DefaultUserAgent
	}

	return &models.StreamTarget{
		VideoID:  videoID,
		AudioURL: audioURL,
		Headers:  result,
	}
}
