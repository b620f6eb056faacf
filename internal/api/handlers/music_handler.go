package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"norelock.dev/mediagate/backend/internal/models"
	"norelock.dev/mediagate/backend/internal/utils"
	"norelock.dev/mediagate/backend/pkg/mediaproxy"
)

// DefaultStreamWriteTimeout is the per-chunk write deadline towards the client.
const DefaultStreamWriteTimeout = 30 * time.Second

// MusicService is the music backend behind the handlers.
type MusicService interface {
	HasMetadata() bool
	Search(ctx context.Context, query string) (*models.MusicSearchResponse, error)
	Home(ctx context.Context, limit int) (*models.MusicHomeResponse, error)
	Stream(ctx context.Context, videoID string) (*mediaproxy.Stream, error)
}

// MusicHandler handles HTTP requests related to music.
type MusicHandler struct {
	music        MusicService
	writeTimeout time.Duration
	logger       *utils.Logger
}

// NewMusicHandler creates a new music handler.
func NewMusicHandler(music MusicService, writeTimeout time.Duration, logger *utils.Logger) *MusicHandler {
	if writeTimeout <= 0 {
		writeTimeout = DefaultStreamWriteTimeout
	}
	return &MusicHandler{
		music:        music,
		writeTimeout: writeTimeout,
		logger:       logger.Named("music_handler"),
	}
}

// Search handles requests to search songs, with recommendations.
func (h *MusicHandler) Search(w http.ResponseWriter, r *http.Request, params *MusicSearchParams) {
	response, err := h.music.Search(r.Context(), params.Query)
	if err != nil {
		h.logger.Error("Failed to search songs", err, "query", params.Query)
		utils.RespondWithAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, response)
}

// Home handles requests for the randomized home feed.
func (h *MusicHandler) Home(w http.ResponseWriter, r *http.Request, params *HomeParams) {
	response, err := h.music.Home(r.Context(), params.Limit)
	if err != nil {
		h.logger.Error("Failed to fetch home songs", err, "limit", params.Limit)
		utils.RespondWithAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, response)
}

// Stream relays the audio of a video. Failures before the first byte answer 502; a failure
// after that aborts the connection so the client sees a truncated body, never a clean end.
func (h *MusicHandler) Stream(w http.ResponseWriter, r *http.Request, params *StreamParams) {
	logger := h.logger.With("videoId", params.VideoID)

	stream, err := h.music.Stream(r.Context(), params.VideoID)
	if err != nil {
		logger.Error("Failed to open stream", err)
		utils.RespondWithAppError(w, err)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", mediaproxy.RelayContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)

	for chunk, err := range stream.Chunks() {
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Debug("Client went away during stream", "bytes", stream.BytesDelivered())
				return
			}
			logger.Warn("Stream interrupted", "bytes", stream.BytesDelivered(), "error", err)
			panic(http.ErrAbortHandler)
		}

		// Not every writer supports deadlines; the server-wide timeout applies then
		_ = rc.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if _, werr := w.Write(chunk); werr != nil {
			logger.Debug("Client write failed", "bytes", stream.BytesDelivered(), "error", werr)
			return
		}
		if ferr := rc.Flush(); ferr != nil && !errors.Is(ferr, http.ErrNotSupported) {
			logger.Debug("Client flush failed", "error", ferr)
			return
		}
	}

	logger.Debug("Stream completed", "bytes", stream.BytesDelivered())
}
