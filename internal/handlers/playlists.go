package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// PlaylistHandler implements playlist endpoints.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Videos    VideoStore

	NowFunc func() time.Time
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, badRequest("Invalid request body"))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		respondError(ctx, w, badRequest("name and description are required"))
		return
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     userID,
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusCreated, "Playlist created", playlist)
}

// ListForUser handles GET /api/v1/playlists/user/{userId}.
func (h PlaylistHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, err := parseID(chi.URLParam(r, "userId"), "user")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	playlists, err := h.Playlists.ListForUser(ctx, ownerID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if playlists == nil {
		playlists = []models.PlaylistWithVideos{}
	}

	respond(ctx, w, http.StatusOK, "Playlists fetched", playlists)
}

// Get handles GET /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlistID, err := parseID(chi.URLParam(r, "playlistId"), "playlist")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	playlist, err := h.Playlists.FindWithVideos(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, notFound("Playlist not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, "Playlist fetched", playlist)
}

// Update handles PATCH /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	playlistID, err := parseID(chi.URLParam(r, "playlistId"), "playlist")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, badRequest("Invalid request body"))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" && req.Description == "" {
		respondError(ctx, w, badRequest("At least one of name or description is required"))
		return
	}

	playlist, err := h.ownedPlaylist(ctx, playlistID, userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if req.Name == "" {
		req.Name = playlist.Name
	}
	if req.Description == "" {
		req.Description = playlist.Description
	}

	if err := h.Playlists.Update(ctx, playlistID, req.Name, req.Description); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, internalError("Playlist disappeared during update"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Playlists.FindWithVideos(ctx, playlistID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, "Playlist updated", updated)
}

// AddVideo handles POST /api/v1/playlists/{playlistId}/videos/{videoId}.
// Adding a video that is already present is a no-op.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	h.changeMembership(w, r, "Video added to playlist", h.Playlists.AddVideo)
}

// RemoveVideo handles DELETE /api/v1/playlists/{playlistId}/videos/{videoId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	h.changeMembership(w, r, "Video removed from playlist", h.Playlists.RemoveVideo)
}

func (h PlaylistHandler) changeMembership(w http.ResponseWriter, r *http.Request, message string,
	apply func(ctx context.Context, playlistID, videoID string) error) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	playlistID, err := parseID(chi.URLParam(r, "playlistId"), "playlist")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	videoID, err := parseID(chi.URLParam(r, "videoId"), "video")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if _, err := h.ownedPlaylist(ctx, playlistID, userID); err != nil {
		respondError(ctx, w, err)
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, notFound("Video not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	if err := apply(ctx, playlistID, videoID); err != nil {
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Playlists.FindWithVideos(ctx, playlistID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, message, updated)
}

// Delete handles DELETE /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	playlistID, err := parseID(chi.URLParam(r, "playlistId"), "playlist")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if _, err := h.ownedPlaylist(ctx, playlistID, userID); err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Playlists.Delete(ctx, playlistID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, internalError("Playlist disappeared during delete"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, "Playlist deleted", nil)
}

// TogglePublic handles PATCH /api/v1/playlists/{playlistId}/toggle-public.
func (h PlaylistHandler) TogglePublic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	playlistID, err := parseID(chi.URLParam(r, "playlistId"), "playlist")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if _, err := h.ownedPlaylist(ctx, playlistID, userID); err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Playlists.TogglePublic(ctx, playlistID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, internalError("Playlist disappeared during toggle"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, "Playlist visibility toggled", updated)
}

// ownedPlaylist fetches the playlist and verifies the caller owns it.
func (h PlaylistHandler) ownedPlaylist(ctx context.Context, playlistID, userID string) (models.Playlist, error) {
	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Playlist{}, notFound("Playlist not found")
		}
		return models.Playlist{}, err
	}
	if playlist.OwnerID != userID {
		return models.Playlist{}, unauthorized("You do not own this playlist")
	}
	return playlist, nil
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
