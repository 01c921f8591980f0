package handlers

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// VideoHandler implements the video listing, upload, and mutation endpoints.
type VideoHandler struct {
	Videos VideoStore
	Users  UserStore

	Storage FileStorage
	Stager  FileStager
	Prober  DurationProber

	NowFunc func() time.Time
}

// List handles GET /api/v1/videos.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	page, limit := pageParams(q.Get("page"), q.Get("limit"))

	params := repositories.ListVideosParams{
		Page:     page,
		Limit:    limit,
		Query:    strings.TrimSpace(q.Get("query")),
		SortBy:   q.Get("sortBy"),
		SortDesc: sortDescending(q.Get("sortType")),
	}

	if raw := strings.TrimSpace(q.Get("userId")); raw != "" {
		ownerID, err := parseID(raw, "user")
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		if _, err := h.Users.FindByID(ctx, ownerID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				respondError(ctx, w, notFound("User not found"))
				return
			}
			respondError(ctx, w, err)
			return
		}
		params.OwnerID = ownerID
	}

	result, err := h.Videos.List(ctx, params)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if result.Docs == nil {
		result.Docs = []models.VideoWithOwner{}
	}

	respond(ctx, w, http.StatusOK, "Videos fetched", result)
}

// sortDescending maps the sortType query value; numeric 1/-1 and asc/desc are
// accepted, defaulting to descending.
func sortDescending(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "asc":
		return false
	default:
		return true
	}
}

// Create handles POST /api/v1/videos. The video file is staged to local disk
// so its duration can be probed before it streams to object storage.
func (h VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		respondError(ctx, w, badRequest("Invalid multipart payload"))
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		respondError(ctx, w, badRequest("title and description are required"))
		return
	}

	_, videoHeader, err := r.FormFile("videoFile")
	if err != nil {
		respondError(ctx, w, badRequest("videoFile is required"))
		return
	}
	_, thumbHeader, err := r.FormFile("thumbnail")
	if err != nil {
		respondError(ctx, w, badRequest("thumbnail is required"))
		return
	}

	stagedPath, cleanup, err := h.Stager.Stage(videoHeader)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer cleanup()

	duration, err := h.Prober.Duration(ctx, stagedPath)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	staged, err := os.Open(stagedPath)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	videoURL, err := h.Storage.Save(ctx, assetKey("videos", videoHeader.Filename), staged)
	staged.Close()
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	thumbURL, err := saveUpload(ctx, h.Storage, "thumbnails", thumbHeader)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	now := h.now()
	video := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     userID,
		Title:       title,
		Description: description,
		VideoFile:   videoURL,
		Thumbnail:   thumbURL,
		Duration:    duration,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		respondError(ctx, w, err)
		return
	}

	created, err := h.Videos.FindWithOwner(ctx, video.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusCreated, "Video published", created)
}

// Get handles GET /api/v1/videos/{videoId}. Authenticated views bump the view
// counter and the caller's watch history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID, err := parseID(chi.URLParam(r, "videoId"), "video")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	video, err := h.Videos.FindWithOwner(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, notFound("Video not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	if userID := middleware.UserIDFromContext(ctx); userID != "" {
		if err := h.Videos.IncrementViews(ctx, videoID); err != nil {
			respondError(ctx, w, err)
			return
		}
		if err := h.Users.RecordWatch(ctx, userID, videoID); err != nil {
			respondError(ctx, w, err)
			return
		}
		video.Views++
	}

	respond(ctx, w, http.StatusOK, "Video fetched", video)
}

// Update handles PATCH /api/v1/videos/{videoId}.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	videoID, err := parseID(chi.URLParam(r, "videoId"), "video")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		respondError(ctx, w, badRequest("Invalid multipart payload"))
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	_, thumbHeader, thumbErr := r.FormFile("thumbnail")
	if title == "" && description == "" && thumbErr != nil {
		respondError(ctx, w, badRequest("At least one of title, description, or thumbnail is required"))
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, notFound("Video not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}
	if video.OwnerID != userID {
		respondError(ctx, w, unauthorized("You do not own this video"))
		return
	}

	if title != "" {
		video.Title = title
	}
	if description != "" {
		video.Description = description
	}
	if thumbErr == nil {
		thumbURL, err := saveUpload(ctx, h.Storage, "thumbnails", thumbHeader)
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		video.Thumbnail = thumbURL
	}

	if err := h.Videos.Update(ctx, video); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, internalError("Video disappeared during update"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Videos.FindWithOwner(ctx, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, "Video updated", updated)
}

// Delete handles DELETE /api/v1/videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	videoID, err := parseID(chi.URLParam(r, "videoId"), "video")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, notFound("Video not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}
	if video.OwnerID != userID {
		respondError(ctx, w, unauthorized("You do not own this video"))
		return
	}

	if err := h.Videos.Delete(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, internalError("Video disappeared during delete"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, "Video deleted", nil)
}

// TogglePublish handles PATCH /api/v1/videos/{videoId}/toggle-publish.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	videoID, err := parseID(chi.URLParam(r, "videoId"), "video")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, notFound("Video not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}
	if video.OwnerID != userID {
		respondError(ctx, w, unauthorized("You do not own this video"))
		return
	}

	if err := h.Videos.TogglePublished(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, internalError("Video disappeared during toggle"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, "Publish status toggled", updated)
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
