package handlers

import (
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

// CommentHandler implements comment endpoints.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore

	NowFunc func() time.Time
}

// List handles GET /api/v1/comments/{videoId}.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID, err := parseID(chi.URLParam(r, "videoId"), "video")
	if err != nil {
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

	page, limit := pageParams(r.URL.Query().Get("page"), r.URL.Query().Get("limit"))

	result, err := h.Comments.ListForVideo(ctx, videoID, page, limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if result.Docs == nil {
		result.Docs = []models.CommentWithOwner{}
	}

	respond(ctx, w, http.StatusOK, "Comments fetched", result)
}

// Create handles POST /api/v1/comments/{videoId}.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	videoID, err := parseID(chi.URLParam(r, "videoId"), "video")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, badRequest("Invalid request body"))
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, badRequest("content is required"))
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

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		Content:   req.Content,
		VideoID:   videoID,
		OwnerID:   userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, notFound("Video not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusCreated, "Comment added", comment)
}

// Update handles PATCH /api/v1/comments/c/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	commentID, err := parseID(chi.URLParam(r, "commentId"), "comment")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, badRequest("Invalid request body"))
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, badRequest("content is required"))
		return
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, notFound("Comment not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}
	if comment.OwnerID != userID {
		respondError(ctx, w, unauthorized("You do not own this comment"))
		return
	}

	if err := h.Comments.Update(ctx, commentID, req.Content); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, internalError("Comment disappeared during update"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, "Comment updated", updated)
}

// Delete handles DELETE /api/v1/comments/c/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	commentID, err := parseID(chi.URLParam(r, "commentId"), "comment")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, notFound("Comment not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}
	if comment.OwnerID != userID {
		respondError(ctx, w, unauthorized("You do not own this comment"))
		return
	}

	if err := h.Comments.Delete(ctx, commentID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, internalError("Comment disappeared during delete"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, "Comment deleted", nil)
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
