package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// LikeHandler implements the like toggle endpoints.
type LikeHandler struct {
	Likes    LikeStore
	Videos   VideoStore
	Comments CommentStore
	Tweets   TweetStore

	NowFunc func() time.Time
}

// ToggleVideo handles POST /api/v1/likes/toggle/v/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "videoId", "video", func(ctx context.Context, id string) error {
		_, err := h.Videos.FindByID(ctx, id)
		return err
	}, func(like *models.Like, id string) {
		like.VideoID = id
	})
}

// ToggleComment handles POST /api/v1/likes/toggle/c/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "commentId", "comment", func(ctx context.Context, id string) error {
		_, err := h.Comments.FindByID(ctx, id)
		return err
	}, func(like *models.Like, id string) {
		like.CommentID = id
	})
}

// ToggleTweet handles POST /api/v1/likes/toggle/t/{tweetId}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "tweetId", "tweet", func(ctx context.Context, id string) error {
		_, err := h.Tweets.FindByID(ctx, id)
		return err
	}, func(like *models.Like, id string) {
		like.TweetID = id
	})
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, param, what string,
	exists func(ctx context.Context, id string) error, setTarget func(like *models.Like, id string)) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	targetID, err := parseID(chi.URLParam(r, param), what)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := exists(ctx, targetID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, notFound(capitalized(what)+" not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	like := models.Like{
		ID:        uuid.NewString(),
		LikedBy:   userID,
		CreatedAt: h.now(),
	}
	setTarget(&like, targetID)

	liked, err := h.Likes.Toggle(ctx, like)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	message := "Like removed"
	if liked {
		message = "Liked"
	}

	respond(ctx, w, http.StatusOK, message, map[string]bool{"liked": liked})
}

// LikedVideos handles GET /api/v1/likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videos, err := h.Likes.LikedVideos(ctx, middleware.UserIDFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if videos == nil {
		videos = []models.VideoWithOwner{}
	}

	respond(ctx, w, http.StatusOK, "Liked videos fetched", videos)
}

func capitalized(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func (h LikeHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
