package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// maxTweetImages caps the attachments accepted on one tweet.
const maxTweetImages = 10

// TweetHandler implements tweet endpoints.
type TweetHandler struct {
	Tweets  TweetStore
	Storage FileStorage

	NowFunc func() time.Time
}

// Create handles POST /api/v1/tweets.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		respondError(ctx, w, badRequest("Invalid multipart payload"))
		return
	}

	content := strings.TrimSpace(r.FormValue("content"))
	if content == "" {
		respondError(ctx, w, badRequest("content is required"))
		return
	}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File["images"]
	}
	if len(headers) > maxTweetImages {
		respondError(ctx, w, badRequest("A tweet can carry at most 10 images"))
		return
	}

	images := []string{}
	for _, fh := range headers {
		url, err := saveUpload(ctx, h.Storage, "tweets", fh)
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		images = append(images, url)
	}

	now := h.now()
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		OwnerID:   userID,
		Content:   content,
		Images:    images,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Tweets.Create(ctx, tweet); err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusCreated, "Tweet posted", tweet)
}

// ListForUser handles GET /api/v1/tweets/user/{userId}.
func (h TweetHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, err := parseID(chi.URLParam(r, "userId"), "user")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	tweets, err := h.Tweets.ListForUser(ctx, ownerID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if tweets == nil {
		tweets = []models.Tweet{}
	}

	respond(ctx, w, http.StatusOK, "Tweets fetched", tweets)
}

// Update handles PATCH /api/v1/tweets/{tweetId}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	tweetID, err := parseID(chi.URLParam(r, "tweetId"), "tweet")
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

	tweet, err := h.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, notFound("Tweet not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}
	if tweet.OwnerID != userID {
		respondError(ctx, w, unauthorized("You do not own this tweet"))
		return
	}

	if err := h.Tweets.Update(ctx, tweetID, req.Content); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, internalError("Tweet disappeared during update"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, "Tweet updated", updated)
}

// Delete handles DELETE /api/v1/tweets/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	tweetID, err := parseID(chi.URLParam(r, "tweetId"), "tweet")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	tweet, err := h.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, notFound("Tweet not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}
	if tweet.OwnerID != userID {
		respondError(ctx, w, unauthorized("You do not own this tweet"))
		return
	}

	if err := h.Tweets.Delete(ctx, tweetID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, internalError("Tweet disappeared during delete"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, "Tweet deleted", nil)
}

func (h TweetHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
