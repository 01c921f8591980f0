package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// SubscriptionHandler implements the subscription toggle and listings.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	Users         UserStore

	NowFunc func() time.Time
}

// Toggle handles POST /api/v1/subscriptions/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	channelID, err := parseID(chi.URLParam(r, "channelId"), "channel")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if _, err := h.Users.FindByID(ctx, channelID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, notFound("Channel not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	subscribed, err := h.Subscriptions.Toggle(ctx, models.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: userID,
		ChannelID:    channelID,
		CreatedAt:    h.now(),
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	message := "Unsubscribed"
	if subscribed {
		message = "Subscribed"
	}

	respond(ctx, w, http.StatusOK, message, map[string]bool{"subscribed": subscribed})
}

// Subscribers handles GET /api/v1/subscriptions/u/{channelId}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channelID, err := parseID(chi.URLParam(r, "channelId"), "channel")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	entries, err := h.Subscriptions.Subscribers(ctx, channelID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if entries == nil {
		entries = []models.SubscriptionEntry{}
	}

	respond(ctx, w, http.StatusOK, "Subscribers fetched", entries)
}

// SubscribedTo handles GET /api/v1/subscriptions/c/{subscriberId}.
func (h SubscriptionHandler) SubscribedTo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subscriberID, err := parseID(chi.URLParam(r, "subscriberId"), "subscriber")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	entries, err := h.Subscriptions.SubscribedTo(ctx, subscriberID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if entries == nil {
		entries = []models.SubscriptionEntry{}
	}

	respond(ctx, w, http.StatusOK, "Subscribed channels fetched", entries)
}

func (h SubscriptionHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
