package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/models"
)

func TestToggleSubscriptionRoundTrip(t *testing.T) {
	deps, users, _, sessions := newTestDependencies()
	router := NewRouter(deps)

	channelID := uuid.NewString()
	users.users[channelID] = models.User{ID: channelID, Username: "channel"}
	users.users["viewer"] = models.User{ID: "viewer"}
	tokens, _ := sessions.Issue(context.Background(), "viewer")

	toggle := func() bool {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/"+channelID, nil)
		req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
		}
		env := decodeEnvelope(t, rec)
		var data map[string]bool
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		return data["subscribed"]
	}

	if !toggle() {
		t.Fatal("first toggle should subscribe")
	}
	if toggle() {
		t.Fatal("second toggle should unsubscribe")
	}
}

func TestToggleSubscriptionUnknownChannel(t *testing.T) {
	deps, users, _, sessions := newTestDependencies()
	router := NewRouter(deps)

	users.users["viewer"] = models.User{ID: "viewer"}
	tokens, _ := sessions.Issue(context.Background(), "viewer")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSubscriberListingsArePublic(t *testing.T) {
	deps, _, _, _ := newTestDependencies()
	subs := deps.Subscriptions.(*fakeSubscriptionStore)
	router := NewRouter(deps)

	channelID := uuid.NewString()
	subs.subs["viewer|"+channelID] = models.Subscription{ID: uuid.NewString(), SubscriberID: "viewer", ChannelID: channelID}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/u/"+channelID, nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	env := decodeEnvelope(t, rec)
	var entries []models.SubscriptionEntry
	if err := json.Unmarshal(env.Data, &entries); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one subscriber, got %d", len(entries))
	}
}
