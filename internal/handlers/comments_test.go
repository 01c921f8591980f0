package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/models"
)

func TestCreateCommentRequiresContent(t *testing.T) {
	deps, users, videos, sessions := newTestDependencies()
	router := NewRouter(deps)

	videoID := uuid.NewString()
	videos.videos[videoID] = models.Video{ID: videoID, IsPublished: true}
	users.users["author"] = models.User{ID: "author"}
	tokens, _ := sessions.Issue(context.Background(), "author")

	payload, _ := json.Marshal(map[string]string{"content": "   "})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments/"+videoID, bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestCreateCommentUnknownVideo(t *testing.T) {
	deps, users, _, sessions := newTestDependencies()
	router := NewRouter(deps)

	users.users["author"] = models.User{ID: "author"}
	tokens, _ := sessions.Issue(context.Background(), "author")

	payload, _ := json.Marshal(map[string]string{"content": "nice clip"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments/"+uuid.NewString(), bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestUpdateCommentRequiresOwnership(t *testing.T) {
	deps, users, _, sessions := newTestDependencies()
	comments := deps.Comments.(*fakeCommentStore)
	router := NewRouter(deps)

	commentID := uuid.NewString()
	comments.comments[commentID] = models.Comment{ID: commentID, OwnerID: "author", Content: "original"}
	users.users["intruder"] = models.User{ID: "intruder"}
	tokens, _ := sessions.Issue(context.Background(), "intruder")

	payload, _ := json.Marshal(map[string]string{"content": "hijacked"})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/comments/c/"+commentID, bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
	if comments.comments[commentID].Content != "original" {
		t.Fatal("content must not change for a non-owner")
	}
}

func TestDeleteCommentByOwner(t *testing.T) {
	deps, users, _, sessions := newTestDependencies()
	comments := deps.Comments.(*fakeCommentStore)
	router := NewRouter(deps)

	commentID := uuid.NewString()
	comments.comments[commentID] = models.Comment{ID: commentID, OwnerID: "author"}
	users.users["author"] = models.User{ID: "author"}
	tokens, _ := sessions.Issue(context.Background(), "author")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/comments/c/"+commentID, nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if _, exists := comments.comments[commentID]; exists {
		t.Fatal("expected comment to be deleted")
	}
}
