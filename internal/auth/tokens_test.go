package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

type memorySlot struct {
	tokens map[string]string
}

func newMemorySlot() *memorySlot {
	return &memorySlot{tokens: make(map[string]string)}
}

func (s *memorySlot) SetRefreshToken(_ context.Context, userID, token string) error {
	s.tokens[userID] = token
	return nil
}

func (s *memorySlot) RefreshToken(_ context.Context, userID string) (string, error) {
	return s.tokens[userID], nil
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	slot := newMemorySlot()
	manager := NewManager("secret", time.Minute, time.Hour, slot)

	pair, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if slot.tokens["user-1"] != pair.RefreshToken {
		t.Fatal("refresh token must land in the user's slot")
	}

	userID, err := manager.Verify(pair.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %q", userID)
	}
}

func TestVerifyRejectsRefreshToken(t *testing.T) {
	manager := NewManager("secret", time.Minute, time.Hour, newMemorySlot())

	pair, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := manager.Verify(pair.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for a refresh token, got %v", err)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	other := NewManager("other-secret", time.Minute, time.Hour, newMemorySlot())
	pair, err := other.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	manager := NewManager("secret", time.Minute, time.Hour, newMemorySlot())
	if _, err := manager.Verify(pair.AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for foreign signature, got %v", err)
	}
}

func TestVerifyExpiredAccessToken(t *testing.T) {
	manager := NewManager("secret", time.Minute, time.Hour, newMemorySlot())

	issued := time.Now().UTC()
	manager.NowFunc = func() time.Time { return issued }
	pair, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	manager.NowFunc = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := manager.Verify(pair.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestRefreshRotatesSlot(t *testing.T) {
	slot := newMemorySlot()
	manager := NewManager("secret", time.Minute, time.Hour, slot)

	first, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Force a different iat so the rotated token is distinguishable.
	manager.NowFunc = func() time.Time { return time.Now().UTC().Add(time.Second) }

	second, err := manager.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("refresh must rotate the stored token")
	}
	if slot.tokens["user-1"] != second.RefreshToken {
		t.Fatal("slot must hold the rotated token")
	}

	if _, err := manager.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked reusing the old token, got %v", err)
	}
}

func TestRevokeEndsSession(t *testing.T) {
	slot := newMemorySlot()
	manager := NewManager("secret", time.Minute, time.Hour, slot)

	pair, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := manager.Revoke(context.Background(), "user-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if slot.tokens["user-1"] != "" {
		t.Fatal("revoke must clear the slot")
	}

	if _, err := manager.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked after revoke, got %v", err)
	}
}
