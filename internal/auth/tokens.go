package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/models"
)

var (
	// ErrTokenInvalid indicates the provided token failed signature or claim checks.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired indicates the token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked indicates the refresh token no longer matches the user's
	// stored slot; rotation or logout invalidated it.
	ErrTokenRevoked = errors.New("refresh token revoked")
)

// RefreshSlot persists the single refresh-token slot kept per user. Issuing a
// new refresh token overwrites the slot, invalidating the previous token.
type RefreshSlot interface {
	SetRefreshToken(ctx context.Context, userID, token string) error
	RefreshToken(ctx context.Context, userID string) (string, error)
}

// Manager issues and verifies the JWT pairs backing cookie sessions.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	slot RefreshSlot

	// NowFunc overrides the time source in tests.
	NowFunc func() time.Time
}

// NewManager constructs a Manager signing HS256 tokens with the given TTLs.
func NewManager(secret string, accessTTL, refreshTTL time.Duration, slot RefreshSlot) *Manager {
	if slot == nil {
		panic("auth: refresh slot must not be nil")
	}
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		slot:       slot,
	}
}

// Issue creates a new access/refresh pair for the user and stores the refresh
// token in the user's slot.
func (m *Manager) Issue(ctx context.Context, userID string) (models.TokenPair, error) {
	if userID == "" {
		return models.TokenPair{}, errors.New("user id must be provided")
	}

	now := m.now()
	accessExpiry := now.Add(m.accessTTL)
	refreshExpiry := now.Add(m.refreshTTL)

	accessToken, err := m.sign(userID, "access", now, accessExpiry)
	if err != nil {
		return models.TokenPair{}, err
	}

	refreshToken, err := m.sign(userID, "refresh", now, refreshExpiry)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := m.slot.SetRefreshToken(ctx, userID, refreshToken); err != nil {
		return models.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return models.TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// Verify checks an access token and returns the authenticated user id.
func (m *Manager) Verify(tokenStr string) (string, error) {
	return m.parse(tokenStr, "access")
}

// Refresh exchanges a refresh token for a new pair, rotating the stored slot.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	if refreshToken == "" {
		return models.TokenPair{}, ErrTokenInvalid
	}

	userID, err := m.parse(refreshToken, "refresh")
	if err != nil {
		return models.TokenPair{}, err
	}

	stored, err := m.slot.RefreshToken(ctx, userID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("load refresh token: %w", err)
	}
	if stored == "" || stored != refreshToken {
		return models.TokenPair{}, ErrTokenRevoked
	}

	return m.Issue(ctx, userID)
}

// Revoke empties the user's refresh slot, ending the session.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return m.slot.SetRefreshToken(ctx, userID, "")
}

func (m *Manager) sign(userID, tokenType string, issuedAt, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"typ": tokenType,
		"jti": uuid.NewString(),
		"iat": issuedAt.Unix(),
		"exp": expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (m *Manager) parse(tokenStr, wantType string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrTokenInvalid
	}

	if typ, _ := claims["typ"].(string); typ != wantType {
		return "", ErrTokenInvalid
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		return "", ErrTokenInvalid
	}

	return userID, nil
}

func (m *Manager) now() time.Time {
	if m.NowFunc != nil {
		return m.NowFunc()
	}
	return time.Now().UTC()
}
