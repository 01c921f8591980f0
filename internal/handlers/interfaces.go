package handlers

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	UpdateProfile(ctx context.Context, id, fullName, email string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAvatar(ctx context.Context, id, url string) error
	UpdateCoverImage(ctx context.Context, id, url string) error
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	RecordWatch(ctx context.Context, userID, videoID string) error
	WatchHistory(ctx context.Context, userID string) ([]models.WatchEntry, error)
}

// VideoStore captures persistence for video workflows.
type VideoStore interface {
	List(ctx context.Context, params repositories.ListVideosParams) (models.VideoPage, error)
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	FindWithOwner(ctx context.Context, id string) (models.VideoWithOwner, error)
	Update(ctx context.Context, video models.Video) error
	Delete(ctx context.Context, id string) error
	TogglePublished(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
}

// CommentStore captures persistence for comment workflows.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListForVideo(ctx context.Context, videoID string, page, limit int) (models.CommentPage, error)
	Update(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}

// LikeStore captures persistence for like toggles.
type LikeStore interface {
	Toggle(ctx context.Context, like models.Like) (bool, error)
	LikedVideos(ctx context.Context, userID string) ([]models.VideoWithOwner, error)
}

// TweetStore captures persistence for tweet workflows.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	ListForUser(ctx context.Context, ownerID string) ([]models.Tweet, error)
	Update(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}

// SubscriptionStore captures persistence for subscription workflows.
type SubscriptionStore interface {
	Toggle(ctx context.Context, sub models.Subscription) (bool, error)
	Subscribers(ctx context.Context, channelID string) ([]models.SubscriptionEntry, error)
	SubscribedTo(ctx context.Context, subscriberID string) ([]models.SubscriptionEntry, error)
}

// PlaylistStore captures persistence for playlist workflows.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	FindWithVideos(ctx context.Context, id string) (models.PlaylistWithVideos, error)
	ListForUser(ctx context.Context, ownerID string) ([]models.PlaylistWithVideos, error)
	Update(ctx context.Context, id, name, description string) error
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
	TogglePublic(ctx context.Context, id string) error
}

// SessionManager issues, refreshes, and revokes authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
	Revoke(ctx context.Context, userID string) error
}

// FileStorage persists media assets and returns their public location.
type FileStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// FileStager copies multipart uploads to local disk for probing. The cleanup
// function must run on every exit path.
type FileStager interface {
	Stage(fh *multipart.FileHeader) (string, func(), error)
}

// DurationProber reads the duration of a staged media file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Dependencies aggregates everything the route table needs.
type Dependencies struct {
	Users         UserStore
	Videos        VideoStore
	Comments      CommentStore
	Likes         LikeStore
	Tweets        TweetStore
	Subscriptions SubscriptionStore
	Playlists     PlaylistStore

	Sessions SessionManager
	Verifier middleware.TokenVerifier

	Storage FileStorage
	Stager  FileStager
	Prober  DurationProber

	CookieSecure bool

	// AuthLimiter throttles the credential endpoints; nil disables it.
	AuthLimiter func(http.Handler) http.Handler
}
