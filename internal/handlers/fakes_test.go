package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"os"
	"sort"
	"strings"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

type fakeUserStore struct {
	users       map[string]models.User
	watched     map[string][]string
	findCalls   int
	existsCalls int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:   make(map[string]models.User),
		watched: make(map[string][]string),
	}
}

func (s *fakeUserStore) Create(_ context.Context, user models.User) error {
	for _, u := range s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.findCalls++
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *fakeUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *fakeUserStore) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	s.existsCalls++
	for _, u := range s.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) UpdateProfile(_ context.Context, id, fullName, email string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.FullName, user.Email = fullName, email
	s.users[id] = user
	return nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Password = passwordHash
	s.users[id] = user
	return nil
}

func (s *fakeUserStore) UpdateAvatar(_ context.Context, id, url string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Avatar = url
	s.users[id] = user
	return nil
}

func (s *fakeUserStore) UpdateCoverImage(_ context.Context, id, url string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.CoverImage = url
	s.users[id] = user
	return nil
}

func (s *fakeUserStore) ChannelProfile(_ context.Context, username, _ string) (models.ChannelProfile, error) {
	for _, u := range s.users {
		if u.Username == username {
			return models.ChannelProfile{ID: u.ID, FullName: u.FullName, Username: u.Username, Avatar: u.Avatar}, nil
		}
	}
	return models.ChannelProfile{}, repositories.ErrNotFound
}

func (s *fakeUserStore) RecordWatch(_ context.Context, userID, videoID string) error {
	s.watched[userID] = append(s.watched[userID], videoID)
	return nil
}

func (s *fakeUserStore) WatchHistory(_ context.Context, userID string) ([]models.WatchEntry, error) {
	entries := make([]models.WatchEntry, 0, len(s.watched[userID]))
	for _, videoID := range s.watched[userID] {
		entries = append(entries, models.WatchEntry{Video: models.VideoWithOwner{Video: models.Video{ID: videoID}}})
	}
	return entries, nil
}

type fakeVideoStore struct {
	videos    map[string]models.Video
	owners    map[string]models.Owner
	listCalls int
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{
		videos: make(map[string]models.Video),
		owners: make(map[string]models.Owner),
	}
}

func (s *fakeVideoStore) withOwner(video models.Video) models.VideoWithOwner {
	owner := s.owners[video.OwnerID]
	owner.ID = video.OwnerID
	return models.VideoWithOwner{Video: video, Owner: owner}
}

func (s *fakeVideoStore) List(_ context.Context, params repositories.ListVideosParams) (models.VideoPage, error) {
	s.listCalls++

	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 10
	}

	var matched []models.Video
	needle := strings.ToLower(params.Query)
	for _, v := range s.videos {
		if !v.IsPublished {
			continue
		}
		if params.OwnerID != "" && v.OwnerID != params.OwnerID {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(v.Title), needle) &&
			!strings.Contains(strings.ToLower(v.Description), needle) {
			continue
		}
		matched = append(matched, v)
	}

	sort.Slice(matched, func(i, j int) bool {
		var less bool
		switch params.SortBy {
		case "duration":
			less = matched[i].Duration < matched[j].Duration
		case "createdAt":
			less = matched[i].CreatedAt.Before(matched[j].CreatedAt)
		case "title":
			less = matched[i].Title < matched[j].Title
		default:
			less = matched[i].Views < matched[j].Views
		}
		if params.SortDesc {
			return !less
		}
		return less
	})

	page := models.VideoPage{
		TotalDocs: int64(len(matched)),
		Page:      params.Page,
		Limit:     params.Limit,
	}
	page.TotalPages = (page.TotalDocs + int64(params.Limit) - 1) / int64(params.Limit)

	start := (params.Page - 1) * params.Limit
	if start < len(matched) {
		end := start + params.Limit
		if end > len(matched) {
			end = len(matched)
		}
		for _, v := range matched[start:end] {
			page.Docs = append(page.Docs, s.withOwner(v))
		}
	}

	return page, nil
}

func (s *fakeVideoStore) Create(_ context.Context, video models.Video) error {
	s.videos[video.ID] = video
	return nil
}

func (s *fakeVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *fakeVideoStore) FindWithOwner(_ context.Context, id string) (models.VideoWithOwner, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.VideoWithOwner{}, repositories.ErrNotFound
	}
	return s.withOwner(video), nil
}

func (s *fakeVideoStore) Update(_ context.Context, video models.Video) error {
	stored, ok := s.videos[video.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.Title, stored.Description, stored.Thumbnail = video.Title, video.Description, video.Thumbnail
	s.videos[video.ID] = stored
	return nil
}

func (s *fakeVideoStore) Delete(_ context.Context, id string) error {
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

func (s *fakeVideoStore) TogglePublished(_ context.Context, id string) error {
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.IsPublished = !video.IsPublished
	s.videos[id] = video
	return nil
}

func (s *fakeVideoStore) IncrementViews(_ context.Context, id string) error {
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Views++
	s.videos[id] = video
	return nil
}

type fakeCommentStore struct {
	comments map[string]models.Comment
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: make(map[string]models.Comment)}
}

func (s *fakeCommentStore) Create(_ context.Context, comment models.Comment) error {
	s.comments[comment.ID] = comment
	return nil
}

func (s *fakeCommentStore) FindByID(_ context.Context, id string) (models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (s *fakeCommentStore) ListForVideo(_ context.Context, videoID string, page, limit int) (models.CommentPage, error) {
	result := models.CommentPage{Page: page, Limit: limit}
	for _, c := range s.comments {
		if c.VideoID == videoID {
			result.Docs = append(result.Docs, models.CommentWithOwner{Comment: c})
			result.TotalDocs++
		}
	}
	result.TotalPages = (result.TotalDocs + int64(limit) - 1) / int64(limit)
	return result, nil
}

func (s *fakeCommentStore) Update(_ context.Context, id, content string) error {
	comment, ok := s.comments[id]
	if !ok {
		return repositories.ErrNotFound
	}
	comment.Content = content
	s.comments[id] = comment
	return nil
}

func (s *fakeCommentStore) Delete(_ context.Context, id string) error {
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

type fakeLikeStore struct {
	likes map[string]models.Like
}

func newFakeLikeStore() *fakeLikeStore {
	return &fakeLikeStore{likes: make(map[string]models.Like)}
}

func likeKey(like models.Like) string {
	return like.LikedBy + "|" + like.VideoID + "|" + like.CommentID + "|" + like.TweetID
}

func (s *fakeLikeStore) Toggle(_ context.Context, like models.Like) (bool, error) {
	key := likeKey(like)
	if _, ok := s.likes[key]; ok {
		delete(s.likes, key)
		return false, nil
	}
	s.likes[key] = like
	return true, nil
}

func (s *fakeLikeStore) LikedVideos(_ context.Context, userID string) ([]models.VideoWithOwner, error) {
	var videos []models.VideoWithOwner
	for _, like := range s.likes {
		if like.LikedBy == userID && like.VideoID != "" {
			videos = append(videos, models.VideoWithOwner{Video: models.Video{ID: like.VideoID}})
		}
	}
	return videos, nil
}

type fakeTweetStore struct {
	tweets map[string]models.Tweet
}

func newFakeTweetStore() *fakeTweetStore {
	return &fakeTweetStore{tweets: make(map[string]models.Tweet)}
}

func (s *fakeTweetStore) Create(_ context.Context, tweet models.Tweet) error {
	s.tweets[tweet.ID] = tweet
	return nil
}

func (s *fakeTweetStore) FindByID(_ context.Context, id string) (models.Tweet, error) {
	tweet, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	return tweet, nil
}

func (s *fakeTweetStore) ListForUser(_ context.Context, ownerID string) ([]models.Tweet, error) {
	var tweets []models.Tweet
	for _, t := range s.tweets {
		if t.OwnerID == ownerID {
			tweets = append(tweets, t)
		}
	}
	return tweets, nil
}

func (s *fakeTweetStore) Update(_ context.Context, id, content string) error {
	tweet, ok := s.tweets[id]
	if !ok {
		return repositories.ErrNotFound
	}
	tweet.Content = content
	s.tweets[id] = tweet
	return nil
}

func (s *fakeTweetStore) Delete(_ context.Context, id string) error {
	if _, ok := s.tweets[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.tweets, id)
	return nil
}

type fakeSubscriptionStore struct {
	subs map[string]models.Subscription
}

func newFakeSubscriptionStore() *fakeSubscriptionStore {
	return &fakeSubscriptionStore{subs: make(map[string]models.Subscription)}
}

func (s *fakeSubscriptionStore) Toggle(_ context.Context, sub models.Subscription) (bool, error) {
	key := sub.SubscriberID + "|" + sub.ChannelID
	if _, ok := s.subs[key]; ok {
		delete(s.subs, key)
		return false, nil
	}
	s.subs[key] = sub
	return true, nil
}

func (s *fakeSubscriptionStore) Subscribers(_ context.Context, channelID string) ([]models.SubscriptionEntry, error) {
	var entries []models.SubscriptionEntry
	for _, sub := range s.subs {
		if sub.ChannelID == channelID {
			entries = append(entries, models.SubscriptionEntry{
				ID:         sub.ID,
				Subscriber: models.Owner{ID: sub.SubscriberID},
				Channel:    models.Owner{ID: sub.ChannelID},
			})
		}
	}
	return entries, nil
}

func (s *fakeSubscriptionStore) SubscribedTo(_ context.Context, subscriberID string) ([]models.SubscriptionEntry, error) {
	var entries []models.SubscriptionEntry
	for _, sub := range s.subs {
		if sub.SubscriberID == subscriberID {
			entries = append(entries, models.SubscriptionEntry{
				ID:         sub.ID,
				Subscriber: models.Owner{ID: sub.SubscriberID},
				Channel:    models.Owner{ID: sub.ChannelID},
			})
		}
	}
	return entries, nil
}

type fakePlaylistStore struct {
	playlists map[string]models.Playlist
	members   map[string][]string
}

func newFakePlaylistStore() *fakePlaylistStore {
	return &fakePlaylistStore{
		playlists: make(map[string]models.Playlist),
		members:   make(map[string][]string),
	}
}

func (s *fakePlaylistStore) Create(_ context.Context, playlist models.Playlist) error {
	s.playlists[playlist.ID] = playlist
	return nil
}

func (s *fakePlaylistStore) FindByID(_ context.Context, id string) (models.Playlist, error) {
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	return playlist, nil
}

func (s *fakePlaylistStore) FindWithVideos(_ context.Context, id string) (models.PlaylistWithVideos, error) {
	playlist, ok := s.playlists[id]
	if !ok {
		return models.PlaylistWithVideos{}, repositories.ErrNotFound
	}
	result := models.PlaylistWithVideos{Playlist: playlist, Videos: []models.VideoWithOwner{}}
	for _, videoID := range s.members[id] {
		result.Videos = append(result.Videos, models.VideoWithOwner{Video: models.Video{ID: videoID}})
	}
	result.TotalVideos = len(result.Videos)
	return result, nil
}

func (s *fakePlaylistStore) ListForUser(ctx context.Context, ownerID string) ([]models.PlaylistWithVideos, error) {
	var results []models.PlaylistWithVideos
	for id, p := range s.playlists {
		if p.OwnerID == ownerID {
			full, err := s.FindWithVideos(ctx, id)
			if err != nil {
				return nil, err
			}
			results = append(results, full)
		}
	}
	return results, nil
}

func (s *fakePlaylistStore) Update(_ context.Context, id, name, description string) error {
	playlist, ok := s.playlists[id]
	if !ok {
		return repositories.ErrNotFound
	}
	playlist.Name, playlist.Description = name, description
	s.playlists[id] = playlist
	return nil
}

func (s *fakePlaylistStore) Delete(_ context.Context, id string) error {
	if _, ok := s.playlists[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.playlists, id)
	delete(s.members, id)
	return nil
}

func (s *fakePlaylistStore) AddVideo(_ context.Context, playlistID, videoID string) error {
	for _, existing := range s.members[playlistID] {
		if existing == videoID {
			return nil
		}
	}
	s.members[playlistID] = append(s.members[playlistID], videoID)
	return nil
}

func (s *fakePlaylistStore) RemoveVideo(_ context.Context, playlistID, videoID string) error {
	members := s.members[playlistID]
	for i, existing := range members {
		if existing == videoID {
			s.members[playlistID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *fakePlaylistStore) TogglePublic(_ context.Context, id string) error {
	playlist, ok := s.playlists[id]
	if !ok {
		return repositories.ErrNotFound
	}
	playlist.IsPublic = !playlist.IsPublic
	s.playlists[id] = playlist
	return nil
}

type fakeSessionManager struct {
	counter int
	tokens  map[string]string
	revoked []string
}

func newFakeSessionManager() *fakeSessionManager {
	return &fakeSessionManager{tokens: make(map[string]string)}
}

func (s *fakeSessionManager) Issue(_ context.Context, userID string) (models.TokenPair, error) {
	s.counter++
	pair := models.TokenPair{
		AccessToken:  "access-" + userID,
		RefreshToken: "refresh-" + userID,
	}
	s.tokens[pair.AccessToken] = userID
	s.tokens[pair.RefreshToken] = userID
	return pair, nil
}

func (s *fakeSessionManager) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	userID, ok := s.tokens[refreshToken]
	if !ok {
		return models.TokenPair{}, errors.New("unknown refresh token")
	}
	return s.Issue(ctx, userID)
}

func (s *fakeSessionManager) Revoke(_ context.Context, userID string) error {
	s.revoked = append(s.revoked, userID)
	return nil
}

func (s *fakeSessionManager) Verify(token string) (string, error) {
	userID, ok := s.tokens[token]
	if !ok {
		return "", errors.New("unknown token")
	}
	return userID, nil
}

type fakeStorage struct {
	saved []string
}

func (s *fakeStorage) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	s.saved = append(s.saved, name)
	return "https://cdn.test/" + name, nil
}

type fakeStager struct{}

func (fakeStager) Stage(fh *multipart.FileHeader) (string, func(), error) {
	src, err := fh.Open()
	if err != nil {
		return "", nil, err
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "staged-*")
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", nil, err
	}
	dst.Close()

	return dst.Name(), func() { os.Remove(dst.Name()) }, nil
}

type fakeProber struct {
	duration float64
}

func (p fakeProber) Duration(context.Context, string) (float64, error) {
	return p.duration, nil
}

func newTestDependencies() (Dependencies, *fakeUserStore, *fakeVideoStore, *fakeSessionManager) {
	users := newFakeUserStore()
	videos := newFakeVideoStore()
	sessions := newFakeSessionManager()

	deps := Dependencies{
		Users:         users,
		Videos:        videos,
		Comments:      newFakeCommentStore(),
		Likes:         newFakeLikeStore(),
		Tweets:        newFakeTweetStore(),
		Subscriptions: newFakeSubscriptionStore(),
		Playlists:     newFakePlaylistStore(),
		Sessions:      sessions,
		Verifier:      sessions,
		Storage:       &fakeStorage{},
		Stager:        fakeStager{},
		Prober:        fakeProber{duration: 42.5},
	}
	return deps, users, videos, sessions
}
