package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clipstream/backend/internal/middleware"
)

// NewRouter builds the full route table.
func NewRouter(deps Dependencies) http.Handler {
	users := UserHandler{
		Users:        deps.Users,
		Sessions:     deps.Sessions,
		Storage:      deps.Storage,
		CookieSecure: deps.CookieSecure,
	}
	videos := VideoHandler{
		Videos:  deps.Videos,
		Users:   deps.Users,
		Storage: deps.Storage,
		Stager:  deps.Stager,
		Prober:  deps.Prober,
	}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos}
	likes := LikeHandler{
		Likes:    deps.Likes,
		Videos:   deps.Videos,
		Comments: deps.Comments,
		Tweets:   deps.Tweets,
	}
	tweets := TweetHandler{Tweets: deps.Tweets, Storage: deps.Storage}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions, Users: deps.Users}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos}

	requireAuth := middleware.RequireAuth(deps.Verifier)
	optionalAuth := middleware.OptionalAuth(deps.Verifier)
	throttle := deps.AuthLimiter
	if throttle == nil {
		throttle = func(next http.Handler) http.Handler { return next }
	}

	r := chi.NewRouter()
	r.Get("/healthz", HealthHandler{}.Handle)

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/users", func(u chi.Router) {
			u.With(throttle).Post("/register", users.Register)
			u.With(throttle).Post("/login", users.Login)
			u.With(throttle).Post("/refresh", users.Refresh)

			u.With(optionalAuth).Get("/c/{username}", users.Channel)

			u.Group(func(p chi.Router) {
				p.Use(requireAuth)
				p.Post("/logout", users.Logout)
				p.Get("/me", users.Me)
				p.Patch("/me", users.UpdateMe)
				p.Post("/change-password", users.ChangePassword)
				p.Patch("/avatar", users.UpdateAvatar)
				p.Patch("/cover-image", users.UpdateCoverImage)
				p.Get("/history", users.History)
			})
		})

		api.Route("/videos", func(v chi.Router) {
			v.Get("/", videos.List)
			v.With(optionalAuth).Get("/{videoId}", videos.Get)

			v.Group(func(p chi.Router) {
				p.Use(requireAuth)
				p.Post("/", videos.Create)
				p.Patch("/{videoId}", videos.Update)
				p.Delete("/{videoId}", videos.Delete)
				p.Patch("/{videoId}/toggle-publish", videos.TogglePublish)
			})
		})

		api.Route("/comments", func(c chi.Router) {
			c.Get("/{videoId}", comments.List)

			c.Group(func(p chi.Router) {
				p.Use(requireAuth)
				p.Post("/{videoId}", comments.Create)
				p.Patch("/c/{commentId}", comments.Update)
				p.Delete("/c/{commentId}", comments.Delete)
			})
		})

		api.Route("/likes", func(l chi.Router) {
			l.Use(requireAuth)
			l.Post("/toggle/v/{videoId}", likes.ToggleVideo)
			l.Post("/toggle/c/{commentId}", likes.ToggleComment)
			l.Post("/toggle/t/{tweetId}", likes.ToggleTweet)
			l.Get("/videos", likes.LikedVideos)
		})

		api.Route("/tweets", func(t chi.Router) {
			t.Get("/user/{userId}", tweets.ListForUser)

			t.Group(func(p chi.Router) {
				p.Use(requireAuth)
				p.Post("/", tweets.Create)
				p.Patch("/{tweetId}", tweets.Update)
				p.Delete("/{tweetId}", tweets.Delete)
			})
		})

		api.Route("/subscriptions", func(s chi.Router) {
			s.Get("/u/{channelId}", subscriptions.Subscribers)
			s.Get("/c/{subscriberId}", subscriptions.SubscribedTo)
			s.With(requireAuth).Post("/{channelId}", subscriptions.Toggle)
		})

		api.Route("/playlists", func(p chi.Router) {
			p.Get("/user/{userId}", playlists.ListForUser)
			p.Get("/{playlistId}", playlists.Get)

			p.Group(func(a chi.Router) {
				a.Use(requireAuth)
				a.Post("/", playlists.Create)
				a.Patch("/{playlistId}", playlists.Update)
				a.Delete("/{playlistId}", playlists.Delete)
				a.Patch("/{playlistId}/toggle-public", playlists.TogglePublic)
				a.Post("/{playlistId}/videos/{videoId}", playlists.AddVideo)
				a.Delete("/{playlistId}/videos/{videoId}", playlists.RemoveVideo)
			})
		})
	})

	return r
}
