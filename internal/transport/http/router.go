package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/givingly/giveaway-api/internal/application/catalog"
	"github.com/givingly/giveaway-api/internal/application/comment"
	"github.com/givingly/giveaway-api/internal/application/community"
	"github.com/givingly/giveaway-api/internal/application/giveaway"
	"github.com/givingly/giveaway-api/internal/application/notification"
	"github.com/givingly/giveaway-api/internal/application/picture"
	"github.com/givingly/giveaway-api/internal/application/user"
	"github.com/givingly/giveaway-api/internal/config"
	"github.com/givingly/giveaway-api/internal/domain"
	"github.com/givingly/giveaway-api/internal/infrastructure/analytics"
	"github.com/givingly/giveaway-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/givingly/giveaway-api/internal/infrastructure/jwt"
	s3infra "github.com/givingly/giveaway-api/internal/infrastructure/s3"
	"github.com/givingly/giveaway-api/internal/infrastructure/sns"
	"github.com/givingly/giveaway-api/internal/transport/http/handler"
	appmiddleware "github.com/givingly/giveaway-api/internal/transport/http/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	GiveawayRepo     *dynamo.GiveawayRepo
	CommentRepo      *dynamo.CommentRepo
	NotificationRepo *dynamo.NotificationRepo
	CommunityRepo    *dynamo.CommunityRepo
	CatalogRepo      *dynamo.CatalogRepo
	PictureRepo      *dynamo.PictureRepo
	S3Store          *s3infra.Store
	Publisher        sns.Publisher
	Analytics        *analytics.Client
	JWTProvider      *jwtinfra.Provider
	Log              *logrus.Logger
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to abuse-prone endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	notifSvc := notification.NewService(deps.NotificationRepo, deps.UserRepo, deps.Publisher, deps.Log)
	giveawaySvc := giveaway.NewService(giveaway.ServiceDeps{
		Repo:      deps.GiveawayRepo,
		Notifier:  notifSvc,
		Analytics: deps.Analytics,
		Log:       deps.Log,
	})
	commentSvc := comment.NewService(deps.CommentRepo, deps.GiveawayRepo, notifSvc, deps.Log)
	communitySvc := community.NewService(deps.CommunityRepo, cfg.MapBoxMapID, cfg.MapBoxAccessToken)
	catalogSvc := catalog.NewService(deps.CatalogRepo)
	userSvc := user.NewService(user.ServiceDeps{UserRepo: deps.UserRepo, JWTProvider: deps.JWTProvider})
	pictureSvc := picture.NewService(deps.S3Store, deps.PictureRepo)

	healthH := handler.NewHealthHandler()
	giveawayH := handler.NewGiveawayHandler(giveawaySvc)
	commentH := handler.NewCommentHandler(commentSvc)
	notifH := handler.NewNotificationHandler(notifSvc)
	communityH := handler.NewCommunityHandler(communitySvc)
	catalogH := handler.NewCatalogHandler(catalogSvc)
	userH := handler.NewUserHandler(userSvc)
	pictureH := handler.NewPictureHandler(pictureSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/sessions/login", userH.Login)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)

		r.Get("/giveaways", giveawayH.List)
		r.Get("/giveaways/{id}", giveawayH.Get)
		r.Get("/giveaways/{id}/pageviews", giveawayH.Pageviews)
		r.Get("/giveaways/{id}/infobox-opens", giveawayH.InfoboxOpens)
		r.Get("/giveaways/{id}/comments", commentH.ListByGiveaway)

		r.Get("/communities", communityH.List)
		r.Get("/communities/{id}", communityH.Get)

		r.Get("/parent-categories", catalogH.ListParentCategories)
		r.Get("/categories", catalogH.ListCategories)
		r.Get("/categories/{id}", catalogH.GetCategory)
		r.Get("/status-types", catalogH.ListStatusTypes)
		r.Get("/status-types/{id}", catalogH.GetStatusType)

		r.Get("/pictures/{id}", pictureH.Download)

		// ── Authenticated routes ─────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/giveaways", giveawayH.Create)
			r.Put("/giveaways/{id}", giveawayH.Update)
			r.With(sensitiveRL.Limit).Post("/giveaways/{id}/flag", giveawayH.Flag)
			r.Post("/giveaways/{id}/remove", giveawayH.Remove)
			r.Post("/giveaways/{id}/status-updates", giveawayH.PushStatusUpdate)
			r.With(sensitiveRL.Limit).Post("/giveaways/{id}/vote-up", giveawayH.VoteUp)
			r.With(sensitiveRL.Limit).Post("/giveaways/{id}/vote-down", giveawayH.VoteDown)
			r.Post("/giveaways/{id}/unvote", giveawayH.Unvote)

			r.Post("/giveaways/{id}/comments", commentH.Create)
			r.With(sensitiveRL.Limit).Post("/comments/{commentID}/flag", commentH.Flag)
			r.Post("/comments/{commentID}/remove", commentH.Remove)

			r.Get("/notifications", notifH.ListUnread)
			r.Put("/notifications/{id}", notifH.MarkAsRead)
			r.Delete("/notifications/{id}", notifH.Delete)

			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)
			r.Post("/users/change-password", userH.ChangePassword)

			r.Post("/pictures", pictureH.Upload)
			r.Delete("/pictures/{id}", pictureH.Delete)

			// Moderator/admin routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleModerator, domain.RoleAdmin))

				r.Get("/giveaways-flagged", giveawayH.ListFlagged)
				r.Post("/giveaways/{id}/unflag", giveawayH.Unflag)
				r.Post("/giveaways/{id}/remove-flagged", giveawayH.RemoveFlagged)
				r.Post("/giveaways/{id}/restore", giveawayH.Restore)
				r.Post("/comments/{commentID}/unflag", commentH.Unflag)

				r.Post("/communities", communityH.Create)
				r.Put("/communities/{id}", communityH.Update)

				r.Get("/users", userH.List)
			})

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Delete("/users/{id}", userH.Disable)

				r.Post("/parent-categories", catalogH.CreateParentCategory)
				r.Post("/categories", catalogH.CreateCategory)
				r.Post("/status-types", catalogH.CreateStatusType)
				r.Put("/status-types/{id}", catalogH.UpdateStatusType)
				r.Delete("/status-types/{id}", catalogH.DeleteStatusType)
			})
		})
	})

	return r
}
