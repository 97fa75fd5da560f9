package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/collab-backend-go/internal/config"
	"github.com/cmlabs-hris/collab-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/collab-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/collab-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	JWTService jwt.Service,
	logger *slog.Logger,
	cfg *config.Config,
	healthHandler HealthHandler,
	invitationHandler InvitationHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.CORSAllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/healthz", healthHandler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Public: an invitee opening the emailed link may not be signed in yet
		r.Get("/invitations/{token}", invitationHandler.GetInvitationByToken)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Post("/invitations/{token}/accept", invitationHandler.ConsumeInvitation)

			r.Route("/projects", func(r chi.Router) {
				r.Route("/invitations", func(r chi.Router) {
					r.Get("/", invitationHandler.ListMyInvitations)
					r.Post("/{inviteId}/accept", invitationHandler.AcceptInvitation)
					r.Post("/{inviteId}/reject", invitationHandler.RejectInvitation)
				})

				r.With(middleware.RateLimit(cfg.RateLimit, middleware.UserKey)).
					Post("/{slug}/invitations", invitationHandler.CreateInvitation)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})

	return r
}
