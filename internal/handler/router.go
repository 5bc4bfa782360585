package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	authHandler "github.com/mindhaven/backend/internal/handler/auth"
	moodHandler "github.com/mindhaven/backend/internal/handler/mood"
	pledgeHandler "github.com/mindhaven/backend/internal/handler/pledge"
	middlewarePkg "github.com/mindhaven/backend/internal/middleware"
	"github.com/mindhaven/backend/internal/realtime"
	"github.com/mindhaven/backend/internal/repo"
	authService "github.com/mindhaven/backend/internal/service/auth"
	"github.com/mindhaven/backend/internal/service/cooldown"
	"github.com/mindhaven/backend/internal/service/moodlog"
	pledgeService "github.com/mindhaven/backend/internal/service/pledge"
	"github.com/mindhaven/backend/pkg/utils"
)

// Deps collects everything the router wires together.
type Deps struct {
	Repo      *repo.Repo
	Analyzer  moodHandler.Analyzer
	Hub       *realtime.Hub
	JWTSecret string
	Throttle  *cooldown.Policy
	Auth      *authService.Service
	MoodLogs  *moodlog.Service
	Pledges   *pledgeService.Service
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	authH := authHandler.New(deps.Auth, deps.Repo)
	moodH := moodHandler.New(deps.Analyzer, deps.MoodLogs, deps.Throttle)
	pledgeH := pledgeHandler.New(deps.Pledges, deps.Hub)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		authH.RegisterPublicRoutes(api)
		pledgeH.RegisterPublicRoutes(api)

		api.Group(func(protected chi.Router) {
			protected.Use(middlewarePkg.RequireAuth(deps.JWTSecret))
			authH.RegisterProtectedRoutes(protected)
			moodH.RegisterRoutes(protected)
			pledgeH.RegisterProtectedRoutes(protected)
		})
	})

	return r
}
