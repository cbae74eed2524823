package httptransport

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"holder-rewards/internal/config"
	"holder-rewards/internal/pipeline"
	"holder-rewards/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

func NewRouter(st *store.Store, pl *pipeline.Pipeline, cfg config.ServerConfig) *chi.Mux {
	adminHandlers := NewAdminHandlers(st, pl)
	publicHandlers := NewPublicHandlers(st)
	claimHandlers := NewClaimHandlers(pl)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", adminHandlers.Health())

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())

		r.Get("/public/epochs", publicHandlers.Epochs())
		r.Get("/public/epochs/{seq}/rankings", publicHandlers.Rankings())
		r.Get("/public/epochs/{seq}/distributions", publicHandlers.Distributions())

		r.Post("/claims/reserve", claimHandlers.Reserve())
		r.Post("/claims/confirm", claimHandlers.Confirm())

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.AdminAPIKey))
			r.Post("/admin/pipeline/snapshot", adminHandlers.Snapshot())
			r.Post("/admin/pipeline/ranking", adminHandlers.Ranking())
			r.Post("/admin/pipeline/distribution", adminHandlers.Distribution())
			r.Post("/admin/pipeline/payout-dry-run", adminHandlers.PayoutDryRun())
			r.Post("/admin/pipeline/open-claims", adminHandlers.OpenClaims())
			r.Post("/admin/pipeline/close-claims", adminHandlers.CloseClaims())
			r.Post("/admin/pipeline/settle", adminHandlers.Settle())
			r.Post("/admin/claims/reap", adminHandlers.ReapClaims())
			r.Post("/admin/sweep", adminHandlers.Sweep())
		})
	})

	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 32)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
