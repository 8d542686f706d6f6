package httptransport

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"career-bingo/internal/broadcast"
	"career-bingo/internal/config"
	"career-bingo/internal/game"
	"career-bingo/internal/match"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type RoomLister interface {
	ListRooms(ctx context.Context) ([]game.Room, error)
}

// Deps are the services the router wires together. MCP and Redis are
// optional.
type Deps struct {
	Config   config.ServerConfig
	Registry *match.Registry
	Hub      *broadcast.Hub
	Rooms    RoomLister
	Store    Pinger
	Redis    Pinger
	MCP      http.Handler
}

func NewRouter(d Deps) *chi.Mux {
	sessionHandlers := NewSessionHandlers(d.Registry, NewClickLimiter(d.Config.ClickRatePerSec, d.Config.ClickBurst))
	streamHandlers := NewStreamHandlers(d.Hub, d.Registry)
	publicHandlers := NewPublicHandlers(d.Rooms)
	adminHandlers := NewAdminHandlers(d.Registry, d.Store, d.Redis)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", adminHandlers.Health())
	if d.MCP != nil {
		r.With(APILogMiddleware()).MethodFunc(http.MethodOptions, "/mcp", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
		})
		r.With(APILogMiddleware()).Method(http.MethodPost, "/mcp", d.MCP)
		r.With(APILogMiddleware()).Method(http.MethodGet, "/mcp", d.MCP)
		r.With(APILogMiddleware()).Method(http.MethodDelete, "/mcp", d.MCP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Get("/rooms", publicHandlers.Rooms())

		r.Route("/sessions/{session_id}", func(r chi.Router) {
			r.Get("/state", sessionHandlers.State())
			r.Get("/events", streamHandlers.Events())
			r.Get("/ws", streamHandlers.WS())
			r.Post("/participants", sessionHandlers.Join())
			r.Delete("/participants/{participant_id}", sessionHandlers.Leave())
			r.Post("/clicks", sessionHandlers.Click())
		})

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(d.Config.AdminAPIKey))
			r.Post("/rooms/{room_id}/sessions", adminHandlers.OpenSession())
			r.Post("/sessions/{session_id}/start", adminHandlers.StartSession())
			r.Delete("/sessions/{session_id}", adminHandlers.StopSession())

			r.Route("/debug", func(r chi.Router) {
				r.Use(BodyCaptureMiddleware(4096))
				r.Get("/vars", expvar.Handler().ServeHTTP)
			})
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
