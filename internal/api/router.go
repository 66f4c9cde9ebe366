package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/votingroom/internal/api/apierr"
	"github.com/mcoot/votingroom/internal/api/events"
	"github.com/mcoot/votingroom/internal/api/handler"
	"github.com/mcoot/votingroom/internal/api/middleware"
	sharedmw "github.com/mcoot/votingroom/internal/middleware"
	"github.com/mcoot/votingroom/internal/services/room"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	RoomController *room.Controller
	Hubs           *events.HubManager  // nil disables room event streams
	RateLimiter    *middleware.Limiter // nil disables rate limiting
	AllowedOrigin  string              // empty disables CORS headers
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(cfg.RoomController, cfg.Hubs)
	requireFP := middleware.RequireFingerprint

	chain := []mux.MiddlewareFunc{
		middleware.Recovery(cfg.Logger),
		sharedmw.Logging(cfg.Logger),
		middleware.Fingerprint(),
		middleware.RateLimit(cfg.RateLimiter),
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(chain...)

	api.HandleFunc("/health", roomHandler.Health).Methods(http.MethodGet)

	// Room routes. Reads are open; every mutation needs a caller fingerprint.
	rooms := api.PathPrefix("/rooms").Subrouter()
	rooms.HandleFunc("", requireFP(roomHandler.Create)).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}", roomHandler.Get).Methods(http.MethodGet)
	rooms.HandleFunc("/{id}/events", roomHandler.Events).Methods(http.MethodGet)
	rooms.HandleFunc("/{id}/join", requireFP(roomHandler.Join)).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/start", requireFP(roomHandler.Start)).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/vote", requireFP(roomHandler.Vote)).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/reset", requireFP(roomHandler.Reset)).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/generate-order", requireFP(roomHandler.GenerateOrder)).Methods(http.MethodPost)

	// mux skips Use middleware for its fallback handlers, so they are wrapped
	// here. Subrouters answer for their own prefix and need the handlers too.
	notFound := wrap(errorHandler(apierr.NewNotFoundError()), chain)
	notAllowed := wrap(errorHandler(apierr.NewMethodNotAllowedError()), chain)
	for _, sub := range []*mux.Router{r, api, rooms} {
		sub.NotFoundHandler = notFound
		sub.MethodNotAllowedHandler = notAllowed
	}

	return middleware.CORS(cfg.AllowedOrigin)(r)
}

func errorHandler(err error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, err)
	})
}

// wrap applies mws in the order mux.Router.Use would
func wrap(h http.Handler, mws []mux.MiddlewareFunc) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
