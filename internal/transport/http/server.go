package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/party-relay/internal/config"
	"github.com/vovakirdan/party-relay/internal/core"
)

// NewServer builds the HTTP server. WebSocket clients may connect at "/"
// or "/ws". A nil gatherer disables /metrics.
func NewServer(hub *core.Hub, gatherer prometheus.Gatherer, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr(),
		Handler:           NewHandler(hub, gatherer, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewHandler mounts the WebSocket endpoints directly on a ServeMux and
// hands every other path to the gin router. Upgrades must not pass through
// gin's ResponseWriter, which refuses to hijack once headers are written.
func NewHandler(hub *core.Hub, gatherer prometheus.Gatherer, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	ws := NewWSHandler(hub, cfg.MaxMessageBytes, logger)

	mux := stdhttp.NewServeMux()
	mux.Handle("/{$}", ws)
	mux.Handle("/ws", ws)
	mux.Handle("/", NewRouter(hub, gatherer, logger))
	return mux
}

// NewRouter wires the REST routes onto a gin engine.
func NewRouter(hub *core.Hub, gatherer prometheus.Gatherer, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	rooms := NewRoomHandlers(hub, logger)
	api := router.Group("/api")
	api.GET("/rooms", rooms.ListRooms)
	api.GET("/rooms/:id", rooms.GetRoom)

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
