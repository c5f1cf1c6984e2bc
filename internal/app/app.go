package app

import (
	"context"
	"errors"
	"net"
	stdhttp "net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/party-relay/internal/config"
	"github.com/vovakirdan/party-relay/internal/core"
	"github.com/vovakirdan/party-relay/internal/metrics"
	transporthttp "github.com/vovakirdan/party-relay/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	port            int
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hubOpts := []core.Option{
		core.WithLogger(logger),
		core.WithSendQueueSize(cfg.SendQueueSize),
	}

	var gatherer prometheus.Gatherer
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		hubOpts = append(hubOpts, core.WithMetrics(metrics.New(reg)))
		gatherer = reg
	}

	hub := core.NewHub(hubOpts...)
	server := transporthttp.NewServer(hub, gatherer, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		port:            cfg.Port,
		log:             logger,
	}, nil
}

// Hub exposes the relay core, mainly for tests.
func (a *App) Hub() *core.Hub {
	return a.hub
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return err
	}
	return a.Serve(ctx, listener)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, listener net.Listener) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

	a.logBanner(listener.Addr())

	go func() {
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		// Hijacked WebSocket connections are not tracked by Shutdown, so the
		// hub closes them first.
		stopHub()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}

func (a *App) logBanner(addr net.Addr) {
	port := a.port
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = tcp.Port
	}
	p := strconv.Itoa(port)

	a.log.Info().Str("url", "ws://localhost:"+p).Msg("party relay listening")
	for _, ip := range lanAddrs() {
		a.log.Info().Str("url", "ws://"+net.JoinHostPort(ip, p)).Msg("reachable on LAN")
	}
}

// lanAddrs lists non-loopback IPv4 addresses of the local interfaces.
func lanAddrs() []string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}

	var out []string
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			out = append(out, ip4.String())
		}
	}
	return out
}
