package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"poseparty/internal/analytics"
	"poseparty/internal/broadcast"
	"poseparty/internal/config"
	"poseparty/internal/db"
	"poseparty/internal/events"
	"poseparty/internal/game"
	"poseparty/internal/images"
	"poseparty/internal/logging"
	"poseparty/internal/metrics"
	"poseparty/internal/publish"
	"poseparty/internal/rooms"
	"poseparty/internal/wshub"
)

const (
	sinkBuffer    = 256
	sweepInterval = time.Minute
	drainTimeout  = 5 * time.Second
)

// New assembles the in-memory server: registry, transport, dispatcher and
// metrics. Optional sinks are attached by Run.
func New(cfg config.Config) *Server {
	sel := images.NewSelector(cfg.Images, cfg.MinRoundDuration, cfg.MaxRoundDuration, nil)
	bus := events.NewBus()
	store := rooms.NewStore(func(id string) *game.Game {
		return game.New(id, cfg.TotalRounds, sel, bus)
	})
	hub := wshub.NewHub()
	m := metrics.New(store.Count, hub.Count)

	return &Server{
		Rooms:      store,
		Hub:        hub,
		Dispatcher: NewDispatcher(store, m),
		Bus:        bus,
		Metrics:    m,
		ClientOptions: wshub.Options{
			SendBuffer:   cfg.SendBuffer,
			WriteTimeout: cfg.WriteTimeout,
			MessageRate:  cfg.MessageRate,
			MessageBurst: cfg.MessageBurst,
			OnThrottle:   m.ThrottledFrames.Inc,
		},
		Origins: cfg.AllowedOrigins,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /{$}", s.handleWS)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /rooms", s.handleRooms)
	mux.HandleFunc("GET /leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /players/{name}", s.handlePlayer)
	mux.HandleFunc("GET /games/{id}", s.handleGame)
	mux.Handle("GET /metrics", s.Metrics.Handler())
	return mux
}

func Run() error {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	l := logging.For("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := New(cfg)
	fanout := broadcast.NewBroadcaster(srv.Bus)
	var sinks sync.WaitGroup
	runSink := func(fn func(in <-chan events.Lifecycle)) {
		ch := fanout.Subscribe(sinkBuffer)
		sinks.Add(1)
		go func() {
			defer sinks.Done()
			fn(ch)
		}()
	}

	runSink(func(in <-chan events.Lifecycle) { countLifecycle(srv.Metrics, in) })

	// Optional database connection
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			l.Error().Err(err).Msg("database unavailable, running without archive")
		} else {
			defer database.Close()
			if err := database.Migrate(); err != nil {
				l.Error().Err(err).Msg("migration failed")
			}
			srv.DB = database
			archiver := &analytics.Archiver{
				Store:   database,
				Timeout: 5 * time.Second,
				OnError: srv.Metrics.ArchiveErrors.Inc,
			}
			// The archiver outlives ctx so games ended by shutdown are kept.
			runSink(func(in <-chan events.Lifecycle) { archiver.Run(context.Background(), in) })
		}
	} else {
		l.Info().Msg("DATABASE_URL not set, running without archive")
	}

	if cfg.NatsURL != "" {
		nc, err := publish.Connect(cfg.NatsURL)
		if err != nil {
			l.Error().Err(err).Msg("NATS unavailable, lifecycle events will not be published")
		} else {
			defer nc.Close()
			pub := publish.New(nc, cfg.NatsSubjectPrefix)
			runSink(func(in <-chan events.Lifecycle) { pub.Run(context.Background(), in) })
		}
	}

	go srv.Rooms.Sweep(ctx, sweepInterval)

	httpSrv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		l.Info().Str("addr", httpSrv.Addr).Int("rounds", cfg.TotalRounds).Int("images", len(cfg.Images)).Msg("server listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			srv.Bus.Close()
			sinks.Wait()
			return fmt.Errorf("serving http: %w", err)
		}
	case <-ctx.Done():
		l.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		l.Warn().Err(err).Msg("http shutdown")
	}
	srv.drain(shutdownCtx)

	srv.Bus.Close()
	sinks.Wait()
	if dropped := srv.Bus.Dropped(); dropped > 0 {
		l.Warn().Int64("dropped", dropped).Msg("lifecycle events dropped during run")
	}
	return nil
}

// drain disconnects every client and waits for their games to be cleaned
// up, or for ctx to end.
func (s *Server) drain(ctx context.Context) {
	s.Hub.CloseAll()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for s.Hub.Count() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// countLifecycle feeds game progress into the metrics.
func countLifecycle(m *metrics.Metrics, in <-chan events.Lifecycle) {
	for ev := range in {
		switch ev.Kind {
		case events.KindRoundStarted:
			m.RoundsStarted.Inc()
		case events.KindGameEnded:
			m.GameEnded(ev.Completed)
		}
	}
}
