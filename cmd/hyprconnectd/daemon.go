package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/pkg/errors"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/roomtin/hyprconnect/config"
	"github.com/roomtin/hyprconnect/internal/api"
	"github.com/roomtin/hyprconnect/internal/bus"
	"github.com/roomtin/hyprconnect/internal/db"
	"github.com/roomtin/hyprconnect/internal/health"
	"github.com/roomtin/hyprconnect/internal/ipc"
	"github.com/roomtin/hyprconnect/internal/kdeconnect"
	"github.com/roomtin/hyprconnect/internal/media"
	"github.com/roomtin/hyprconnect/internal/metrics"
	"github.com/roomtin/hyprconnect/internal/mount"
	"github.com/roomtin/hyprconnect/internal/mounttable"
	"github.com/roomtin/hyprconnect/internal/notification"
	"github.com/roomtin/hyprconnect/internal/poller"
	"github.com/roomtin/hyprconnect/internal/resolver"
	"github.com/roomtin/hyprconnect/internal/runner"
	"github.com/roomtin/hyprconnect/internal/state"
	"github.com/roomtin/hyprconnect/internal/store"
	"github.com/roomtin/hyprconnect/internal/summary"
	"github.com/roomtin/hyprconnect/internal/watcher"
)

const (
	lookupCacheTTL    = 30 * time.Second
	notificationQueue = 32
	shutdownTimeout   = 5 * time.Second
)

// run wires every component and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	log.Info().Str("socket", cfg.SocketPath).Dur("poll_interval", cfg.PollInterval).Msg("starting hyprconnectd")

	cmds := runner.NewExec(lookupCacheTTL)
	link := kdeconnect.NewClient(cmds)
	props := bus.NewBusctl(cmds)
	mounts := mounttable.New(mounttable.DefaultPath)
	states := state.NewStore()

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	var history store.Store
	if cfg.History.Enabled {
		gormDB, err := db.Init(cfg.History)
		if err != nil {
			// Continue without history.
			log.Error().Err(err).Str("dsn", cfg.History.DSN).Msg("failed to initialize history database")
		} else {
			history = store.NewGormStore(gormDB)
			log.Info().Bool("postgres", db.IsPostgres(cfg.History.DSN)).Msg("history database initialized")
		}
	}

	var pushOptions *webpush.Options
	senders := []notification.Sender{notification.NewDesktopSender()}
	if cfg.Push.Configured() {
		pushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		if history != nil {
			senders = append(senders, notification.NewWebPushSender(history.DB(), pushOptions))
		} else {
			log.Warn().Msg("web push is configured but history is disabled; push delivery is off")
		}
	}
	pool := notification.NewWorkerPool(cfg.WorkerPool.Size, notificationQueue, recorder, senders...)

	poll := poller.NewService(cfg, states, poller.Deps{
		Link:     link,
		Props:    props,
		Mounts:   mounts,
		Notifier: pool,
		History:  history,
		Metrics:  recorder,
	})

	resolve := func(explicit string) (string, error) {
		return resolver.Resolve(explicit, cfg.DefaultDevice, states.Read())
	}
	mounter := mount.NewController(link, mounts, cmds, poll, resolve, mount.Options{})

	dispatcher := ipc.NewHandler(ipc.HandlerDeps{
		Store:         states,
		DefaultDevice: cfg.DefaultDevice,
		Link:          link,
		Mounter:       mounter,
		Media:         media.NewController(props),
		Clipboard:     ipc.NewWlPaste(cmds),
		Refresher:     poll,
	})

	ln, err := ipc.Listen(cfg.SocketPath)
	if err != nil {
		return errors.Wrap(err, "failed to listen on IPC socket")
	}

	var wg sync.WaitGroup
	goRun := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	goRun(func() { pool.Start(ctx) })
	goRun(func() { poll.Run(ctx) })
	goRun(func() { watcher.New(bus.NewSessionSignals(0), poll, recorder).Run(ctx) })

	var httpServer *http.Server
	if cfg.HTTP.Enabled {
		handler := api.NewHandler(api.Deps{
			States:     states,
			History:    history,
			Health:     health.NewChecker(cmds, props),
			Thresholds: summary.Thresholds{WarnPercent: cfg.BatteryWarnPercent, CritPercent: cfg.BatteryCritPercent},
			WebPush:    pushOptions,
		})
		httpServer = &http.Server{
			Addr:              cfg.HTTP.Listen,
			Handler:           api.NewRouter(handler, cfg.HTTP, recorder.Handler()),
			ReadHeaderTimeout: 5 * time.Second,
		}
		goRun(func() {
			log.Info().Str("addr", cfg.HTTP.Listen).Msg("HTTP status API starting")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("HTTP server stopped")
			}
		})
	}

	serveErr := ipc.NewServer(dispatcher, recorder).Serve(ctx, ln)
	log.Info().Msg("shutdown signal received, stopping services")

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("HTTP server shutdown")
		}
		cancel()
	}

	wg.Wait()
	log.Info().Msg("hyprconnectd stopped")
	return serveErr
}
