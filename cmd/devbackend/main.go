// devbackend - локальный REST-бэкенд task-board для разработки CLI и тестов.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/go-taskboard/internal/backend"
	"github.com/pribylovaa/go-taskboard/internal/config"
	logctx "github.com/pribylovaa/go-taskboard/internal/pkg/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := logctx.New(cfg.Env, os.Stdout)
	slog.SetDefault(log)
	log.Info("starting devbackend", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", cfg.Backend.Addr())
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", cfg.Backend.Addr()), slog.String("err", err.Error()))
		os.Exit(1)
	}

	svc := backend.New(cfg.Backend, backend.Options{Registerer: prometheus.DefaultRegisterer})
	if err := serve(ctx, ln, svc, cfg.Backend.Timeout, log); err != nil {
		log.Error("http_serve_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("service_stopped")
}

// serve обслуживает ln до отмены ctx, затем останавливает сервер с
// shutdownTimeout. healthz отвечает 503 до старта и во время остановки.
func serve(ctx context.Context, ln net.Listener, svc *backend.Service, timeout time.Duration, log *slog.Logger) error {
	var ready atomic.Bool

	srv := &http.Server{
		Handler:           newMux(svc, log, timeout, &ready),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	ready.Store(true)
	log.Info("devbackend_ready", slog.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutdown_requested")
	}

	ready.Store(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
		return nil
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("http_stopped")

	return nil
}

// newMux - API бэкенда плюс служебные livez, healthz и metrics.
func newMux(svc *backend.Service, log *slog.Logger, timeout time.Duration, ready *atomic.Bool) http.Handler {
	r := chi.NewRouter()

	r.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !ready.Load() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/", backend.NewRouter(svc, backend.RouterOptions{Logger: log, Timeout: timeout}))

	return r
}
