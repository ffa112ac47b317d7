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

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	health "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/talas-dev/talas/internal/auth"
	"github.com/talas-dev/talas/internal/config"
	"github.com/talas-dev/talas/internal/service"
	"github.com/talas-dev/talas/internal/storage/mongo"
	"github.com/talas-dev/talas/internal/storage/postgres"
	"github.com/talas-dev/talas/internal/transport/grpc/interceptors"
	talashttp "github.com/talas-dev/talas/internal/transport/http"
	"github.com/talas-dev/talas/internal/transport/http/middleware"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting talas-api", "env", cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("service_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("service_stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	defer dbCancel()

	pg, err := postgres.New(dbCtx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pg.Close()
	log.Info("postgres_connected")

	mg, err := mongo.New(dbCtx, cfg.Mongo.URL, cfg.Mongo.Database)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := mg.Close(context.Background()); cerr != nil {
			log.Warn("mongo_close_failed", slog.String("err", cerr.Error()))
		}
	}()
	log.Info("mongo_connected")

	svc := service.New(pg, pg, mg, cfg.Limits)
	log.Info("service_initialized")

	api := talashttp.NewRouter(svc, talashttp.Options{
		Logger:  log,
		Timeout: cfg.Timeouts.Service,
		Auth: auth.Config{
			Secret:   cfg.Auth.JWTSecret,
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
		},
		Metrics: middleware.NewHTTPMetrics(prometheus.DefaultRegisterer),
		RPS:     cfg.RateLimit.RPS,
		Burst:   cfg.RateLimit.Burst,
	})

	var ready atomic.Bool

	apiSrv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           api,
		ReadHeaderTimeout: 5 * time.Second,
	}

	opsSrv := &http.Server{
		Addr: cfg.Ops.Addr(),
		Handler: newOpsMux(log, &ready, 2*time.Second, promhttp.Handler(),
			healthCheck{name: "postgres", dep: pg},
			healthCheck{name: "mongo", dep: mg},
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpc_prometheus.EnableHandlingTimeHistogram()

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptors.Recover(log),
			interceptors.Logging(log),
			interceptors.Timeout(cfg.Timeouts.Service),
			grpc_prometheus.UnaryServerInterceptor,
		),
		grpc.ChainStreamInterceptor(grpc_prometheus.StreamServerInterceptor),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	if cfg.Env == envLocal || cfg.Env == envDev {
		reflection.Register(grpcServer)
	}

	grpc_prometheus.Register(grpcServer)

	apiLis, err := net.Listen("tcp", apiSrv.Addr)
	if err != nil {
		return err
	}

	opsLis, err := net.Listen("tcp", opsSrv.Addr)
	if err != nil {
		_ = apiLis.Close()
		return err
	}

	grpcLis, err := net.Listen("tcp", cfg.GRPC.Addr())
	if err != nil {
		_ = apiLis.Close()
		_ = opsLis.Close()
		return err
	}

	g, gctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		log.Info("http_listen_start", slog.String("addr", apiSrv.Addr))
		if err := apiSrv.Serve(apiLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.Info("ops_listen_start", slog.String("addr", opsSrv.Addr))
		if err := opsSrv.Serve(opsLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.Info("grpc_listen_start", slog.String("addr", cfg.GRPC.Addr()))
		if err := grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	ready.Store(true)
	log.Info("talas_api_ready")

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown_requested")

		hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		ready.Store(false)

		return shutdown(log, cfg.Timeouts.Shutdown, apiSrv, opsSrv, grpcServer)
	})

	return g.Wait()
}

// shutdown останавливает серверы в пределах timeout: сначала API, затем gRPC и ops.
func shutdown(log *slog.Logger, timeout time.Duration, apiSrv, opsSrv *http.Server, grpcServer *grpc.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error

	if err := apiSrv.Shutdown(ctx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
		errs = append(errs, err)
	} else {
		log.Info("http_stopped")
	}

	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("grpc_stopped")
	case <-ctx.Done():
		log.Warn("grpc_force_stop")
		grpcServer.Stop()
	}

	if err := opsSrv.Shutdown(ctx); err != nil {
		log.Warn("ops_shutdown_incomplete", slog.String("err", err.Error()))
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
