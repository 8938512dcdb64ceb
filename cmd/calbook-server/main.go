package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"

	"calbook/internal/config"
	"calbook/internal/events"
	"calbook/internal/service/booking"
	"calbook/internal/service/directory"
	"calbook/internal/store/postgres"
	"calbook/internal/store/rediscache"
	"calbook/internal/telemetry"
	grpcTransport "calbook/internal/transport/grpc"
)

const serviceName = "calbook-server"

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", serviceName),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", serviceName),
	)
	slog.SetDefault(log)

	log.Info("starting",
		slog.String("grpc_addr", cfg.GRPCAddr()),
		slog.String("log_level", cfg.LogLevel),
		slog.String("timezone", cfg.Location.String()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
		Enabled:     cfg.TracingEnabled,
		ServiceName: serviceName,
		Endpoint:    cfg.TracingEndpoint,
		SampleRatio: cfg.TracingSampleRatio,
	})
	if err != nil {
		log.Error("tracing setup failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracing shutdown failed", slog.Any("err", err))
		}
	}()

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	if cfg.DBAutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("database migration failed", slog.Any("err", err))
			os.Exit(1)
		}
		log.Info("database migrated")
	}

	repo := postgres.NewSchedulingRepo(db)
	metrics := telemetry.NewMetrics()

	opts := []booking.Option{
		booking.WithLogger(log),
		booking.WithObserver(metrics),
	}
	dirOpts := []directory.Option{directory.WithLogger(log)}

	if cfg.RedisAddr != "" {
		rdb, err := rediscache.NewClient(ctx, rediscache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Error("redis connection failed", slog.Any("err", err))
			os.Exit(1)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn("redis close failed", slog.Any("err", err))
			}
		}()
		profiles := rediscache.NewProfileCache(rdb, repo, cfg.ProfileCacheTTL, log)
		opts = append(opts, booking.WithProfiles(profiles))
		dirOpts = append(dirOpts, directory.WithInvalidator(profiles))
		log.Info("profile cache enabled", slog.String("redis_addr", cfg.RedisAddr), slog.Duration("ttl", cfg.ProfileCacheTTL))
	}

	if brokers := events.SplitBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		pub := events.NewKafkaPublisher(brokers, cfg.KafkaTopic)
		defer func() {
			if err := pub.Close(); err != nil {
				log.Warn("kafka writer close failed", slog.Any("err", err))
			}
		}()
		opts = append(opts, booking.WithPublisher(pub))
		log.Info("event publishing enabled", slog.Int("brokers", len(brokers)), slog.String("topic", cfg.KafkaTopic))
	}

	svc := booking.NewService(repo, booking.Config{
		Location:           cfg.Location,
		DefaultHorizonDays: cfg.DefaultHorizonDays,
		MaxHorizonDays:     cfg.MaxHorizonDays,
	}, opts...)

	dir := directory.NewService(postgres.NewDirectoryRepo(db), dirOpts...)

	grpcServer := grpcTransport.NewServer(svc, dir, log, grpcTransport.ServerOptions{
		RequestTimeout: cfg.GRPCRequestTimeout,
		RateLimit:      rate.Limit(cfg.RateLimitRPS),
		RateBurst:      cfg.RateLimitBurst,
		Metrics:        metrics,
	})

	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr()))
		os.Exit(1)
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()
	log.Info("grpc server started", slog.String("grpc_addr", cfg.GRPCAddr()))

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = newMetricsServer(cfg.MetricsAddr, metrics)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
		log.Info("metrics server started", slog.String("metrics_addr", cfg.MetricsAddr))
	}

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("server stopped with error", slog.Any("err", err))
			shutdown(log, grpcServer, metricsServer, cfg.ShutdownTimeout)
			os.Exit(1)
		}
	}
	shutdown(log, grpcServer, metricsServer, cfg.ShutdownTimeout)
}

func newMetricsServer(addr string, metrics *telemetry.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func shutdown(log *slog.Logger, s *grpc.Server, metricsServer *http.Server, timeout time.Duration) {
	log.Info("shutting down grpc server", slog.Duration("timeout", timeout))

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := metricsServer.Shutdown(ctx); err != nil {
			log.Warn("metrics server shutdown failed", slog.Any("err", err))
		}
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		log.Info("grpc server stopped")
	case <-timer.C:
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		s.Stop()
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// databaseLogArgs keeps credentials out of the logs.
func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	host := u.Hostname()
	if host == "" {
		host = "unknown"
	}
	port := u.Port()
	if port == "" {
		port = "default"
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
