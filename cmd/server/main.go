package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	accounthandler "account-console/internal/account/handler"
	accountrepo "account-console/internal/account/repository"
	"account-console/internal/browser"
	"account-console/internal/config"
	"account-console/internal/db"
	"account-console/internal/db/migrate"
	healthhandler "account-console/internal/health/handler"
	"account-console/internal/logging"
	loginjobhandler "account-console/internal/loginjob/handler"
	loginjobrepo "account-console/internal/loginjob/repository"
	loginjobservice "account-console/internal/loginjob/service"
	messagehandler "account-console/internal/message/handler"
	messagerepo "account-console/internal/message/repository"
	"account-console/internal/security"
	"account-console/internal/seed"
	"account-console/internal/server"
	"account-console/internal/telemetry"
	"account-console/internal/telemetry/kafka"
	"account-console/internal/telemetry/loki"
	otelemitter "account-console/internal/telemetry/otel"
)

const (
	serviceName         = "account-console"
	healthCheckInterval = 15 * time.Second
	shutdownTimeout     = 20 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Up(conn); err != nil {
		return err
	}
	logger.Info("database ready", zap.String("dialect", conn.Dialect))

	accounts := accountrepo.NewSQLRepository(conn)
	messages := messagerepo.NewSQLRepository(conn)
	jobs := loginjobrepo.NewSQLRepository(conn)

	if cfg.SeedDemo() {
		if _, err := seed.NewSeeder(accounts, messages, logger).Seed(ctx); err != nil {
			return err
		}
	}

	providers, err := otelemitter.NewProviders(ctx, otelemitter.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: serviceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		return err
	}
	providers.SetGlobal()

	emitters := []telemetry.EventEmitter{otelemitter.NewEventEmitter(providers.LoggerProvider)}
	if cfg.LokiURL != "" {
		lokiEmitter, err := loki.NewEmitter(cfg.LokiURL, nil)
		if err != nil {
			return err
		}
		emitters = append(emitters, lokiEmitter)
	}
	if producer := kafka.NewProducer(kafka.ParseBrokers(cfg.KafkaBrokers), cfg.KafkaTopic); producer != nil {
		defer producer.Close()
		emitters = append(emitters, producer)
		logger.Info("publishing login events to kafka", zap.String("topic", cfg.KafkaTopic))
	}

	launcher := browser.NewLauncher(browser.Config{
		DataDir:  cfg.DataDir,
		LoginURL: cfg.LoginURL,
		Headless: cfg.BrowserHeadless,
	}, logger)
	loginSvc := loginjobservice.NewService(accounts, jobs, launcher, telemetry.Multi(emitters...), logger,
		loginjobservice.Config{LoginURL: cfg.LoginURL, Timeout: cfg.LoginTimeoutDuration()})
	if n, err := loginSvc.RecoverOrphans(ctx); err != nil {
		return err
	} else if n > 0 {
		logger.Warn("failed login jobs left over from a previous run", zap.Int64("jobs", n))
	}

	var tokens *security.TokenProvider
	if cfg.AuthEnabled() {
		tokens, err = security.NewTokenProvider(cfg.APITokenSecret, cfg.APITokenIssuer, cfg.TokenTTL())
		if err != nil {
			return err
		}
	}

	health := healthhandler.NewServer(conn)
	deps := server.HTTPDeps{
		Accounts: accounthandler.NewHandler(accounts, logger),
		Messages: messagehandler.NewHandler(messages, logger),
		Login:    loginjobhandler.NewHandler(loginSvc, logger),
		Health:   health,
		Log:      logger,
	}
	if tokens != nil {
		deps.Tokens = tokens
	}
	httpSrv := server.NewHTTPServer(cfg.HTTPAddr, server.NewRouter(deps))

	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr), zap.Bool("auth", tokens != nil))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var grpcSrv interface{ GracefulStop() }
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		s := server.NewGRPCServer(server.Deps{Health: health}, logger)
		grpcSrv = s
		go health.Run(ctx, healthCheckInterval)
		go func() {
			logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
			if err := s.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		logger.Error("server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", zap.Error(err))
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	if err := loginSvc.Shutdown(shutdownCtx); err != nil {
		logger.Warn("login jobs did not stop in time", zap.Error(err))
	}
	// Let async event emits started by the last job updates finish before exporters close.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn("telemetry shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}
