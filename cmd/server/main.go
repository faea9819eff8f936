package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/authservice/internal/config"
	"github.com/Skotchmaster/authservice/internal/db"
	"github.com/Skotchmaster/authservice/internal/hash"
	"github.com/Skotchmaster/authservice/internal/httpserver"
	"github.com/Skotchmaster/authservice/internal/logging"
	"github.com/Skotchmaster/authservice/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/authservice/internal/middleware/logging"
	"github.com/Skotchmaster/authservice/internal/mykafka"
	"github.com/Skotchmaster/authservice/internal/notify"
	"github.com/Skotchmaster/authservice/internal/repo"
	"github.com/Skotchmaster/authservice/internal/service"
	"github.com/Skotchmaster/authservice/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DBDriver, cfg.DatabaseURL)
	if err == nil {
		err = db.Migrate(initCtx, gdb)
	}
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	codec, err := tokens.NewCodec(cfg.SigningSecret())
	if err != nil {
		log.Fatal(err)
	}
	hasher, err := hash.NewHasher(cfg.BcryptCost)
	if err != nil {
		log.Fatal(err)
	}

	var (
		notifier notify.Notifier = &notify.LogNotifier{Logger: logger}
		events   *service.Events
		prod     *mykafka.Producer
	)
	if len(cfg.KafkaBrokers) > 0 {
		prod, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatal(err)
		}
		notifier = &notify.KafkaNotifier{Producer: prod, Topic: cfg.NotifyTopic, From: cfg.EmailFrom}
		events = &service.Events{Publisher: prod, Topic: cfg.UserEventsTopic}
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS empty, emails go to the log", "hint", "LOG_LEVEL=debug shows email bodies")
	}

	store := repo.New(gdb, cfg.StoreTimeout)
	authSvc := &service.AuthService{Repo: store, Codec: codec, Hasher: hasher, Cfg: cfg, Events: events}
	accountSvc := &service.AccountService{
		Repo:     store,
		Hasher:   hasher,
		Notifier: notifier,
		Auth:     authSvc,
		Cfg:      cfg,
		Events:   events,
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	cookies := httpserver.NewCookies(cfg)
	deps := httpserver.Deps{
		DB:             gdb,
		AuthHandler:    &httpserver.AuthHTTP{Svc: authSvc, Cfg: cfg, Cookies: cookies},
		AccountHandler: &httpserver.AccountHTTP{Svc: accountSvc, Cookies: cookies},
		Gate:           &httpserver.AuthGate{Svc: authSvc, Cookies: cookies},
	}
	if cfg.CSRFProtection {
		c := csrf.FromAppConfig(cfg)
		deps.CSRF = &c
	}
	httpserver.Register(e, &deps)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	janitor := &service.Janitor{Repo: store, Interval: cfg.PurgeInterval}
	janitorDone := make(chan struct{})
	go func() {
		janitor.Run(logging.IntoContext(ctx, logger))
		close(janitorDone)
	}()

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("http_server_started", "addr", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	<-janitorDone

	if err := db.Close(gdb); err != nil {
		logger.Error("db close error", "error", err)
	}
	if prod != nil {
		if err := prod.Close(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
