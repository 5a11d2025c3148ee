package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"integrity-portal/internal/account"
	"integrity-portal/internal/auth"
	"integrity-portal/internal/complaint"
	"integrity-portal/internal/config"
	"integrity-portal/internal/directory"
	"integrity-portal/internal/evidence"
	"integrity-portal/internal/httpapi"
	"integrity-portal/internal/ledger"
	"integrity-portal/internal/notify"
	"integrity-portal/internal/reporting"
	"integrity-portal/pkg/logger"
	"integrity-portal/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	revoker := auth.NewRevoker(rdb)

	auditSvc := ledger.NewService(ledger.NewPostgresRepo(db))
	accountSvc := account.NewService(account.NewPostgresRepo(db))
	complaintSvc := complaint.NewService(complaint.NewPostgresRepo(db))
	catalog := directory.New(directory.NewPostgresRepo(db))
	reportSvc := reporting.NewService(reporting.NewPostgresRepo(db), auditSvc)
	evidenceStore := evidence.NewStore(cfg.Uploads.Dir, cfg.Uploads.MaxSizeBytes)

	h := httpapi.Handlers{
		Log:        log,
		Auth:       authManager,
		Revoker:    revoker,
		Accounts:   accountSvc,
		Complaints: complaintSvc,
		Catalog:    catalog,
		Audit:      auditSvc,
		Reports:    reportSvc,
		Evidence:   evidenceStore,
		Notify:     notify.NewLogNotifier(log),
		RDB:        rdb,
		Intake:     cfg.Intake,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, auth.RequireAccessToken(authManager, revoker))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
