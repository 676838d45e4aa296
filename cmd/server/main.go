package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	webAdapter "qat-ledger/internal/adapters/web"
	"qat-ledger/internal/ai"
	"qat-ledger/internal/app"
	"qat-ledger/internal/config"
	"qat-ledger/internal/core"
	"qat-ledger/internal/db"
	"qat-ledger/internal/logger"
	"qat-ledger/internal/storage"
	"qat-ledger/migrations"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	appLogger, err := logger.New(cfg.IsDevelopment(), cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	if err := cfg.Validate(); err != nil {
		appLogger.Fatal("config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		appLogger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	applied, err := migrations.Apply(ctx, pool)
	if err != nil {
		appLogger.Fatal("migrations", zap.Error(err))
	}
	if len(applied) > 0 {
		appLogger.Info("migrations applied", zap.Strings("files", applied))
	}

	loc := cfg.Location()
	sales := core.NewSaleService(pool)
	debts := core.NewDebtService(pool)
	products := core.NewProductService(pool)
	users := core.NewUserService(pool)
	reports := core.NewReportingService(sales, debts, loc)

	store, err := storage.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.ImageBucket, cfg.Server.PublicBaseURL, cfg.Storage.MaxBytes)
	if err != nil {
		appLogger.Fatal("storage", zap.Error(err))
	}

	var agent ai.AgentService
	if cfg.OpenAI.APIKey != "" {
		agent = ai.NewAgent(cfg.OpenAI.APIKey, ai.Models{
			Chat:       cfg.OpenAI.ChatModel,
			Vision:     cfg.OpenAI.VisionModel,
			Transcribe: cfg.OpenAI.TranscribeModel,
		})
	} else {
		appLogger.Warn("OPENAI_API_KEY is not set; assistant, image analysis and voice are disabled")
	}

	svc := app.NewAppService(sales, debts, products, users, reports, agent, store, app.Options{
		ShopName:    cfg.Business.ShopName,
		Currency:    cfg.Business.Currency,
		CountryCode: cfg.Business.CountryCode,
		Location:    loc,
		Logger:      appLogger,
	})

	admin, err := svc.EnsureDefaultAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminName, cfg.Auth.AdminPassword)
	if err != nil {
		appLogger.Fatal("seed admin", zap.Error(err))
	}
	if admin != nil {
		appLogger.Info("default admin created", zap.String("email", admin.Email))
	}

	handler := webAdapter.NewHandler(svc, webAdapter.Config{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		JWTSecret:      cfg.Auth.JWTSecret,
		TokenTTL:       cfg.Auth.TokenTTL,
		SecureCookies:  !cfg.IsDevelopment(),
		UploadDir:      filepath.Clean(store.Root()),
		MaxUploadBytes: cfg.Storage.MaxBytes,
		Location:       loc,
		Logger:         appLogger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("shutdown", zap.Error(err))
	}
	appLogger.Info("server stopped")
}
