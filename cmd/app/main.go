package main

import (
	"bufio"
	"context"
	"log"
	"os"

	"qat-ledger/internal/adapters/cli"
	"qat-ledger/internal/adapters/repl"
	"qat-ledger/internal/ai"
	"qat-ledger/internal/app"
	"qat-ledger/internal/config"
	"qat-ledger/internal/core"
	"qat-ledger/internal/db"
	"qat-ledger/internal/logger"
	"qat-ledger/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// The terminal is the UI here; only warnings and errors go to the log.
	appLogger, err := logger.New(false, "warn", "console")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	loc := cfg.Location()
	sales := core.NewSaleService(pool)
	debts := core.NewDebtService(pool)
	reports := core.NewReportingService(sales, debts, loc)

	store, err := storage.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.ImageBucket, cfg.Server.PublicBaseURL, cfg.Storage.MaxBytes)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	var agent ai.AgentService
	if cfg.OpenAI.APIKey != "" {
		agent = ai.NewAgent(cfg.OpenAI.APIKey, ai.Models{
			Chat:       cfg.OpenAI.ChatModel,
			Vision:     cfg.OpenAI.VisionModel,
			Transcribe: cfg.OpenAI.TranscribeModel,
		})
	} else {
		log.Println("Warning: OPENAI_API_KEY is not set; /ask is disabled")
	}

	svc := app.NewAppService(sales, debts, core.NewProductService(pool), core.NewUserService(pool), reports, agent, store, app.Options{
		ShopName:    cfg.Business.ShopName,
		Currency:    cfg.Business.Currency,
		CountryCode: cfg.Business.CountryCode,
		Location:    loc,
		Logger:      appLogger,
	})

	if len(os.Args) > 1 {
		cli.Run(ctx, svc, os.Args[1:])
		return
	}
	repl.Run(ctx, svc, bufio.NewReader(os.Stdin))
}
