// verify-agent smoke-tests the OpenAI integration without a database.
//
// Usage: go run ./cmd/verify-agent [ledger-image-path]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"qat-ledger/internal/ai"
	"qat-ledger/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load() // Load .env if present
	cfg := config.LoadEnv()
	if cfg.OpenAI.APIKey == "" {
		log.Fatal("OPENAI_API_KEY not set")
	}

	agent := ai.NewAgent(cfg.OpenAI.APIKey, ai.Models{
		Chat:       cfg.OpenAI.ChatModel,
		Vision:     cfg.OpenAI.VisionModel,
		Transcribe: cfg.OpenAI.TranscribeModel,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	tools := ai.NewToolRegistry()
	tools.Register(ai.ToolDefinition{
		Name:        "get_daily_report",
		Description: "Today's sales totals.",
		InputSchema: ai.ObjectSchema(map[string]any{}),
		Handler: func(context.Context, map[string]any) (string, error) {
			return `{"period":"daily","count":4,"total":"38000","by_type":{"شامي":"20000","صبري":"18000"}}`, nil
		},
	})

	question := "كم إجمالي مبيعات اليوم وما هو النوع الأكثر مبيعاً؟"
	fmt.Printf("CHAT: %s\n", question)
	reply, err := agent.Chat(ctx, question, "المحل: محل التجربة", tools)
	if err != nil {
		log.Fatalf("Chat error: %v", err)
	}
	fmt.Printf("\n--- REPLY ---\n%s\n", reply)

	if len(os.Args) < 2 {
		return
	}

	image, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to read image: %v", err)
	}
	fmt.Printf("\nANALYZING: %s\n", os.Args[1])
	analysis, err := agent.AnalyzeLedgerImage(ctx, image, http.DetectContentType(image), "")
	if err != nil {
		log.Fatalf("Vision error: %v", err)
	}

	fmt.Printf("\n--- ANALYSIS ---\n")
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(analysis)
}
