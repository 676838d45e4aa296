// restore-seed is a one-shot tool to restore the seed data: it re-creates or
// re-activates every qat grade of the catalog and makes sure an admin account
// exists. Sales and debts are never touched.
//
// Usage: go run ./cmd/restore-seed
package main

import (
	"context"
	"log"

	"qat-ledger/internal/config"
	"qat-ledger/internal/core"
	"qat-ledger/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Database.URL, 2)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Restoring product catalog...")
	for _, name := range core.ProductTypes {
		tag, err := tx.Exec(ctx, `
			INSERT INTO products (name, grade, default_price)
			VALUES ($1, '', 0)
			ON CONFLICT (name) DO UPDATE SET is_active = true
			WHERE products.is_active = false`, name)
		if err != nil {
			log.Fatalf("Failed to restore product %s: %v", name, err)
		}
		if tag.RowsAffected() > 0 {
			log.Printf("  restored %s", name)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	admin, err := core.NewUserService(pool).EnsureDefaultAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminName, cfg.Auth.AdminPassword)
	if err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}
	if admin != nil {
		log.Printf("Created admin account %s", admin.Email)
	}

	log.Println("Seed data restored.")
}
