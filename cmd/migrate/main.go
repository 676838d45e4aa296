// migrate applies the embedded SQL migrations and exits.
//
// Usage: go run ./cmd/migrate [-list]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"qat-ledger/internal/config"
	"qat-ledger/internal/db"
	"qat-ledger/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// migrationLockID keys the advisory lock that keeps two migrators apart.
const migrationLockID = 7462839

func main() {
	list := flag.Bool("list", false, "print the embedded migrations and exit")
	flag.Parse()

	if *list {
		names, err := migrations.Names()
		if err != nil {
			log.Fatalf("[LIST] %v", err)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return
	}

	_ = godotenv.Load()
	cfg := config.LoadEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.Database.URL, 2)
	if err != nil {
		log.Fatalf("[CONNECT] %v", err)
	}
	defer pool.Close()
	log.Println("[CONNECT] success")

	conn := acquireLock(ctx, pool)
	defer conn.Release()

	applied, err := migrations.Apply(ctx, pool)
	for _, name := range applied {
		log.Printf("[APPLY] %s", name)
	}
	if err != nil {
		log.Fatalf("[APPLY] %v", err)
	}
	if len(applied) == 0 {
		log.Println("[DONE] schema is up to date.")
		return
	}
	log.Printf("[DONE] %d migration(s) applied.", len(applied))
}

func acquireLock(ctx context.Context, pool *pgxpool.Pool) *pgxpool.Conn {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		log.Fatalf("[LOCK] failed to acquire connection for lock: %v", err)
	}

	var locked bool
	err = conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", migrationLockID).Scan(&locked)
	if err != nil {
		log.Fatalf("[LOCK] failed to query advisory lock: %v", err)
	}
	if !locked {
		log.Fatalf("[LOCK] failed: another migrator is currently running")
	}

	log.Println("[LOCK] success")
	return conn
}
