package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderledger/internal/ledger"
	"github.com/vladislavdragonenkov/orderledger/internal/seed"
	"github.com/vladislavdragonenkov/orderledger/internal/storage/postgres"
)

const defaultTimeout = 60 * time.Second

// Утилита наполняет базу демонстрационными товарами и заказами.
// Повторный запуск на непустой базе ничего не меняет.
func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	var dsn string
	flag.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: ORDERLEDGER_POSTGRES_DSN)")
	flag.Parse()

	_ = godotenv.Load()

	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(os.Getenv("ORDERLEDGER_POSTGRES_DSN"))
	}
	if dsn == "" {
		log.Fatal("ORDERLEDGER_POSTGRES_DSN (or -dsn) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		log.WithError(err).Fatal("не удалось подключиться к PostgreSQL")
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		log.WithError(err).Fatal("не удалось применить миграции")
	}

	svc := ledger.NewWithoutMetrics(store, log.WithField("component", "seed"))
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if err := seed.Run(ctx, store, svc, rng, log.WithField("component", "seed")); err != nil {
		log.WithError(err).Fatal("наполнение базы завершилось с ошибкой")
	}

	log.Info("наполнение базы завершено")
}
