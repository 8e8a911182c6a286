package app

import (
	"context"
	"math/rand"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderledger/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/orderledger/internal/health"
	"github.com/vladislavdragonenkov/orderledger/internal/ledger"
	"github.com/vladislavdragonenkov/orderledger/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/orderledger/internal/seed"
	"github.com/vladislavdragonenkov/orderledger/internal/storage/memory"
	"github.com/vladislavdragonenkov/orderledger/internal/storage/postgres"
)

// initStore выбирает хранилище: PostgreSQL при заданном DSN, иначе in-memory.
// Возвращает функцию закрытия и health check хранилища (nil для in-memory).
func initStore(ctx context.Context, dsn string, logger *log.Entry) (domain.Store, func(), healthcheck.CheckFunc, error) {
	if dsn == "" {
		logger.Info("DSN не задан, используется in-memory хранилище")
		return memory.NewStore(), func() {}, nil, nil
	}

	pg, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, nil, nil, err
	}
	logger.Info("подключение к PostgreSQL установлено, схема актуальна")

	closeFn := func() {
		if err := pg.Close(); err != nil {
			logger.WithError(err).Warn("ошибка закрытия подключения к PostgreSQL")
		}
	}
	check := func() error {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pg.Ping(pingCtx)
	}
	return pg, closeFn, check, nil
}

// initKafkaProducer подключается к Kafka по списку брокеров через запятую.
// Ошибка подключения не фатальна: леджер продолжает работу без публикации событий.
func initKafkaProducer(brokers string, logger *log.Entry) *kafka.Producer {
	if brokers == "" {
		logger.Info("брокеры Kafka не заданы, события публиковаться не будут")
		return nil
	}

	producer, err := kafka.NewProducer(strings.Split(brokers, ","))
	if err != nil {
		logger.WithError(err).Warn("не удалось подключиться к Kafka, продолжаем без публикации событий")
		return nil
	}
	logger.Info("продюсер Kafka подключен")
	return producer
}

func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("ошибка закрытия продюсера Kafka")
	}
}

// seedStore наполняет пустое хранилище демонстрационными товарами и заказами.
func seedStore(ctx context.Context, store domain.Store, svc ledger.Ledger, logger *log.Entry) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return seed.Run(ctx, store, svc, rng, logger.WithField("layer", "seed"))
}
