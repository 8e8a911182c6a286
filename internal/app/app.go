package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/orderledger/internal/health"
	"github.com/vladislavdragonenkov/orderledger/internal/httpapi"
	"github.com/vladislavdragonenkov/orderledger/internal/ledger"
	"github.com/vladislavdragonenkov/orderledger/internal/version"
)

// Config описывает минимальные настройки запуска приложения.
type Config struct {
	// HTTPAddr — адрес HTTP API заказов.
	HTTPAddr string
	// MetricsAddr — адрес служебного сервера: /metrics и health checks.
	MetricsAddr string
	// PostgresDSN пустой — используется in-memory хранилище.
	PostgresDSN string
	// KafkaBrokers пустой — события не публикуются.
	KafkaBrokers string
	// Seed наполняет пустое хранилище демонстрационными данными.
	Seed bool
}

// DefaultConfig возвращает базовые адреса для API и служебного сервера.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",
	}
}

// Run собирает зависимости и обслуживает запросы до отмены контекста.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	store, closeStore, storeCheck, err := initStore(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Kafka опционален: без брокеров леджер работает, просто не публикует события.
	producer := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(producer, logger)

	var svc ledger.Ledger
	if producer != nil {
		svc = ledger.NewWithKafka(store, producer, logger.WithField("layer", "ledger"))
	} else {
		svc = ledger.New(store, logger.WithField("layer", "ledger"))
	}

	if cfg.Seed {
		if err := seedStore(ctx, store, svc, logger); err != nil {
			return err
		}
	}

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if storeCheck != nil {
		healthHandler.Register("storage", storeCheck)
	}

	metricsSrv := startMetricsServer(cfg.MetricsAddr, logger, healthHandler)
	defer shutdownHTTP(metricsSrv, logger)

	api := httpapi.NewServer(cfg.HTTPAddr, svc, logger.WithField("layer", "http"))
	return api.Run(ctx)
}

// startMetricsServer запускает служебный HTTP-сервер: метрики Prometheus
// и health checks.
func startMetricsServer(addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()
	return srv
}

func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("metrics server shutdown failed")
	}
}
