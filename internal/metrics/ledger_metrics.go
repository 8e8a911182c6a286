package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics содержит метрики операций леджера заказов.
type LedgerMetrics struct {
	// Счётчики успешных мутаций
	ordersCreated prometheus.Counter
	ordersUpdated prometheus.Counter
	ordersDeleted prometheus.Counter

	// Отказы по виду ошибки
	opFailed *prometheus.CounterVec

	// Гистограммы времени выполнения по операции
	opDuration *prometheus.HistogramVec

	// Gauge суммарного зарезервированного количества
	unitsReserved prometheus.Gauge
}

// NewLedgerMetrics создаёт метрики леджера в default-регистраторе.
func NewLedgerMetrics() *LedgerMetrics {
	return newLedgerMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newLedgerMetricsWithRegisterer(registerer prometheus.Registerer) *LedgerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &LedgerMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderledger_orders_created_total",
			Help: "Total number of orders created",
		}),
		ordersUpdated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderledger_orders_updated_total",
			Help: "Total number of orders updated",
		}),
		ordersDeleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderledger_orders_deleted_total",
			Help: "Total number of orders deleted",
		}),
		opFailed: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orderledger_operation_failures_total",
			Help: "Total number of failed ledger operations by error kind",
		}, []string{"op", "kind"}),
		opDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "orderledger_operation_duration_seconds",
			Help:    "Duration of ledger operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"op"}),
		unitsReserved: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "orderledger_units_reserved",
			Help: "Units currently deducted from product stock by active orders",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderCreated учитывает созданный заказ и прирост зарезервированных единиц.
func (m *LedgerMetrics) RecordOrderCreated(quantity int32) {
	m.ordersCreated.Inc()
	m.unitsReserved.Add(float64(quantity))
}

// RecordOrderUpdated учитывает обновление заказа и дельту резерва.
func (m *LedgerMetrics) RecordOrderUpdated(delta int32) {
	m.ordersUpdated.Inc()
	m.unitsReserved.Add(float64(delta))
}

// RecordOrderDeleted учитывает удаление заказа и возврат резерва.
func (m *LedgerMetrics) RecordOrderDeleted(quantity int32) {
	m.ordersDeleted.Inc()
	m.unitsReserved.Sub(float64(quantity))
}

// RecordFailure учитывает отказ операции с тегом вида ошибки.
func (m *LedgerMetrics) RecordFailure(op, kind string) {
	m.opFailed.WithLabelValues(op, kind).Inc()
}

// RecordDuration записывает длительность операции леджера.
func (m *LedgerMetrics) RecordDuration(op string, duration time.Duration) {
	m.opDuration.WithLabelValues(op).Observe(duration.Seconds())
}
