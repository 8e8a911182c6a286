package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/orderledger/internal/domain"
	"github.com/vladislavdragonenkov/orderledger/internal/ledger"
	"github.com/vladislavdragonenkov/orderledger/internal/storage/memory"
)

func newTestAPI(t *testing.T, stock int32) (*httptest.Server, domain.Product) {
	t.Helper()

	logger := log.New()
	logger.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	entry := logger.WithField("component", "http-test")

	store := memory.NewStore()
	product, err := store.Products().Create(context.Background(), domain.Product{
		Name:          "Kindle Paperwhite",
		SKU:           "AMA-KPW-11",
		PriceMinor:    14999,
		StockQuantity: stock,
		Category:      "Electronics",
	})
	require.NoError(t, err)

	h := &ordersHandler{svc: ledger.NewWithoutMetrics(store, entry), logger: entry}
	r := chi.NewRouter()
	h.Register(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, product
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var payload map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp, payload
}

func createPayload(productID int64) map[string]any {
	return map[string]any{
		"product_id":     productID,
		"customer_name":  "John Smith",
		"customer_email": "john.smith@example.com",
		"quantity":       5,
		"order_date":     "2026-08-29",
	}
}

func TestCreateOrderEndpoint(t *testing.T) {
	srv, product := newTestAPI(t, 100)

	resp, payload := doJSON(t, http.MethodPost, srv.URL+"/orders", createPayload(product.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var message string
	require.NoError(t, json.Unmarshal(payload["message"], &message))
	require.Equal(t, "Order created successfully!", message)

	var order orderResponse
	require.NoError(t, json.Unmarshal(payload["order"], &order))
	require.NotZero(t, order.ID)
	require.Regexp(t, `^ORD-\d{8}-\d{4}$`, order.OrderNumber)
	require.Equal(t, "Pending", order.Status)
	require.Equal(t, "2026-08-29", order.OrderDate)
}

func TestCreateOrderEndpoint_ErrorsMapToStatus(t *testing.T) {
	srv, product := newTestAPI(t, 3)

	// Валидация — 400.
	bad := createPayload(product.ID)
	bad["customer_email"] = "broken"
	resp, payload := doJSON(t, http.MethodPost, srv.URL+"/orders", bad)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var kind string
	require.NoError(t, json.Unmarshal(payload["kind"], &kind))
	require.Equal(t, "validation", kind)

	// Несуществующий товар — 404.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/orders", createPayload(777))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Нехватка остатка — 422.
	short := createPayload(product.ID)
	short["quantity"] = 10
	resp, payload = doJSON(t, http.MethodPost, srv.URL+"/orders", short)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var errMsg string
	require.NoError(t, json.Unmarshal(payload["error"], &errMsg))
	require.Equal(t, "Insufficient stock. Available: 3, Requested: 10", errMsg)

	// Дубликат email — 409.
	first := createPayload(product.ID)
	first["quantity"] = 2
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/orders", first)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	dup := createPayload(product.ID)
	dup["quantity"] = 1
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/orders", dup)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetUpdateDeleteOrderEndpoints(t *testing.T) {
	srv, product := newTestAPI(t, 100)

	resp, payload := doJSON(t, http.MethodPost, srv.URL+"/orders", createPayload(product.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created orderResponse
	require.NoError(t, json.Unmarshal(payload["order"], &created))

	// Получение по ID и по номеру.
	resp, err := http.Get(fmt.Sprintf("%s/orders/%d", srv.URL, created.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = http.Get(srv.URL + "/orders/number/" + created.OrderNumber)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = http.Get(srv.URL + "/orders/999")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	// Обновление: новое количество и дата доставки.
	update := map[string]any{
		"customer_name":  "John Q. Smith",
		"customer_email": "john.smith@example.com",
		"quantity":       2,
		"delivery_date":  "2026-09-01",
	}
	resp, payload = doJSON(t, http.MethodPut, fmt.Sprintf("%s/orders/%d", srv.URL, created.ID), update)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated orderResponse
	require.NoError(t, json.Unmarshal(payload["order"], &updated))
	require.Equal(t, "Delivered", updated.Status)
	require.Equal(t, int32(2), updated.Quantity)
	require.NotNil(t, updated.DeliveryDate)
	require.Equal(t, "2026-09-01", *updated.DeliveryDate)

	// Удаление.
	resp, payload = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/orders/%d", srv.URL, created.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var message string
	require.NoError(t, json.Unmarshal(payload["message"], &message))
	require.Equal(t, "Order deleted successfully!", message)

	resp, err = http.Get(fmt.Sprintf("%s/orders/%d", srv.URL, created.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestListOrdersAndProductsEndpoints(t *testing.T) {
	srv, product := newTestAPI(t, 100)

	for i := 0; i < 3; i++ {
		payload := createPayload(product.ID)
		payload["customer_email"] = fmt.Sprintf("customer%d@example.com", i)
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/orders", payload)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/orders?page=1&page_size=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page orderPageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.Equal(t, 3, page.TotalCount)
	require.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Orders, 2)

	// Неверная дата фильтра — 400.
	resp, err = http.Get(srv.URL + "/orders?date_from=not-a-date")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = http.Get(srv.URL + "/products")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var products []productResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	require.Len(t, products, 1)
	require.Equal(t, product.SKU, products[0].SKU)
}

func TestInvalidOrderIDAndJSON(t *testing.T) {
	srv, _ := newTestAPI(t, 100)

	resp, err := http.Get(srv.URL + "/orders/abc")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/orders", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

// Ошибочные ответы попадают в лог обработчика со статусом и тегом ошибки.
func TestErrorResponsesAreLogged(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	entry := logger.WithField("component", "http-test")

	store := memory.NewStore()
	h := &ordersHandler{svc: ledger.NewWithoutMetrics(store, entry), logger: entry}
	r := chi.NewRouter()
	h.Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	resp, payload := doJSON(t, http.MethodGet, srv.URL+"/orders/12345", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, payload, "error")

	require.NotEmpty(t, hook.Entries)
	last := hook.LastEntry()
	require.Equal(t, http.StatusNotFound, last.Data["status"])
	require.Equal(t, "not_found", last.Data["kind"])
	require.Equal(t, "Order not found.", last.Message)
}
