package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderledger/internal/domain"
	"github.com/vladislavdragonenkov/orderledger/internal/ledger"
)

const dateLayout = "2006-01-02"

type ordersHandler struct {
	svc    ledger.Ledger
	logger *log.Entry
}

func (h *ordersHandler) Register(r chi.Router) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/number/{number}", h.getOrderByNumber)
	r.Put("/orders/{id}", h.updateOrder)
	r.Delete("/orders/{id}", h.deleteOrder)
	r.Get("/products", h.listProducts)
}

type createOrderRequest struct {
	ProductID     int64   `json:"product_id"`
	OrderNumber   string  `json:"order_number,omitempty"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
	Quantity      int32   `json:"quantity"`
	OrderDate     string  `json:"order_date"`
	DeliveryDate  *string `json:"delivery_date,omitempty"`
}

type updateOrderRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	Quantity      int32  `json:"quantity"`
	// DeliveryDate: null или отсутствие поля очищает дату доставки,
	// возвращая заказ в статус Pending.
	DeliveryDate *string `json:"delivery_date,omitempty"`
}

type orderResponse struct {
	ID            int64   `json:"id"`
	ProductID     int64   `json:"product_id"`
	OrderNumber   string  `json:"order_number"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
	Quantity      int32   `json:"quantity"`
	OrderDate     string  `json:"order_date"`
	DeliveryDate  *string `json:"delivery_date,omitempty"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

type orderPageResponse struct {
	Orders     []orderResponse `json:"orders"`
	TotalCount int             `json:"total_count"`
	TotalPages int             `json:"total_pages"`
}

type productResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	SKU           string `json:"sku"`
	Description   string `json:"description"`
	PriceMinor    int64  `json:"price_minor"`
	StockQuantity int32  `json:"stock_quantity"`
	Category      string `json:"category"`
}

type messageResponse struct {
	Message string        `json:"message"`
	Order   orderResponse `json:"order"`
}

func (h *ordersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	orderDate, ok := parseDate(w, req.OrderDate)
	if !ok {
		return
	}
	deliveryDate, ok := parseOptionalDate(w, req.DeliveryDate)
	if !ok {
		return
	}

	order, err := h.svc.Create(r.Context(), domain.Order{
		ProductID:     req.ProductID,
		OrderNumber:   req.OrderNumber,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Quantity:      req.Quantity,
		OrderDate:     orderDate,
		DeliveryDate:  deliveryDate,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{
		Message: "Order created successfully!",
		Order:   toOrderResponse(order),
	})
}

func (h *ordersHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	deliveryDate, ok := parseOptionalDate(w, req.DeliveryDate)
	if !ok {
		return
	}

	order, err := h.svc.Update(r.Context(), domain.Order{
		ID:            id,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Quantity:      req.Quantity,
		DeliveryDate:  deliveryDate,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: "Order updated successfully!",
		Order:   toOrderResponse(order),
	})
}

func (h *ordersHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: "Order deleted successfully!",
		Order:   toOrderResponse(order),
	})
}

func (h *ordersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *ordersHandler) getOrderByNumber(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.GetByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *ordersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.ListFilter{
		Search: q.Get("search"),
		Status: domain.OrderStatus(q.Get("status")),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PageSize, _ = strconv.Atoi(q.Get("page_size"))

	if v := q.Get("date_from"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date_from, expected YYYY-MM-DD"})
			return
		}
		filter.DateFrom = &t
	}
	if v := q.Get("date_to"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date_to, expected YYYY-MM-DD"})
			return
		}
		filter.DateTo = &t
	}

	page, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := orderPageResponse{
		Orders:     make([]orderResponse, 0, len(page.Orders)),
		TotalCount: page.TotalCount,
		TotalPages: page.TotalPages,
	}
	for _, order := range page.Orders {
		resp.Orders = append(resp.Orders, toOrderResponse(order))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ordersHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Products(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, productResponse{
			ID:            p.ID,
			Name:          p.Name,
			SKU:           p.SKU,
			Description:   p.Description,
			PriceMinor:    p.PriceMinor,
			StockQuantity: p.StockQuantity,
			Category:      p.Category,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeError переводит тег ошибки леджера в HTTP-статус.
func (h *ordersHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch domain.KindOf(err) {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindInsufficientStock:
		status = http.StatusUnprocessableEntity
	case domain.KindStorage:
		if domain.IsRetryable(err) {
			status = http.StatusServiceUnavailable
		}
	}

	entry := h.logger.WithFields(log.Fields{
		"status": status,
		"kind":   string(domain.KindOf(err)),
	})
	if status >= http.StatusInternalServerError {
		entry.WithError(err).Error("запрос завершился ошибкой хранилища")
	} else {
		// Отказы бизнес-проверок леджер уже логирует; здесь только трассировка.
		entry.Debug(err.Error())
	}

	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  string(domain.KindOf(err)),
	})
}

func toOrderResponse(order domain.Order) orderResponse {
	resp := orderResponse{
		ID:            order.ID,
		ProductID:     order.ProductID,
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Quantity:      order.Quantity,
		OrderDate:     order.OrderDate.Format(dateLayout),
		Status:        string(order.Status()),
		CreatedAt:     order.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     order.UpdatedAt.Format(time.RFC3339),
	}
	if order.DeliveryDate != nil {
		d := order.DeliveryDate.Format(dateLayout)
		resp.DeliveryDate = &d
	}
	return resp
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func parseID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return 0, false
	}
	return id, true
}

func parseDate(w http.ResponseWriter, raw string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_date, expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return t, true
}

func parseOptionalDate(w http.ResponseWriter, raw *string) (*time.Time, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	t, err := time.Parse(dateLayout, *raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid delivery_date, expected YYYY-MM-DD"})
		return nil, false
	}
	return &t, true
}
