package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/davidortiz/eshop-backend/internal/auth"
	kafkax "github.com/davidortiz/eshop-backend/internal/kafka"
	"github.com/davidortiz/eshop-backend/internal/orders"
	"github.com/davidortiz/eshop-backend/internal/redisx"
)

type OrdersStore interface {
	Place(ctx context.Context, req orders.PlaceRequest) (orders.Order, []orders.Item, error)
	Get(ctx context.Context, orderID string) (orders.Detail, error)
	List(ctx context.Context) ([]orders.Order, error)
	ListForUser(ctx context.Context, userID string) ([]orders.Detail, error)
	UpdateStatus(ctx context.Context, orderID string, to orders.Status) (orders.Status, error)
	Delete(ctx context.Context, orderID string) (int, error)
	TotalSales(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type OrdersHandler struct {
	Store    OrdersStore
	Producer Publisher
	Redis    *redis.Client
	Service  string
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.place)
	r.Get("/orders", h.list)
	r.Get("/orders/get/totalsales", h.totalSales)
	r.Get("/orders/get/count", h.count)
	r.Get("/orders/get/userorders/{id}", h.userOrders)
	r.Get("/orders/{id}", h.get)
	r.Put("/orders/{id}", h.updateStatus)
	r.Delete("/orders/{id}", h.delete)
}

type placeOrderReq struct {
	OrderItems       []orders.LineInput `json:"orderItems"`
	ShippingAddress1 string             `json:"shippingAddress1"`
	ShippingAddress2 string             `json:"shippingAddress2"`
	City             string             `json:"city"`
	Zip              string             `json:"zip"`
	Country          string             `json:"country"`
	Phone            string             `json:"phone"`
	Status           string             `json:"status"`
	User             string             `json:"user"`
}

type placedOrderResp struct {
	orders.Order
	OrderItems []orders.Item `json:"orderItems"`
}

func (h *OrdersHandler) place(w http.ResponseWriter, r *http.Request) {
	var req placeOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		message(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.User == "" {
		if p, ok := auth.FromContext(r.Context()); ok {
			req.User = p.UserID
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, items, err := h.Store.Place(ctx, orders.PlaceRequest{
		UserID: req.User,
		Status: orders.Status(req.Status),
		Shipping: orders.Shipping{
			Address1: req.ShippingAddress1,
			Address2: req.ShippingAddress2,
			City:     req.City,
			Zip:      req.Zip,
			Country:  req.Country,
			Phone:    req.Phone,
		},
		Items: req.OrderItems,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(orders.EventOrderPlaced, order.ID, r, orders.OrderPlacedPayload{
		OrderID:    order.ID,
		UserID:     order.UserID,
		Items:      toItemPrices(items),
		TotalCents: order.TotalCents,
	})

	writeJSON(w, http.StatusCreated, placedOrderResp{Order: order, OrderItems: items})
}

func toItemPrices(items []orders.Item) []orders.ItemPrice {
	out := make([]orders.ItemPrice, 0, len(items))
	for _, it := range items {
		out = append(out, orders.ItemPrice{ProductID: it.ProductID, Qty: it.Qty, PriceCents: it.PriceCents})
	}
	return out
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Store.List(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderDetail, orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	d, err := h.Store.Get(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Redis != nil {
		if b, err := json.Marshal(d); err == nil {
			_ = h.Redis.Set(ctx, key, b, redisx.TTLOrderDetail).Err()
		}
	}
	writeJSON(w, http.StatusOK, d)
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		message(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	old, err := h.Store.UpdateStatus(ctx, orderID, orders.Status(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	h.dropCache(ctx, orderID)
	h.publish(orders.EventOrderStatusChanged, orderID, r, orders.OrderStatusChangedPayload{
		OrderID: orderID,
		Old:     old,
		New:     orders.Status(req.Status),
	})
	writeJSON(w, http.StatusOK, map[string]string{"id": orderID, "status": req.Status})
}

func (h *OrdersHandler) delete(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	deleted, err := h.Store.Delete(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.dropCache(ctx, orderID)
	h.publish(orders.EventOrderDeleted, orderID, r, orders.OrderDeletedPayload{
		OrderID:      orderID,
		ItemsDeleted: deleted,
	})
	writeJSON(w, http.StatusOK, map[string]any{"id": orderID, "itemsDeleted": deleted})
}

func (h *OrdersHandler) totalSales(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	total, err := h.Store.TotalSales(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"totalSales": total})
}

func (h *OrdersHandler) count(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	n, err := h.Store.Count(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"orderCount": n})
}

func (h *OrdersHandler) userOrders(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Store.ListForUser(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) dropCache(ctx context.Context, orderID string) {
	if h.Redis != nil {
		_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderDetail, orderID)).Err()
	}
}

func (h *OrdersHandler) publish(eventType, orderID string, r *http.Request, payload any) {
	if h.Producer == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	h.Producer.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
