package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidortiz/eshop-backend/internal/orders"
)

// --- mocks ---

type ordersStoreMock struct {
	order     orders.Order
	items     []orders.Item
	detail    orders.Detail
	list      []orders.Order
	userList  []orders.Detail
	oldStatus orders.Status
	deleted   int
	total     int64
	count     int64
	err       error

	gotPlace orders.PlaceRequest
}

func (m *ordersStoreMock) Place(_ context.Context, req orders.PlaceRequest) (orders.Order, []orders.Item, error) {
	m.gotPlace = req
	if err := req.Validate(); err != nil {
		return orders.Order{}, nil, err
	}
	if m.err != nil {
		return orders.Order{}, nil, m.err
	}
	return m.order, m.items, nil
}

func (m *ordersStoreMock) Get(context.Context, string) (orders.Detail, error) {
	return m.detail, m.err
}

func (m *ordersStoreMock) List(context.Context) ([]orders.Order, error) {
	return m.list, m.err
}

func (m *ordersStoreMock) ListForUser(context.Context, string) ([]orders.Detail, error) {
	return m.userList, m.err
}

func (m *ordersStoreMock) UpdateStatus(context.Context, string, orders.Status) (orders.Status, error) {
	return m.oldStatus, m.err
}

func (m *ordersStoreMock) Delete(context.Context, string) (int, error) {
	return m.deleted, m.err
}

func (m *ordersStoreMock) TotalSales(context.Context) (int64, error) {
	return m.total, m.err
}

func (m *ordersStoreMock) Count(context.Context) (int64, error) {
	return m.count, m.err
}

type publisherMock struct {
	messages [][]byte
}

func (p *publisherMock) Publish(_, value []byte, _ ...kafkago.Header) {
	p.messages = append(p.messages, value)
}

func newOrdersRouter(store OrdersStore, pub Publisher) *chi.Mux {
	h := &OrdersHandler{Store: store, Producer: pub, Service: "test-api"}
	r := chi.NewRouter()
	h.Register(r)
	return r
}

// --- place ---

func TestPlace_Success(t *testing.T) {
	store := &ordersStoreMock{
		order: orders.Order{ID: "o-1", UserID: "u-1", Status: orders.StatusPlaced, TotalCents: 2500},
		items: []orders.Item{
			{ID: "i-1", ProductID: "p-1", Qty: 2, PriceCents: 1000},
			{ID: "i-2", ProductID: "p-2", Qty: 1, PriceCents: 500},
		},
	}
	pub := &publisherMock{}
	r := newOrdersRouter(store, pub)

	body := `{
		"orderItems": [
			{"product": "p-1", "quantity": 2},
			{"product": "p-2", "quantity": 1}
		],
		"shippingAddress1": "Calle 1", "city": "Madrid", "zip": "28001",
		"country": "ES", "phone": "555", "user": "u-1"
	}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(body)))

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp placedOrderResp
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "o-1", resp.ID)
	assert.Equal(t, int64(2500), resp.TotalCents)
	assert.Len(t, resp.OrderItems, 2)

	// caller order preserved in the request handed to the store
	require.Len(t, store.gotPlace.Items, 2)
	assert.Equal(t, "p-1", store.gotPlace.Items[0].ProductID)
	assert.Equal(t, "p-2", store.gotPlace.Items[1].ProductID)

	// one lifecycle event with the computed total
	require.Len(t, pub.messages, 1)
	var env orders.Envelope
	require.NoError(t, json.Unmarshal(pub.messages[0], &env))
	assert.Equal(t, orders.EventOrderPlaced, env.EventType)
	var payload orders.OrderPlacedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, int64(2500), payload.TotalCents)
}

func TestPlace_EmptyItems(t *testing.T) {
	pub := &publisherMock{}
	r := newOrdersRouter(&ordersStoreMock{}, pub)

	body := `{"orderItems": [], "user": "u-1"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, pub.messages, "failed placements must not emit events")
}

func TestPlace_UnknownProduct(t *testing.T) {
	store := &ordersStoreMock{err: fmt.Errorf("%w: p-missing", orders.ErrProductNotFound)}
	r := newOrdersRouter(store, &publisherMock{})

	body := `{"orderItems": [{"product": "p-missing", "quantity": 1}], "user": "u-1"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlace_UnknownUser(t *testing.T) {
	store := &ordersStoreMock{err: fmt.Errorf("%w: u-missing", orders.ErrUserNotFound)}
	r := newOrdersRouter(store, &publisherMock{})

	body := `{"orderItems": [{"product": "p-1", "quantity": 1}], "user": "u-missing"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlace_InvalidJSON(t *testing.T) {
	r := newOrdersRouter(&ordersStoreMock{}, &publisherMock{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString("{")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- reads ---

func TestGet_NotFound(t *testing.T) {
	store := &ordersStoreMock{err: fmt.Errorf("%w: o-missing", orders.ErrOrderNotFound)}
	r := newOrdersRouter(store, &publisherMock{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/o-missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGet_Success(t *testing.T) {
	store := &ordersStoreMock{detail: orders.Detail{
		Order: orders.Order{ID: "o-1", UserName: "Ana", TotalCents: 700},
		Items: []orders.ExpandedItem{{
			Item:         orders.Item{ID: "i-1", ProductID: "p-1", Qty: 1, PriceCents: 700},
			ProductName:  "Mug",
			CategoryName: "Kitchen",
		}},
	}}
	r := newOrdersRouter(store, &publisherMock{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/o-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var d orders.Detail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&d))
	assert.Equal(t, "Ana", d.UserName)
	require.Len(t, d.Items, 1)
	assert.Equal(t, "Mug", d.Items[0].ProductName)
	assert.Equal(t, "Kitchen", d.Items[0].CategoryName)
}

func TestList_Empty(t *testing.T) {
	store := &ordersStoreMock{list: []orders.Order{}}
	r := newOrdersRouter(store, &publisherMock{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String(), "empty list serializes as [], not null")
}

func TestUserOrders(t *testing.T) {
	later := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	earlier := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := &ordersStoreMock{userList: []orders.Detail{
		{Order: orders.Order{ID: "o-2", OrderedAt: later}},
		{Order: orders.Order{ID: "o-1", OrderedAt: earlier}},
	}}
	r := newOrdersRouter(store, &publisherMock{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/get/userorders/u-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var out []orders.Detail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.Len(t, out, 2)
	assert.Equal(t, "o-2", out[0].ID, "newest first")
}

// --- aggregates ---

func TestCount_ZeroIsSuccess(t *testing.T) {
	r := newOrdersRouter(&ordersStoreMock{count: 0}, &publisherMock{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/get/count", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"orderCount": 0}`, rec.Body.String())
}

func TestTotalSales_ZeroIsSuccess(t *testing.T) {
	r := newOrdersRouter(&ordersStoreMock{total: 0}, &publisherMock{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/get/totalsales", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalSales": 0}`, rec.Body.String())
}

// --- mutations ---

func TestUpdateStatus_Success(t *testing.T) {
	store := &ordersStoreMock{oldStatus: orders.StatusPlaced}
	pub := &publisherMock{}
	r := newOrdersRouter(store, pub)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/orders/o-1",
		bytes.NewBufferString(`{"status": "shipped"}`)))

	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, pub.messages, 1)
	var env orders.Envelope
	require.NoError(t, json.Unmarshal(pub.messages[0], &env))
	assert.Equal(t, orders.EventOrderStatusChanged, env.EventType)
	var payload orders.OrderStatusChangedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, orders.StatusPlaced, payload.Old)
	assert.Equal(t, orders.StatusShipped, payload.New)
}

func TestUpdateStatus_IllegalTransition(t *testing.T) {
	store := &ordersStoreMock{err: fmt.Errorf("%w: delivered -> placed", orders.ErrBadStatus)}
	r := newOrdersRouter(store, &publisherMock{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/orders/o-1",
		bytes.NewBufferString(`{"status": "placed"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDelete_Success(t *testing.T) {
	store := &ordersStoreMock{deleted: 3}
	pub := &publisherMock{}
	r := newOrdersRouter(store, pub)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/orders/o-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id": "o-1", "itemsDeleted": 3}`, rec.Body.String())
	require.Len(t, pub.messages, 1)
}

func TestDelete_NotFound(t *testing.T) {
	store := &ordersStoreMock{err: fmt.Errorf("%w: o-missing", orders.ErrOrderNotFound)}
	pub := &publisherMock{}
	r := newOrdersRouter(store, pub)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/orders/o-missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, pub.messages)
}
