package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DynastyTech/fusion-aura-sub001/internal/cart"
	"github.com/DynastyTech/fusion-aura-sub001/internal/domain"
	"github.com/DynastyTech/fusion-aura-sub001/internal/guestcart"
	"github.com/DynastyTech/fusion-aura-sub001/internal/remote"
	"github.com/DynastyTech/fusion-aura-sub001/internal/session"
	"github.com/DynastyTech/fusion-aura-sub001/internal/signal"
	"github.com/DynastyTech/fusion-aura-sub001/internal/syncer"
)

type stubRemote struct {
	getResult remote.Result[domain.CartPayload]
	addResult remote.Result[domain.CartPayload]
}

func (s *stubRemote) GetCart(context.Context) remote.Result[domain.CartPayload] {
	return s.getResult
}

func (s *stubRemote) AddItem(context.Context, string, int) remote.Result[domain.CartPayload] {
	return s.addResult
}

type fixture struct {
	handler *CartHandler
	router  *chi.Mux
	sess    *session.Store
	guest   *guestcart.Store
	syncer  *syncer.Syncer
	bus     *signal.Bus
}

func newFixture(t *testing.T, api *stubRemote) *fixture {
	t.Helper()
	sess := session.NewStore()
	bus := signal.NewBus()
	guest := guestcart.NewStore(guestcart.NewMemoryKV())
	s := syncer.New(api, guest, sess, bus)
	m := cart.NewMutator(sess, api, guest, bus)
	h := NewCartHandler(s, m, guest, sess, bus)

	r := chi.NewRouter()
	r.Route("/api/v1", h.Routes)

	return &fixture{handler: h, router: r, sess: sess, guest: guest, syncer: s, bus: bus}
}

func addBody(t *testing.T, quantity int) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(AddItemRequestDTO{
		Product: domain.Product{
			ID:    "p1",
			Name:  "candle",
			Slug:  "candle",
			Price: decimal.RequireFromString("12.99"),
		},
		Quantity: quantity,
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestAddItem_GuestSuccess(t *testing.T) {
	fx := newFixture(t, &stubRemote{})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/api/v1/cart/items", addBody(t, 2))
	fx.router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusCreated, recorder.Code)

	var resp AddItemResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.True(t, resp.Navigate)

	items := fx.guest.Read(context.Background())
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestAddItem_InvalidJSON(t *testing.T) {
	fx := newFixture(t, &stubRemote{})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewBufferString("{nope"))
	fx.router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAddItem_QuantityBounds(t *testing.T) {
	for _, quantity := range []int{0, -1, 100} {
		fx := newFixture(t, &stubRemote{})

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest("POST", "/api/v1/cart/items", addBody(t, quantity))
		fx.router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code, "quantity %d must be rejected", quantity)

		var resp ErrorResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		assert.Equal(t, "invalid_quantity", resp.Code)
	}
}

func TestAddItem_MissingProductID(t *testing.T) {
	fx := newFixture(t, &stubRemote{})

	body, err := json.Marshal(AddItemRequestDTO{Quantity: 1})
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewBuffer(body))
	fx.router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAddItem_RemoteFailureSurfacesMessage(t *testing.T) {
	fx := newFixture(t, &stubRemote{
		addResult: remote.Result[domain.CartPayload]{
			Err: &remote.APIError{Code: remote.CodeAPIError, Message: "product out of stock"},
		},
	})
	fx.sess.Set("token", session.Identity{ID: "u1"})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/api/v1/cart/items", addBody(t, 1))
	fx.router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusBadGateway, recorder.Code)

	var resp AddItemResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.False(t, resp.Navigate)
	assert.Equal(t, "product out of stock", resp.Error)
}

func TestGetCart_GuestModeIncludesItemsAndTotal(t *testing.T) {
	fx := newFixture(t, &stubRemote{})
	ctx := context.Background()
	fx.guest.Add(ctx, domain.Product{ID: "p1", Price: decimal.RequireFromString("10.50")}, 2)
	fx.guest.Add(ctx, domain.Product{ID: "p2", Price: decimal.NewFromInt(5)}, 1)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/v1/cart", nil)
	fx.router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp CartResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.True(t, resp.GuestMode)
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, "26.00", resp.Total)
}

func TestGetCart_SnapshotSettlesAfterMutation(t *testing.T) {
	fx := newFixture(t, &stubRemote{})
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go fx.syncer.Run(ctx)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/api/v1/cart/items", addBody(t, 3))
	fx.router.ServeHTTP(recorder, request)
	require.Equal(t, http.StatusCreated, recorder.Code)

	require.Eventually(t, func() bool {
		snapshot, state := fx.syncer.Snapshot()
		return state == syncer.Settled && snapshot.ItemCount == 3
	}, time.Second, 10*time.Millisecond, "count was not re-derived after the mutation")
}

func TestClearCart_GuestOnly(t *testing.T) {
	fx := newFixture(t, &stubRemote{})
	ctx := context.Background()
	fx.guest.Add(ctx, domain.Product{ID: "p1", Price: decimal.NewFromInt(5)}, 1)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("DELETE", "/api/v1/cart", nil)
	fx.router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, fx.guest.Read(ctx))
}

func TestClearCart_RejectedInRemoteMode(t *testing.T) {
	fx := newFixture(t, &stubRemote{})
	fx.sess.Set("token", session.Identity{ID: "u1"})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("DELETE", "/api/v1/cart", nil)
	fx.router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusConflict, recorder.Code)
}
