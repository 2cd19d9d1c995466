package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DynastyTech/fusion-aura-sub001/internal/cart"
	"github.com/DynastyTech/fusion-aura-sub001/internal/domain"
	"github.com/DynastyTech/fusion-aura-sub001/internal/guestcart"
	"github.com/DynastyTech/fusion-aura-sub001/internal/session"
	"github.com/DynastyTech/fusion-aura-sub001/internal/signal"
	"github.com/DynastyTech/fusion-aura-sub001/internal/syncer"
)

type CartHandler struct {
	syncer  *syncer.Syncer
	mutator *cart.Mutator
	guest   *guestcart.Store
	sess    *session.Store
	bus     *signal.Bus
}

func NewCartHandler(s *syncer.Syncer, m *cart.Mutator, guest *guestcart.Store, sess *session.Store, bus *signal.Bus) *CartHandler {
	return &CartHandler{syncer: s, mutator: m, guest: guest, sess: sess, bus: bus}
}

type AddItemRequestDTO struct {
	Product  domain.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

type AddItemResponseDTO struct {
	Navigate  bool   `json:"navigate"`
	ItemCount int    `json:"item_count"`
	Error     string `json:"error,omitempty"`
}

type CartResponseDTO struct {
	ItemCount int               `json:"item_count"`
	GuestMode bool              `json:"guest_mode"`
	Items     []domain.LineItem `json:"items,omitempty"`
	Total     string            `json:"total,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// GetCart returns the current authoritative snapshot. In guest mode the
// stored line items and cart total ride along for the cart view.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	snapshot, _ := h.syncer.Snapshot()

	resp := CartResponseDTO{ItemCount: snapshot.ItemCount}
	if !h.sess.Authenticated() {
		resp.GuestMode = true
		resp.Items = h.guest.Read(r.Context())
		resp.Total = h.guest.Total(r.Context()).StringFixed(2)
	}
	respondJSON(w, http.StatusOK, resp)
}

// AddItem is the add-to-cart entry point. Quantity bounds are enforced
// here, not in the stores.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Product.ID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	outcome := h.mutator.Add(r.Context(), req.Product, req.Quantity)
	snapshot, _ := h.syncer.Snapshot()

	if !outcome.Navigate {
		log.Printf("add to cart failed (request %s): %s", getRequestID(r.Context()), outcome.Message)
		respondJSON(w, http.StatusBadGateway, AddItemResponseDTO{
			ItemCount: snapshot.ItemCount,
			Error:     outcome.Message,
		})
		return
	}

	respondJSON(w, http.StatusCreated, AddItemResponseDTO{
		Navigate:  true,
		ItemCount: snapshot.ItemCount,
	})
}

// ClearCart empties the guest cart. Authenticated carts are server-owned;
// clearing those goes through the remote API, not this edge.
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if h.sess.Authenticated() {
		respondError(w, http.StatusConflict, "remote_mode", "authenticated carts are cleared through the cart api")
		return
	}
	h.guest.Clear(r.Context())
	h.bus.Publish(signal.CartChanged)
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// Routes mounts the cart endpoints on a router.
func (h *CartHandler) Routes(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/items", h.AddItem)
		r.Delete("/", h.ClearCart)
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}
