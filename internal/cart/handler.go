package cart

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mond-tech/solfrance-backend/internal/pkg/httputil"
)

// Handler exposes cart endpoints over HTTP. All routes require an
// authenticated user.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler creates a cart HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the cart routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/", h.UpsertCart)
		r.Post("/items/{itemID}/remove", h.RemoveItem)
		r.Post("/checkout", h.Checkout)
	})
}

type upsertCartRequest struct {
	Items []upsertCartItem `json:"items" validate:"dive"`
}

type upsertCartItem struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Count     int    `json:"count" validate:"required,gt=0"`
}

// GetCart returns the caller's cart with its total.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r.Context())
	if userID == "" {
		httputil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	view, err := h.service.GetCart(r.Context(), userID)
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	httputil.Success(w, http.StatusOK, view)
}

// UpsertCart replaces the caller's cart with the requested items.
func (h *Handler) UpsertCart(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r.Context())
	if userID == "" {
		httputil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req upsertCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	items := make([]ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, ItemInput{ProductID: item.ProductID, Count: item.Count})
	}

	view, err := h.service.UpsertCart(r.Context(), userID, items)
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	httputil.Success(w, http.StatusOK, view)
}

// RemoveItem deletes one line from the caller's cart.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r.Context())
	if userID == "" {
		httputil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	itemID := chi.URLParam(r, "itemID")
	if err := h.validate.Var(itemID, "required,uuid"); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.service.RemoveItem(r.Context(), userID, itemID); err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	httputil.Success(w, http.StatusOK, map[string]string{"status": "removed"})
}

// Checkout converts the caller's cart into an order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r.Context())
	if userID == "" {
		httputil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	order, err := h.service.Checkout(r.Context(), userID)
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	httputil.Success(w, http.StatusCreated, order)
}

func (h *Handler) handleServiceError(r *http.Request, w http.ResponseWriter, err error) {
	httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
		{Error: ErrCartNotFound, Status: http.StatusNotFound},
		{Error: ErrCartEmpty, Status: http.StatusBadRequest},
		{Error: ErrItemNotFound, Status: http.StatusNotFound},
		{Error: ErrUnknownProduct, Status: http.StatusBadRequest},
	})
}
