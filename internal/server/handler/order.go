package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/openarb/arbengine/internal/domain"
)

// OrderService defines the methods that the order handler requires from the
// engine.
type OrderService interface {
	GetOrderStatus(id string) (domain.Order, error)
	GetActiveOrders() []domain.Order
	CancelOrder(ctx context.Context, id string) bool
}

// OrderHandler serves order-related HTTP endpoints.
type OrderHandler struct {
	orders OrderService
	logger *slog.Logger
}

// NewOrderHandler creates an OrderHandler with the given service and logger.
func NewOrderHandler(orders OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// ListActive returns orders still in a non-terminal status.
// GET /api/orders
func (h *OrderHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	orders := h.orders.GetActiveOrders()

	dtos := make([]orderDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, toOrderDTO(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": dtos})
}

// GetOrder returns a single order by its ID.
// GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	o, err := h.orders.GetOrderStatus(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get order failed",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get order")
		return
	}

	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

// CancelOrder makes a best-effort cancellation attempt.
// DELETE /api/orders/{id}
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	cancelled := h.orders.CancelOrder(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]any{
		"order_id":  id,
		"cancelled": cancelled,
	})
}
