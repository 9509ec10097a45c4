package handler

import (
	"encoding/json"
	"net/http"

	"github.com/openarb/arbengine/internal/domain"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// executionResultDTO is the wire shape of an execution result; durations are
// reported in seconds for dashboard consumption.
type executionResultDTO struct {
	Success          bool               `json:"success"`
	OrderID          string             `json:"order_id"`
	FilledQuantity   string             `json:"filled_quantity"`
	AveragePrice     string             `json:"average_price"`
	Commission       string             `json:"commission"`
	ExecutionSeconds float64            `json:"execution_seconds"`
	Slippage         float64            `json:"slippage"`
	FailureKind      domain.FailureKind `json:"failure_kind,omitempty"`
	ErrorMessage     string             `json:"error_message,omitempty"`
}

func toResultDTO(res domain.ExecutionResult) executionResultDTO {
	return executionResultDTO{
		Success:          res.Success,
		OrderID:          res.OrderID,
		FilledQuantity:   res.FilledQuantity.String(),
		AveragePrice:     res.AveragePrice.String(),
		Commission:       res.Commission.String(),
		ExecutionSeconds: res.ExecutionTime.Seconds(),
		Slippage:         res.Slippage,
		FailureKind:      res.FailureKind,
		ErrorMessage:     res.ErrorMessage,
	}
}

// orderDTO is the wire shape of an order.
type orderDTO struct {
	ID               string             `json:"id"`
	Symbol           string             `json:"symbol"`
	Venue            string             `json:"venue"`
	Side             domain.OrderSide   `json:"side"`
	Type             domain.OrderType   `json:"type"`
	Quantity         string             `json:"quantity"`
	Price            string             `json:"price,omitempty"`
	StopPrice        string             `json:"stop_price,omitempty"`
	Status           domain.OrderStatus `json:"status"`
	FilledQuantity   string             `json:"filled_quantity"`
	AvgFillPrice     string             `json:"avg_fill_price"`
	Commission       string             `json:"commission"`
	CreatedAt        string             `json:"created_at"`
	UpdatedAt        string             `json:"updated_at"`
	ExecutionSeconds float64            `json:"execution_seconds"`
	ErrorMessage     string             `json:"error_message,omitempty"`
}

func toOrderDTO(o domain.Order) orderDTO {
	dto := orderDTO{
		ID:               o.ID,
		Symbol:           o.Symbol,
		Venue:            o.Venue,
		Side:             o.Side,
		Type:             o.Type,
		Quantity:         o.Quantity.String(),
		Status:           o.Status,
		FilledQuantity:   o.FilledQuantity.String(),
		AvgFillPrice:     o.AvgFillPrice.String(),
		Commission:       o.Commission.String(),
		CreatedAt:        o.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		UpdatedAt:        o.UpdatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		ExecutionSeconds: o.ExecutionTime.Seconds(),
		ErrorMessage:     o.ErrorMessage,
	}
	if !o.Price.IsZero() {
		dto.Price = o.Price.String()
	}
	if !o.StopPrice.IsZero() {
		dto.StopPrice = o.StopPrice.String()
	}
	return dto
}
