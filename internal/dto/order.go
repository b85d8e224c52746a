package dto

import (
	"time"

	"github.com/obratech/pedidos/internal/entity"
)

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID              string    `json:"id"`
	EngineerID      string    `json:"engineer_id"`
	EngineerName    string    `json:"engineer_name"`
	Materials       string    `json:"materials"`
	CostCenter      string    `json:"cost_center"`
	Deadline        string    `json:"deadline"`
	Urgency         string    `json:"urgency"`
	UrgencyLabel    string    `json:"urgency_label"`
	Status          string    `json:"status"`
	StatusLabel     string    `json:"status_label"`
	StatusStep      int       `json:"status_step"`
	ResponsibleID   *string   `json:"responsible_id,omitempty"`
	ResponsibleName *string   `json:"responsible_name,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewOrderResponse maps an order entity onto its transport representation,
// resolving labels from the canonical enum tables.
func NewOrderResponse(order *entity.Order) OrderResponse {
	return OrderResponse{
		ID:              order.ID,
		EngineerID:      order.EngineerID,
		EngineerName:    order.EngineerName,
		Materials:       order.Materials,
		CostCenter:      order.CostCenter,
		Deadline:        order.Deadline.Format("2006-01-02"),
		Urgency:         string(order.Urgency),
		UrgencyLabel:    order.Urgency.Label(),
		Status:          string(order.Status),
		StatusLabel:     order.Status.Label(),
		StatusStep:      order.Status.Step(),
		ResponsibleID:   order.ResponsibleID,
		ResponsibleName: order.ResponsibleName,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

// NewOrderResponses maps a slice of orders preserving input order.
func NewOrderResponses(orders []entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrderResponse(&orders[i]))
	}
	return out
}

// StatsResponse carries the dashboard counters.
type StatsResponse struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Delivered  int `json:"delivered"`
	MyOrders   int `json:"my_orders,omitempty"`
}
