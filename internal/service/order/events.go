package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/obratech/pedidos/internal/entity"
)

// Event names published on the lifecycle topic.
const (
	EventOrderCreated       = "order.created"
	EventOrderClaimed       = "order.claimed"
	EventOrderStatusChanged = "order.status_changed"
)

// LifecycleEvent is emitted after each successful order mutation. Delivery
// is best-effort; consumers must tolerate gaps.
type LifecycleEvent struct {
	Event           string         `json:"event"`
	OrderID         string         `json:"order_id"`
	Status          entity.Status  `json:"status"`
	PreviousStatus  entity.Status  `json:"previous_status,omitempty"`
	CostCenter      string         `json:"cost_center"`
	Urgency         entity.Urgency `json:"urgency"`
	ActorID         string         `json:"actor_id"`
	ResponsibleName string         `json:"responsible_name,omitempty"`
	OccurredAt      time.Time      `json:"occurred_at"`
}

func (s *Service) publishEvent(ctx context.Context, name string, order *entity.Order, prev entity.Status, actorID string) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := LifecycleEvent{
		Event:          name,
		OrderID:        order.ID,
		Status:         order.Status,
		PreviousStatus: prev,
		CostCenter:     order.CostCenter,
		Urgency:        order.Urgency,
		ActorID:        actorID,
		OccurredAt:     order.UpdatedAt,
	}
	if order.ResponsibleName != nil {
		event.ResponsibleName = *order.ResponsibleName
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal lifecycle event", zap.String("event", name), zap.Error(err))
		return
	}
	key := []byte(fmt.Sprintf("order-%s", order.ID))
	if err := s.publisher.Publish(ctx, key, payload); err != nil {
		s.logger.Error("publish lifecycle event", zap.String("event", name), zap.Error(err))
	}
}
