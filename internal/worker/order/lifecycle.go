package order

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/obratech/pedidos/internal/config"
	"github.com/obratech/pedidos/internal/messaging"
	ordersvc "github.com/obratech/pedidos/internal/service/order"
	"github.com/obratech/pedidos/internal/worker"
)

var workerTracer = otel.Tracer("github.com/obratech/pedidos/worker/order")

// Module registers the order lifecycle worker handler.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewLifecycleHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewLifecycleHandler consumes order lifecycle events. This is the
// notification hook: it acknowledges whatever it can decode and makes no
// delivery promises.
func NewLifecycleHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.lifecycle", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event ordersvc.LifecycleEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode lifecycle event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		switch event.Event {
		case ordersvc.EventOrderCreated:
			logger.Info("order created",
				zap.String("order_id", event.OrderID),
				zap.String("cost_center", event.CostCenter),
				zap.String("urgency", string(event.Urgency)),
			)
		case ordersvc.EventOrderClaimed:
			logger.Info("order claimed",
				zap.String("order_id", event.OrderID),
				zap.String("responsible", event.ResponsibleName),
			)
		case ordersvc.EventOrderStatusChanged:
			logger.Info("order advanced",
				zap.String("order_id", event.OrderID),
				zap.String("previous_status", string(event.PreviousStatus)),
				zap.String("new_status", string(event.Status)),
			)
		default:
			logger.Warn("unknown lifecycle event", zap.String("event", event.Event))
		}

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
