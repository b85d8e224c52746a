package comment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/obratech/pedidos/internal/entity"
	orderrepo "github.com/obratech/pedidos/internal/repository/order"
	"github.com/obratech/pedidos/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/obratech/pedidos/service/comment")

// Store is the comment persistence surface the service depends on.
type Store interface {
	Create(ctx context.Context, comment *entity.Comment) error
	ListByOrder(ctx context.Context, orderID string) ([]entity.Comment, error)
}

// OrderFinder checks that the commented order actually exists.
type OrderFinder interface {
	GetByID(ctx context.Context, id string) (*entity.Order, error)
}

// Service manages the append-only comment thread per order.
type Service struct {
	store  Store
	orders OrderFinder
	logger *zap.Logger
	now    func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store  Store
	Orders OrderFinder
	Logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		store:  p.Store,
		orders: p.Orders,
		logger: p.Logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Add appends a comment to an order's thread. Empty or whitespace-only
// text is rejected.
func (s *Service) Add(ctx context.Context, orderID, userID, userName, text string) (*entity.Comment, error) {
	ctx, span := serviceTracer.Start(ctx, "CommentService.Add", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errorbank.BadRequest("comment text is required")
	}
	if userID == "" || userName == "" {
		return nil, errorbank.BadRequest("comment author is required")
	}

	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		if errors.Is(err, orderrepo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	comment := &entity.Comment{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		UserID:    userID,
		UserName:  userName,
		Comment:   text,
		CreatedAt: s.now(),
	}

	if err := s.store.Create(ctx, comment); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to add comment", errorbank.WithCause(err))
	}

	return comment, nil
}

// ListByOrder returns an order's thread in creation order.
func (s *Service) ListByOrder(ctx context.Context, orderID string) ([]entity.Comment, error) {
	ctx, span := serviceTracer.Start(ctx, "CommentService.ListByOrder", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	comments, err := s.store.ListByOrder(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to list comments", errorbank.WithCause(err))
	}
	return comments, nil
}
