package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/obratech/pedidos/internal/cache"
	"github.com/obratech/pedidos/internal/config"
	"github.com/obratech/pedidos/internal/entity"
	"github.com/obratech/pedidos/internal/messaging"
	orderrepo "github.com/obratech/pedidos/internal/repository/order"
	userrepo "github.com/obratech/pedidos/internal/repository/user"
	"github.com/obratech/pedidos/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/obratech/pedidos/service/order")

// Store is the order persistence surface the service depends on.
type Store interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	List(ctx context.Context) ([]entity.Order, error)
	ListByEngineer(ctx context.Context, engineerID string) ([]entity.Order, error)
	ListAvailable(ctx context.Context) ([]entity.Order, error)
	ListByResponsible(ctx context.Context, managerID string) ([]entity.Order, error)
	Claim(ctx context.Context, orderID, managerID, managerName string, at time.Time) error
	AdvanceStatus(ctx context.Context, orderID string, prev, next entity.Status, at time.Time) error
	AppendStatusUpdate(ctx context.Context, update *entity.StatusUpdate) error
}

// Directory resolves acting users so sensitive actions can verify the
// actor's role at the engine boundary rather than trusting the caller.
type Directory interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

// Service enforces creation validity, claim exclusivity, and monotonic
// stage advancement for orders.
type Service struct {
	store     Store
	users     Directory
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
	now       func() time.Time
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store     Store
	Users     Directory
	Cache     cache.Store
	Config    config.Config
	Logger    *zap.Logger
	Publisher messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		store:     p.Store,
		users:     p.Users,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    p.Logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput carries the fields an engineer submits for a new order.
type CreateInput struct {
	EngineerID   string
	EngineerName string
	Materials    string
	CostCenter   string
	Deadline     time.Time
	Urgency      entity.Urgency
}

// Create validates the request and persists a new pending, unclaimed order.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(attribute.String("order.cost_center", in.CostCenter)))
	defer span.End()

	if in.EngineerID == "" || in.EngineerName == "" {
		return nil, errorbank.BadRequest("engineer identity is required")
	}
	if strings.TrimSpace(in.Materials) == "" {
		return nil, errorbank.BadRequest("materials description is required")
	}
	if in.CostCenter == "" {
		return nil, errorbank.BadRequest("cost center is required")
	}
	if !entity.ValidCostCenter(in.CostCenter) {
		return nil, errorbank.BadRequest("unknown cost center", errorbank.WithDetail("cost_center", in.CostCenter))
	}
	if in.Deadline.IsZero() {
		return nil, errorbank.BadRequest("deadline is required")
	}
	now := s.now()
	if in.Deadline.Before(now.Truncate(24 * time.Hour)) {
		return nil, errorbank.BadRequest("deadline must not be in the past")
	}
	if in.Urgency == "" {
		in.Urgency = entity.UrgencyNormal
	}
	if !in.Urgency.Valid() {
		return nil, errorbank.BadRequest("invalid urgency", errorbank.WithDetail("urgency", string(in.Urgency)))
	}

	order := &entity.Order{
		ID:           uuid.NewString(),
		EngineerID:   in.EngineerID,
		EngineerName: in.EngineerName,
		Materials:    strings.TrimSpace(in.Materials),
		CostCenter:   in.CostCenter,
		Deadline:     in.Deadline,
		Urgency:      in.Urgency,
		Status:       entity.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("id", order.ID), zap.Error(err))
	}

	s.publishEvent(ctx, EventOrderCreated, order, "", order.EngineerID)
	return order, nil
}

// Claim assigns an unclaimed pending order to the acting manager. Exactly
// one of two racing claims wins; the other receives a conflict.
func (s *Service) Claim(ctx context.Context, managerID, managerName, orderID string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Claim", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("manager.id", managerID),
	))
	defer span.End()

	if err := s.requireManager(ctx, managerID); err != nil {
		return nil, err
	}

	err := s.store.Claim(ctx, orderID, managerID, managerName, s.now())
	if errors.Is(err, orderrepo.ErrPreconditionChanged) {
		existing, getErr := s.store.GetByID(ctx, orderID)
		if errors.Is(getErr, orderrepo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		if getErr != nil {
			return nil, errorbank.Internal("failed to load order", errorbank.WithCause(getErr))
		}
		span.SetStatus(codes.Error, "claim conflict")
		return nil, errorbank.Conflict("order is no longer claimable",
			errorbank.WithDetail("status", string(existing.Status)))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to claim order", errorbank.WithCause(err))
	}

	order, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("id", order.ID), zap.Error(err))
	}

	s.publishEvent(ctx, EventOrderClaimed, order, order.Status, managerID)
	return order, nil
}

// Advance moves an order one step along the pipeline and appends an audit
// row. The audit write is best-effort and not transactional with the
// status update.
func (s *Service) Advance(ctx context.Context, managerID, managerName, orderID string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Advance", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("manager.id", managerID),
	))
	defer span.End()

	if err := s.requireManager(ctx, managerID); err != nil {
		return nil, err
	}

	order, err := s.store.GetByID(ctx, orderID)
	if errors.Is(err, orderrepo.ErrNotFound) {
		return nil, errorbank.NotFound("order not found")
	}
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	prev := order.Status
	next, ok := prev.Next()
	if !ok {
		span.SetStatus(codes.Error, "terminal status")
		return nil, errorbank.Unprocessable("order already delivered",
			errorbank.WithDetail("status", string(prev)))
	}

	now := s.now()
	err = s.store.AdvanceStatus(ctx, orderID, prev, next, now)
	if errors.Is(err, orderrepo.ErrPreconditionChanged) {
		span.SetStatus(codes.Error, "advance conflict")
		return nil, errorbank.Conflict("order status changed since read")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to advance order", errorbank.WithCause(err))
	}

	audit := &entity.StatusUpdate{
		ID:             uuid.NewString(),
		OrderID:        orderID,
		PreviousStatus: prev,
		NewStatus:      next,
		UpdatedBy:      managerID,
		UpdatedByName:  managerName,
		CreatedAt:      now,
	}
	if err := s.store.AppendStatusUpdate(ctx, audit); err != nil {
		// The status write already landed; losing the audit row is accepted.
		s.logger.Warn("order audit write failed",
			zap.String("order_id", orderID),
			zap.String("previous_status", string(prev)),
			zap.String("new_status", string(next)),
			zap.Error(err),
		)
	}

	order.Status = next
	order.UpdatedAt = now

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("id", order.ID), zap.Error(err))
	}

	s.publishEvent(ctx, EventOrderStatusChanged, order, prev, managerID)
	return order, nil
}

// Get retrieves an order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if order, err := s.getFromCache(ctx, id); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.String("id", id), zap.Error(err))
	}

	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, orderrepo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("id", id), zap.Error(err))
	}

	return order, nil
}

// List returns every order, newest first.
func (s *Service) List(ctx context.Context) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List")
	defer span.End()

	orders, err := s.store.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// ListByEngineer returns the acting engineer's own orders, newest first.
func (s *Service) ListByEngineer(ctx context.Context, engineerID string) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ListByEngineer")
	defer span.End()

	orders, err := s.store.ListByEngineer(ctx, engineerID)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// ListAvailable returns unclaimed pending orders a manager may assume.
func (s *Service) ListAvailable(ctx context.Context) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ListAvailable")
	defer span.End()

	orders, err := s.store.ListAvailable(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// ListMine returns the manager's claimed, still-open orders.
func (s *Service) ListMine(ctx context.Context, managerID string) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ListMine")
	defer span.End()

	orders, err := s.store.ListByResponsible(ctx, managerID)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// requireManager rejects actions whose actor does not hold the manager
// role. The original UI trusted the client here; the check now lives at
// the engine boundary.
func (s *Service) requireManager(ctx context.Context, managerID string) error {
	actor, err := s.users.GetByID(ctx, managerID)
	if errors.Is(err, userrepo.ErrNotFound) {
		return errorbank.Unauthorized("acting user not found")
	}
	if err != nil {
		return errorbank.Internal("failed to verify acting user", errorbank.WithCause(err))
	}
	if !actor.IsManager() {
		return errorbank.Unauthorized("action requires the manager role")
	}
	return nil
}

func (s *Service) cacheKey(id string) string {
	return fmt.Sprintf("orders:%s", id)
}

func (s *Service) getFromCache(ctx context.Context, id string) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if s.cache == nil || order == nil {
		return nil
	}
	bytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cacheKey(order.ID), bytes, s.cacheTTL)
}
