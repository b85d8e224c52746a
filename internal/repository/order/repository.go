package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/obratech/pedidos/internal/database"
	"github.com/obratech/pedidos/internal/entity"
)

var repoTracer = otel.Tracer("github.com/obratech/pedidos/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// ErrPreconditionChanged is returned when a conditional write matched no
// row because another actor got there first.
var ErrPreconditionChanged = errors.New("order changed since read")

// Repository encapsulates read/write access for orders and their audit rows.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Create persists a new order using the write connection.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.String("order.id", order.ID)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(order).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches an order by primary key using the read replica when available.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// List returns all orders, newest first.
func (r *Repository) List(ctx context.Context) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List")
	defer span.End()

	var orders []entity.Order
	err := r.reader.NewSelect().Model(&orders).Order("created_at DESC").Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// ListByEngineer returns the orders created by one engineer, newest first.
func (r *Repository) ListByEngineer(ctx context.Context, engineerID string) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListByEngineer", trace.WithAttributes(attribute.String("engineer.id", engineerID)))
	defer span.End()

	var orders []entity.Order
	err := r.reader.NewSelect().Model(&orders).
		Where("engineer_id = ?", engineerID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// ListAvailable returns unclaimed pending orders, newest first.
func (r *Repository) ListAvailable(ctx context.Context) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListAvailable")
	defer span.End()

	var orders []entity.Order
	err := r.reader.NewSelect().Model(&orders).
		Where("responsible_id IS NULL").
		Where("status = ?", entity.StatusPending).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// ListByResponsible returns a manager's open orders, newest first.
func (r *Repository) ListByResponsible(ctx context.Context, managerID string) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListByResponsible", trace.WithAttributes(attribute.String("manager.id", managerID)))
	defer span.End()

	var orders []entity.Order
	err := r.reader.NewSelect().Model(&orders).
		Where("responsible_id = ?", managerID).
		Where("status != ?", entity.StatusDelivered).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// Claim assigns the responsible manager with a single conditional update.
// The WHERE clause re-checks claimability so two racing claims cannot both
// win; the loser sees ErrPreconditionChanged.
func (r *Repository) Claim(ctx context.Context, orderID, managerID, managerName string, at time.Time) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Claim", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("manager.id", managerID),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.Order)(nil)).
		Set("responsible_id = ?", managerID).
		Set("responsible_name = ?", managerName).
		Set("updated_at = ?", at).
		Where("id = ?", orderID).
		Where("responsible_id IS NULL").
		Where("status = ?", entity.StatusPending).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return err
	}
	if affected == 0 {
		span.SetStatus(codes.Error, "claim precondition failed")
		return ErrPreconditionChanged
	}
	return nil
}

// AdvanceStatus moves an order from prev to next with a conditional update
// guarded on the previous status, so concurrent advances cannot skip stages.
func (r *Repository) AdvanceStatus(ctx context.Context, orderID string, prev, next entity.Status, at time.Time) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.AdvanceStatus", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.status.prev", string(prev)),
		attribute.String("order.status.next", string(next)),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.Order)(nil)).
		Set("status = ?", next).
		Set("updated_at = ?", at).
		Where("id = ?", orderID).
		Where("status = ?", prev).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return err
	}
	if affected == 0 {
		span.SetStatus(codes.Error, "advance precondition failed")
		return ErrPreconditionChanged
	}
	return nil
}

// AppendStatusUpdate writes one audit row for an advancement. Callers treat
// this as best-effort; it is not transactional with the status write.
func (r *Repository) AppendStatusUpdate(ctx context.Context, update *entity.StatusUpdate) error {
	if update == nil {
		return errors.New("nil status update")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.AppendStatusUpdate", trace.WithAttributes(attribute.String("order.id", update.OrderID)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(update).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}
