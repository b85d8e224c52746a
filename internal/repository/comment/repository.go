package comment

import (
	"context"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/obratech/pedidos/internal/database"
	"github.com/obratech/pedidos/internal/entity"
)

var repoTracer = otel.Tracer("github.com/obratech/pedidos/repository/comment")

// Repository encapsulates the append-only comment store.
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

// Create appends a comment. There is no update or delete path.
func (r *Repository) Create(ctx context.Context, comment *entity.Comment) error {
	if comment == nil {
		return errors.New("nil comment")
	}
	ctx, span := repoTracer.Start(ctx, "CommentRepository.Create", trace.WithAttributes(attribute.String("order.id", comment.OrderID)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(comment).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// ListByOrder returns an order's thread in creation order.
func (r *Repository) ListByOrder(ctx context.Context, orderID string) ([]entity.Comment, error) {
	ctx, span := repoTracer.Start(ctx, "CommentRepository.ListByOrder", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	var comments []entity.Comment
	err := r.reader.NewSelect().Model(&comments).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return comments, nil
}
