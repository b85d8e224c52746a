package user

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

var repoTracer = otel.Tracer("github.com/obratech/pedidos/repository/user")

// ErrNotFound is returned when a user is missing.
var ErrNotFound = errors.New("user not found")

// ErrAlreadyApproved is returned when a role assignment matched no row
// because the target already holds a role.
var ErrAlreadyApproved = errors.New("user already approved")

// Repository encapsulates read/write access for account profiles.
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

// Create persists a new profile with no role assigned.
func (r *Repository) Create(ctx context.Context, user *entity.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	ctx, span := repoTracer.Start(ctx, "UserRepository.Create", trace.WithAttributes(attribute.String("user.id", user.ID)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches a profile by primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.GetByID", trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()

	user := new(entity.User)
	err := r.reader.NewSelect().Model(user).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return user, nil
}

// GetByEmail fetches a profile by email address.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.GetByEmail")
	defer span.End()

	user := new(entity.User)
	err := r.reader.NewSelect().Model(user).Where("email = ?", email).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return user, nil
}

// ListPending returns accounts awaiting role approval, newest first.
func (r *Repository) ListPending(ctx context.Context) ([]entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.ListPending")
	defer span.End()

	var users []entity.User
	err := r.reader.NewSelect().Model(&users).
		Where("role IS NULL").
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return users, nil
}

// AssignRole performs the one-time role assignment with a conditional
// update; an already-approved target yields ErrAlreadyApproved.
func (r *Repository) AssignRole(ctx context.Context, userID string, role entity.Role) error {
	ctx, span := repoTracer.Start(ctx, "UserRepository.AssignRole", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("user.role", string(role)),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.User)(nil)).
		Set("role = ?", role).
		Where("id = ?", userID).
		Where("role IS NULL").
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
		span.SetStatus(codes.Error, "role already assigned")
		return ErrAlreadyApproved
	}
	return nil
}

// TouchLastLogin records the login timestamp.
func (r *Repository) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	ctx, span := repoTracer.Start(ctx, "UserRepository.TouchLastLogin", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	_, err := r.writer.NewUpdate().Model((*entity.User)(nil)).
		Set("last_login = ?", at).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}
