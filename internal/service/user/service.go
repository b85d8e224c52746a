package user

import (
	"context"
	"errors"
	"net/mail"
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
	"github.com/obratech/pedidos/internal/identity"
	userrepo "github.com/obratech/pedidos/internal/repository/user"
	"github.com/obratech/pedidos/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/obratech/pedidos/service/user")

// Store is the account persistence surface the service depends on.
type Store interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ListPending(ctx context.Context) ([]entity.User, error)
	AssignRole(ctx context.Context, userID string, role entity.Role) error
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}

// Service implements signup, login, and the manager approval workflow.
type Service struct {
	store  Store
	tokens *identity.TokenManager
	logger *zap.Logger
	now    func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store  Store
	Tokens *identity.TokenManager
	Logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		store:  p.Store,
		tokens: p.Tokens,
		logger: p.Logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// LoginResult bundles the authenticated profile with its session token.
type LoginResult struct {
	User            *entity.User
	Token           string
	PendingApproval bool
}

// Signup registers a new account. The profile starts with no role and
// stays unusable until a manager approves it.
func (s *Service) Signup(ctx context.Context, email, password, name string) (*entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "UserService.Signup")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" || strings.TrimSpace(name) == "" {
		return nil, errorbank.BadRequest("email, password, and name are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, errorbank.BadRequest("invalid email address")
	}
	if len(password) < 6 {
		return nil, errorbank.BadRequest("password must have at least 6 characters")
	}

	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return nil, errorbank.Conflict("email already registered")
	} else if !errors.Is(err, userrepo.ErrNotFound) {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to check email", errorbank.WithCause(err))
	}

	hash, err := identity.HashPassword(password)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to hash password", errorbank.WithCause(err))
	}

	user := &entity.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		CreatedAt:    s.now(),
	}

	if err := s.store.Create(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create user", errorbank.WithCause(err))
	}

	s.logger.Info("user signed up, awaiting approval", zap.String("user_id", user.ID))
	return user, nil
}

// Login authenticates an email/password pair, refreshes last_login, and
// issues a session token. Accounts without a role land on the waiting
// screen, signalled via PendingApproval.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	ctx, span := serviceTracer.Start(ctx, "UserService.Login")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errorbank.BadRequest("email and password are required")
	}

	user, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, userrepo.ErrNotFound) {
		return nil, errorbank.Unauthorized("invalid email or password")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load user", errorbank.WithCause(err))
	}

	if !identity.CheckPassword(user.PasswordHash, password) {
		span.SetStatus(codes.Error, "bad credentials")
		return nil, errorbank.Unauthorized("invalid email or password")
	}

	now := s.now()
	if err := s.store.TouchLastLogin(ctx, user.ID, now); err != nil {
		// Login still succeeds; the timestamp is informational.
		s.logger.Warn("failed to record last login", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLogin = &now
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to issue session token", errorbank.WithCause(err))
	}

	return &LoginResult{
		User:            user,
		Token:           token,
		PendingApproval: !user.Approved(),
	}, nil
}

// Approve performs the one-time role assignment on a pending account. Only
// managers may approve; re-approving an already-approved user is rejected.
func (s *Service) Approve(ctx context.Context, actingManagerID, targetUserID string, role entity.Role) (*entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "UserService.Approve", trace.WithAttributes(
		attribute.String("user.id", targetUserID),
		attribute.String("user.role", string(role)),
	))
	defer span.End()

	if !role.Valid() {
		return nil, errorbank.BadRequest("role must be engineer or manager",
			errorbank.WithDetail("role", string(role)))
	}

	actor, err := s.store.GetByID(ctx, actingManagerID)
	if errors.Is(err, userrepo.ErrNotFound) {
		return nil, errorbank.Unauthorized("acting user not found")
	}
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to verify acting user", errorbank.WithCause(err))
	}
	if !actor.IsManager() {
		span.SetStatus(codes.Error, "actor not manager")
		return nil, errorbank.Unauthorized("approval requires the manager role")
	}

	err = s.store.AssignRole(ctx, targetUserID, role)
	if errors.Is(err, userrepo.ErrAlreadyApproved) {
		existing, getErr := s.store.GetByID(ctx, targetUserID)
		if errors.Is(getErr, userrepo.ErrNotFound) {
			return nil, errorbank.NotFound("user not found")
		}
		if getErr != nil {
			return nil, errorbank.Internal("failed to load user", errorbank.WithCause(getErr))
		}
		span.SetStatus(codes.Error, "already approved")
		detail := ""
		if existing.Role != nil {
			detail = string(*existing.Role)
		}
		return nil, errorbank.Conflict("user already has a role",
			errorbank.WithDetail("role", detail))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to approve user", errorbank.WithCause(err))
	}

	user, err := s.store.GetByID(ctx, targetUserID)
	if err != nil {
		return nil, errorbank.Internal("failed to load user", errorbank.WithCause(err))
	}

	s.logger.Info("user approved",
		zap.String("user_id", targetUserID),
		zap.String("role", string(role)),
		zap.String("approved_by", actingManagerID),
	)
	return user, nil
}

// ListPending returns unapproved accounts, newest first.
func (s *Service) ListPending(ctx context.Context) ([]entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "UserService.ListPending")
	defer span.End()

	users, err := s.store.ListPending(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to list pending users", errorbank.WithCause(err))
	}
	return users, nil
}

// Get loads a profile by id.
func (s *Service) Get(ctx context.Context, id string) (*entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "UserService.Get", trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()

	user, err := s.store.GetByID(ctx, id)
	if errors.Is(err, userrepo.ErrNotFound) {
		return nil, errorbank.NotFound("user not found")
	}
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to load user", errorbank.WithCause(err))
	}
	return user, nil
}
