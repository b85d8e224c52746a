package user

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/obratech/pedidos/internal/dto"
	"github.com/obratech/pedidos/internal/entity"
	"github.com/obratech/pedidos/internal/identity"
	"github.com/obratech/pedidos/internal/presentation/http/response"
	service "github.com/obratech/pedidos/internal/service/user"
	authmw "github.com/obratech/pedidos/internal/transport/http/middleware"
	"github.com/obratech/pedidos/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/obratech/pedidos/transport/http/user")

// Handler exposes signup, login, and the approval workflow over HTTP.
type Handler struct {
	svc    *service.Service
	tokens *identity.TokenManager
}

// NewHandler constructs a user Handler.
func NewHandler(svc *service.Service, tokens *identity.TokenManager) *Handler {
	return &Handler{svc: svc, tokens: tokens}
}

// Register routes with the provided Echo instance. Auth endpoints are
// public; the approval workflow requires a session.
func Register(e *echo.Echo, h *Handler) {
	auth := e.Group("/auth")
	auth.POST("/signup", h.signup)
	auth.POST("/login", h.login)

	users := e.Group("/users", authmw.RequireSession(h.tokens))
	users.GET("/pending", h.listPending)
	users.POST("/:id/approve", h.approve)
}

func (h *Handler) signup(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.signup")
	defer span.End()

	user, err := h.svc.Signup(ctx, payload.Email, payload.Password, payload.Name)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.NewUserResponse(user)).Build()
}

func (h *Handler) login(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.login")
	defer span.End()

	result, err := h.svc.Login(ctx, payload.Email, payload.Password)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.LoginResponse{
		Token:           result.Token,
		User:            dto.NewUserResponse(result.User),
		PendingApproval: result.PendingApproval,
	}).Build()
}

func (h *Handler) listPending(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "users.listPending")
	defer span.End()

	users, err := h.svc.ListPending(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewUserResponses(users)).WithMeta("count", len(users)).Build()
}

func (h *Handler) approve(c echo.Context) error {
	b := response.New(c)
	targetID := c.Param("id")

	principal, ok := authmw.Principal(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("missing session")).Build()
	}

	var payload struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.approve", trace.WithAttributes(
		attribute.String("user.id", targetID),
		attribute.String("user.role", payload.Role),
	))
	defer span.End()

	user, err := h.svc.Approve(ctx, principal.UserID, targetID, entity.Role(payload.Role))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewUserResponse(user)).Build()
}
