package comment

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/obratech/pedidos/internal/dto"
	"github.com/obratech/pedidos/internal/identity"
	"github.com/obratech/pedidos/internal/presentation/http/response"
	service "github.com/obratech/pedidos/internal/service/comment"
	authmw "github.com/obratech/pedidos/internal/transport/http/middleware"
	"github.com/obratech/pedidos/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/obratech/pedidos/transport/http/comment")

// Handler exposes the order comment thread over HTTP.
type Handler struct {
	svc    *service.Service
	tokens *identity.TokenManager
}

// NewHandler constructs a comment Handler.
func NewHandler(svc *service.Service, tokens *identity.TokenManager) *Handler {
	return &Handler{svc: svc, tokens: tokens}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders/:id/comments", authmw.RequireSession(h.tokens))
	g.GET("", h.list)
	g.POST("", h.add)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	orderID := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "comments.list", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	comments, err := h.svc.ListByOrder(ctx, orderID)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewCommentResponses(comments)).WithMeta("count", len(comments)).Build()
}

func (h *Handler) add(c echo.Context) error {
	b := response.New(c)
	orderID := c.Param("id")

	principal, ok := authmw.Principal(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("missing session")).Build()
	}

	var payload struct {
		Comment string `json:"comment"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "comments.add", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	comment, err := h.svc.Add(ctx, orderID, principal.UserID, principal.Name, payload.Comment)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.NewCommentResponse(comment)).Build()
}
