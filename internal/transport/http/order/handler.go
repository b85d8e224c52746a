package order

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/obratech/pedidos/internal/dto"
	"github.com/obratech/pedidos/internal/entity"
	"github.com/obratech/pedidos/internal/identity"
	"github.com/obratech/pedidos/internal/presentation/http/response"
	service "github.com/obratech/pedidos/internal/service/order"
	authmw "github.com/obratech/pedidos/internal/transport/http/middleware"
	"github.com/obratech/pedidos/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/obratech/pedidos/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc    *service.Service
	tokens *identity.TokenManager
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service, tokens *identity.TokenManager) *Handler {
	return &Handler{svc: svc, tokens: tokens}
}

// Register routes with the provided Echo instance. All order routes
// require an authenticated session.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders", authmw.RequireSession(h.tokens))
	g.GET("", h.list)
	g.GET("/available", h.listAvailable)
	g.GET("/mine", h.listMine)
	g.GET("/stats", h.stats)
	g.GET("/:id", h.getByID)
	g.POST("", h.create)
	g.POST("/:id/claim", h.claim)
	g.POST("/:id/advance", h.advance)
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	principal, ok := authmw.Principal(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("missing session")).Build()
	}

	var payload struct {
		Materials  string `json:"materials"`
		CostCenter string `json:"cost_center"`
		Deadline   string `json:"deadline"`
		Urgency    string `json:"urgency"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	var deadline time.Time
	if payload.Deadline != "" {
		parsed, err := time.Parse("2006-01-02", payload.Deadline)
		if err != nil {
			return b.WithError(errorbank.BadRequest("deadline must be a YYYY-MM-DD date", errorbank.WithCause(err))).Build()
		}
		deadline = parsed
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create", trace.WithAttributes(
		attribute.String("order.cost_center", payload.CostCenter),
	))
	defer span.End()

	order, err := h.svc.Create(ctx, service.CreateInput{
		EngineerID:   principal.UserID,
		EngineerName: principal.Name,
		Materials:    payload.Materials,
		CostCenter:   payload.CostCenter,
		Deadline:     deadline,
		Urgency:      entity.Urgency(payload.Urgency),
	})
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	principal, ok := authmw.Principal(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("missing session")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	// Engineers see their own orders; managers see the whole board.
	var (
		orders []entity.Order
		err    error
	)
	if principal.IsManager() {
		orders, err = h.svc.List(ctx)
	} else {
		orders, err = h.svc.ListByEngineer(ctx, principal.UserID)
	}
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponses(orders)).WithMeta("count", len(orders)).Build()
}

func (h *Handler) listAvailable(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listAvailable")
	defer span.End()

	orders, err := h.svc.ListAvailable(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponses(orders)).WithMeta("count", len(orders)).Build()
}

func (h *Handler) listMine(c echo.Context) error {
	b := response.New(c)

	principal, ok := authmw.Principal(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("missing session")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listMine")
	defer span.End()

	orders, err := h.svc.ListMine(ctx, principal.UserID)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponses(orders)).WithMeta("count", len(orders)).Build()
}

func (h *Handler) stats(c echo.Context) error {
	b := response.New(c)

	principal, ok := authmw.Principal(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("missing session")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.stats")
	defer span.End()

	var (
		orders []entity.Order
		err    error
	)
	if principal.IsManager() {
		orders, err = h.svc.List(ctx)
	} else {
		orders, err = h.svc.ListByEngineer(ctx, principal.UserID)
	}
	if err != nil {
		return b.WithError(err).Build()
	}

	var st service.Stats
	if principal.IsManager() {
		st = service.ComputeManagerStats(orders, principal.UserID)
	} else {
		st = service.ComputeStats(orders)
	}

	return b.WithData(dto.StatsResponse{
		Total:      st.Total,
		Pending:    st.Pending,
		InProgress: st.InProgress,
		Delivered:  st.Delivered,
		MyOrders:   st.MyOrders,
	}).Build()
}

func (h *Handler) claim(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	principal, ok := authmw.Principal(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("missing session")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.claim", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.svc.Claim(ctx, principal.UserID, principal.Name, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) advance(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	principal, ok := authmw.Principal(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("missing session")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.advance", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.svc.Advance(ctx, principal.UserID, principal.Name, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponse(order)).Build()
}
