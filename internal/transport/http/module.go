package http

import (
	"go.uber.org/fx"

	commenttransport "github.com/obratech/pedidos/internal/transport/http/comment"
	ordertransport "github.com/obratech/pedidos/internal/transport/http/order"
	usertransport "github.com/obratech/pedidos/internal/transport/http/user"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	usertransport.Module,
	commenttransport.Module,
)
