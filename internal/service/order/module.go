package order

import (
	"go.uber.org/fx"

	orderrepo "github.com/obratech/pedidos/internal/repository/order"
	userrepo "github.com/obratech/pedidos/internal/repository/user"
)

// Module provides the order service and binds its persistence interfaces
// to the concrete repositories.
var Module = fx.Options(
	fx.Provide(
		NewService,
		func(r *orderrepo.Repository) Store { return r },
		func(r *userrepo.Repository) Directory { return r },
	),
)
