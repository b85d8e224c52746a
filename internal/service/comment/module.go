package comment

import (
	"go.uber.org/fx"

	commentrepo "github.com/obratech/pedidos/internal/repository/comment"
	orderrepo "github.com/obratech/pedidos/internal/repository/order"
)

// Module provides the comment service and binds its persistence interfaces
// to the concrete repositories.
var Module = fx.Options(
	fx.Provide(
		NewService,
		func(r *commentrepo.Repository) Store { return r },
		func(r *orderrepo.Repository) OrderFinder { return r },
	),
)
