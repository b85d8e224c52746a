package user

import (
	"go.uber.org/fx"

	userrepo "github.com/obratech/pedidos/internal/repository/user"
)

// Module provides the user service and binds its store to the concrete
// repository.
var Module = fx.Options(
	fx.Provide(
		NewService,
		func(r *userrepo.Repository) Store { return r },
	),
)
