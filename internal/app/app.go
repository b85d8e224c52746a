package app

import (
	"go.uber.org/fx"

	"github.com/obratech/pedidos/internal/cache"
	"github.com/obratech/pedidos/internal/config"
	"github.com/obratech/pedidos/internal/database"
	"github.com/obratech/pedidos/internal/identity"
	"github.com/obratech/pedidos/internal/logger"
	"github.com/obratech/pedidos/internal/messaging"
	"github.com/obratech/pedidos/internal/observability"
	repositorycomment "github.com/obratech/pedidos/internal/repository/comment"
	repositoryorder "github.com/obratech/pedidos/internal/repository/order"
	repositoryuser "github.com/obratech/pedidos/internal/repository/user"
	httpserver "github.com/obratech/pedidos/internal/server/http"
	servicecomment "github.com/obratech/pedidos/internal/service/comment"
	serviceorder "github.com/obratech/pedidos/internal/service/order"
	serviceuser "github.com/obratech/pedidos/internal/service/user"
	transporthttp "github.com/obratech/pedidos/internal/transport/http"
	"github.com/obratech/pedidos/internal/worker"
	workerorder "github.com/obratech/pedidos/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	identity.Module,
	repositoryorder.Module,
	repositoryuser.Module,
	repositorycomment.Module,
	serviceorder.Module,
	serviceuser.Module,
	servicecomment.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
)

// Worker exposes background lifecycle-event processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
