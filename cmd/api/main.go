package main

import (
	"go.uber.org/fx"

	"github.com/obratech/pedidos/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
