package main

import (
	"os"

	"github.com/obratech/pedidos/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
