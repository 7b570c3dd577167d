package main

import (
	"go.uber.org/fx"

	"github.com/anonto42/campus-notices/backend/internal/router"
)

func main() {
	fx.New(router.Module).Run()
}
