package pricetier

import (
	"github.com/smallbiznis/tally/internal/pricetier/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pricetier.service",
	fx.Provide(service.NewService),
)
