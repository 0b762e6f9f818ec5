package check

import (
	"github.com/smallbiznis/tally/internal/check/service"
	"go.uber.org/fx"
)

var Module = fx.Module("check.service",
	fx.Provide(service.NewService),
)
