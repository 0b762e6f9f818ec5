package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tally/internal/balance"
	"github.com/smallbiznis/tally/internal/billingcycle"
	"github.com/smallbiznis/tally/internal/catalog"
	"github.com/smallbiznis/tally/internal/check"
	checkdomain "github.com/smallbiznis/tally/internal/check/domain"
	"github.com/smallbiznis/tally/internal/clock"
	"github.com/smallbiznis/tally/internal/config"
	"github.com/smallbiznis/tally/internal/invoicing"
	invoicingdomain "github.com/smallbiznis/tally/internal/invoicing/domain"
	"github.com/smallbiznis/tally/internal/pricetier"
	"github.com/smallbiznis/tally/pkg/db"
	"github.com/smallbiznis/tally/pkg/log"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Billing engine
		billingcycle.Module,
		pricetier.Module,
		catalog.Module,
		balance.Module,
		check.Module,
		invoicing.Module,

		fx.Invoke(func(logger *zap.Logger, _ checkdomain.Service, _ invoicingdomain.Service) {
			logger.Info("billing engine ready")
		}),
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) *snowflake.Node {
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		panic(err)
	}
	return node
}
