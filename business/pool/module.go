// Package pool implements the pool bounded context: the balance ledger,
// the constant-product conversion engine and the history sampler.
package pool

import (
	"context"
	"database/sql"
	"regexp"

	"github.com/sbswap/swappool/business/pool/app"
	"github.com/sbswap/swappool/business/pool/domain"
	poolDI "github.com/sbswap/swappool/business/pool/di"
	"github.com/sbswap/swappool/business/pool/infra/sqlite"
	"github.com/sbswap/swappool/internal/config"
	"github.com/sbswap/swappool/internal/di"
	"github.com/sbswap/swappool/internal/logger"
	"github.com/sbswap/swappool/internal/monolith"
)

// Module implements the pool bounded context.
type Module struct{}

// RegisterServices registers all pool services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Store - private dependency
	di.RegisterToken(c, poolDI.Store, func(sr di.ServiceRegistry) app.Store {
		db := sr.Get("db").(*sql.DB)
		return sqlite.NewStore(db)
	})

	// Register Engine (public - pure pricing, shared with exchange)
	di.RegisterToken(c, poolDI.Engine, func(sr di.ServiceRegistry) *domain.Engine {
		cfg := sr.Get("config").(*config.Config)
		return domain.NewEngine(cfg.Pool.SupplyFeeRateDecimal())
	})

	// Register Ledger (public - exposed to other modules)
	di.RegisterToken(c, poolDI.Ledger, func(sr di.ServiceRegistry) *app.Ledger {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		first := buildAsset(cfg.Assets[0])
		second := buildAsset(cfg.Assets[1])

		ledger, err := app.NewLedger(context.Background(), first, second, poolDI.GetStore(sr), log)
		if err != nil {
			panic("failed to restore pool ledger: " + err.Error())
		}
		return ledger
	})

	// Register Sampler (public - exchange triggers it, bot reads series)
	di.RegisterToken(c, poolDI.Sampler, func(sr di.ServiceRegistry) *app.Sampler {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewSampler(
			poolDI.GetLedger(sr),
			poolDI.GetEngine(sr),
			poolDI.GetStore(sr),
			cfg.Pool.SampleInterval,
			cfg.Pool.ResampleInterval,
			log,
		)
	})

	return nil
}

// Startup initializes the pool module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	ledger := poolDI.GetLedger(mono.Services())
	ledger.SetSampler(poolDI.GetSampler(mono.Services()))

	first, second := ledger.Assets()
	balanceA, balanceB := ledger.Balances()
	log.Info(ctx, "pool module started",
		first.Name(), balanceA.String(),
		second.Name(), balanceB.String(),
	)
	return nil
}

// buildAsset constructs a domain asset from its configuration, selecting the
// fee/parse variant.
func buildAsset(cfg config.AssetConfig) *domain.Asset {
	pattern := regexp.MustCompile(cfg.TransferPattern)

	var variant domain.Variant
	switch cfg.FeeVariant {
	case "percent_ceil":
		variant = domain.PercentCeilFee{Rate: cfg.FeeRateDecimal(), Pattern: pattern}
	default:
		variant = domain.NoFee{Pattern: pattern}
	}

	return domain.NewAsset(cfg.Name, cfg.Emoji, cfg.EmojiName, cfg.BotUser, variant)
}
