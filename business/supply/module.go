// Package supply implements the supply bounded context: the supplier
// ledger, fee distribution and the contribution window.
package supply

import (
	"context"
	"database/sql"

	poolDI "github.com/sbswap/swappool/business/pool/di"
	"github.com/sbswap/swappool/business/supply/app"
	supplyDI "github.com/sbswap/swappool/business/supply/di"
	"github.com/sbswap/swappool/business/supply/domain"
	"github.com/sbswap/swappool/business/supply/infra/sqlite"
	"github.com/sbswap/swappool/internal/config"
	"github.com/sbswap/swappool/internal/di"
	"github.com/sbswap/swappool/internal/logger"
	"github.com/sbswap/swappool/internal/monolith"
)

// Module implements the supply bounded context.
type Module struct{}

// RegisterServices registers all supply services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Store - private dependency
	di.RegisterToken(c, supplyDI.Store, func(sr di.ServiceRegistry) app.Store {
		db := sr.Get("db").(*sql.DB)
		return sqlite.NewStore(db)
	})

	// Register SupplierLedger (public - exposed to exchange and bot)
	di.RegisterToken(c, supplyDI.SupplierLedger, func(sr di.ServiceRegistry) *app.SupplierLedger {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		window := domain.NewContributionWindow(cfg.Pool.SupplierWindow)
		return app.NewSupplierLedger(supplyDI.GetStore(sr), poolDI.GetLedger(sr), window, log)
	})

	return nil
}

// Startup initializes the supply module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "supply module started",
		"window", mono.Config().Pool.SupplierWindow.String())
	return nil
}
