// Package exchange implements the exchange bounded context: the compound
// operations combining the pool ledger and the supplier ledger.
package exchange

import (
	"context"

	"github.com/sbswap/swappool/business/exchange/app"
	exchangeDI "github.com/sbswap/swappool/business/exchange/di"
	poolDI "github.com/sbswap/swappool/business/pool/di"
	supplyDI "github.com/sbswap/swappool/business/supply/di"
	"github.com/sbswap/swappool/internal/di"
	"github.com/sbswap/swappool/internal/logger"
	"github.com/sbswap/swappool/internal/monolith"
)

// Module implements the exchange bounded context.
type Module struct{}

// RegisterServices registers all exchange services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register ExchangeService (public - exposed to the bot module).
	// The Outbound token is registered by the module owning the chat gateway.
	di.RegisterToken(c, exchangeDI.Service, func(sr di.ServiceRegistry) *app.ExchangeService {
		log := sr.Get("logger").(logger.LoggerInterface)

		svc, err := app.NewExchangeService(
			poolDI.GetLedger(sr),
			poolDI.GetEngine(sr),
			supplyDI.GetSupplierLedger(sr),
			exchangeDI.GetOutbound(sr),
			log,
		)
		if err != nil {
			panic(err)
		}
		return svc
	})

	return nil
}

// Startup initializes the exchange module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "exchange module started")
	return nil
}
