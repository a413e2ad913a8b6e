// Package di contains dependency injection tokens for the exchange context.
package di

import (
	"github.com/sbswap/swappool/business/exchange/app"
	"github.com/sbswap/swappool/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Service = di.NewToken[*app.ExchangeService]("exchange.Service")

	// Outbound is registered by whichever module owns the chat gateway.
	Outbound = di.NewToken[app.Outbound]("exchange.Outbound")
)

// Helper functions for type-safe access
func GetService(c di.ServiceRegistry) *app.ExchangeService {
	return di.GetToken(c, Service)
}

func GetOutbound(c di.ServiceRegistry) app.Outbound {
	return di.GetToken(c, Outbound)
}
