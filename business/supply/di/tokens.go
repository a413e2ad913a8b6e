// Package di contains dependency injection tokens for the supply context.
package di

import (
	"github.com/sbswap/swappool/business/supply/app"
	"github.com/sbswap/swappool/internal/di"
)

// Public service tokens - exposed to other modules
var (
	SupplierLedger = di.NewToken[*app.SupplierLedger]("supply.SupplierLedger")
)

// Private dependency tokens - internal to supply module
var (
	Store = di.NewToken[app.Store]("supply:store")
)

// Helper functions for type-safe access
func GetSupplierLedger(c di.ServiceRegistry) *app.SupplierLedger {
	return di.GetToken(c, SupplierLedger)
}

func GetStore(c di.ServiceRegistry) app.Store {
	return di.GetToken(c, Store)
}
