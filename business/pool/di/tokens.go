// Package di contains dependency injection tokens for the pool context.
package di

import (
	"github.com/sbswap/swappool/business/pool/app"
	"github.com/sbswap/swappool/business/pool/domain"
	"github.com/sbswap/swappool/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Ledger  = di.NewToken[*app.Ledger]("pool.Ledger")
	Engine  = di.NewToken[*domain.Engine]("pool.Engine")
	Sampler = di.NewToken[*app.Sampler]("pool.Sampler")
)

// Private dependency tokens - internal to pool module
var (
	Store = di.NewToken[app.Store]("pool:store")
)

// Helper functions for type-safe access
func GetLedger(c di.ServiceRegistry) *app.Ledger {
	return di.GetToken(c, Ledger)
}

func GetEngine(c di.ServiceRegistry) *domain.Engine {
	return di.GetToken(c, Engine)
}

func GetSampler(c di.ServiceRegistry) *app.Sampler {
	return di.GetToken(c, Sampler)
}

func GetStore(c di.ServiceRegistry) app.Store {
	return di.GetToken(c, Store)
}
