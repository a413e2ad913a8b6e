// Package di contains dependency injection tokens for the bot context.
package di

import (
	"github.com/sbswap/swappool/business/bot/app"
	"github.com/sbswap/swappool/business/bot/infra/discord"
	"github.com/sbswap/swappool/internal/di"
)

// Private dependency tokens - internal to bot module
var (
	Router   = di.NewToken[*app.Router]("bot:router")
	Gateway  = di.NewToken[*discord.Gateway]("bot:gateway")
	Renderer = di.NewToken[app.ChartRenderer]("bot:renderer")
)

// Helper functions for type-safe access
func GetRouter(c di.ServiceRegistry) *app.Router {
	return di.GetToken(c, Router)
}

func GetGateway(c di.ServiceRegistry) *discord.Gateway {
	return di.GetToken(c, Gateway)
}

func GetRenderer(c di.ServiceRegistry) app.ChartRenderer {
	return di.GetToken(c, Renderer)
}
