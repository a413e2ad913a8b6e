// Package bot implements the chat-facing bounded context: the Discord
// gateway, the command router, the outbound sender and chart rendering.
package bot

import (
	"context"

	"github.com/sbswap/swappool/business/bot/app"
	botDI "github.com/sbswap/swappool/business/bot/di"
	"github.com/sbswap/swappool/business/bot/infra/discord"
	"github.com/sbswap/swappool/business/bot/infra/quickchart"
	exchangeApp "github.com/sbswap/swappool/business/exchange/app"
	exchangeDI "github.com/sbswap/swappool/business/exchange/di"
	poolDI "github.com/sbswap/swappool/business/pool/di"
	supplyDI "github.com/sbswap/swappool/business/supply/di"
	"github.com/sbswap/swappool/internal/config"
	"github.com/sbswap/swappool/internal/di"
	"github.com/sbswap/swappool/internal/logger"
	"github.com/sbswap/swappool/internal/monolith"
)

// Module implements the bot bounded context.
type Module struct{}

// RegisterServices registers all bot services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Gateway - owns the Discord session
	di.RegisterToken(c, botDI.Gateway, func(sr di.ServiceRegistry) *discord.Gateway {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		gw, err := discord.NewGateway(cfg.Discord.Token, cfg.Discord.ChannelID, log)
		if err != nil {
			panic(err)
		}
		return gw
	})

	// Register the exchange's Outbound port: transfers go out through the
	// gateway's session as the asset bots' own commands.
	di.RegisterToken(c, exchangeDI.Outbound, func(sr di.ServiceRegistry) exchangeApp.Outbound {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		commands := make(map[string]string, len(cfg.Assets))
		for _, a := range cfg.Assets {
			commands[a.Name] = a.TransferCommand
		}

		return discord.NewSender(botDI.GetGateway(sr).Session(), cfg.Discord.ChannelID, commands, log)
	})

	// Register Renderer - chart rendering via QuickChart
	di.RegisterToken(c, botDI.Renderer, func(sr di.ServiceRegistry) app.ChartRenderer {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		renderer, err := quickchart.NewClient(
			cfg.Chart.Endpoint,
			cfg.Chart.RequestsPerMinute,
			cfg.Assets[0].Name,
			cfg.Assets[1].Name,
			log,
		)
		if err != nil {
			panic(err)
		}
		return renderer
	})

	// Register Router - command dispatch
	di.RegisterToken(c, botDI.Router, func(sr di.ServiceRegistry) *app.Router {
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewRouter(
			poolDI.GetLedger(sr),
			poolDI.GetEngine(sr),
			poolDI.GetSampler(sr),
			supplyDI.GetSupplierLedger(sr),
			exchangeDI.GetService(sr),
			botDI.GetRenderer(sr),
			log,
		)
	})

	return nil
}

// Startup opens the Discord connection.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	gw := botDI.GetGateway(mono.Services())
	gw.SetRouter(botDI.GetRouter(mono.Services()))
	if err := gw.Start(ctx); err != nil {
		return err
	}

	mono.Logger().Info(ctx, "bot module started", "channel", mono.Config().Discord.ChannelID)
	return nil
}
