package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	exchangeApp "github.com/sbswap/swappool/business/exchange/app"
	poolDomain "github.com/sbswap/swappool/business/pool/domain"
	"github.com/sbswap/swappool/internal/apperror"
	"github.com/sbswap/swappool/internal/circuitbreaker"
	"github.com/sbswap/swappool/internal/logger"
)

// Sender delivers pool assets by posting each asset bot's transfer command
// into the pool channel. Deliveries run through a circuit breaker so a
// misbehaving gateway doesn't hammer the API.
type Sender struct {
	session   *discordgo.Session
	channelID string
	commands  map[string]string // asset name -> command template
	cb        *circuitbreaker.CircuitBreaker[*discordgo.Message]
	log       logger.LoggerInterface
}

var _ exchangeApp.Outbound = (*Sender)(nil)

// NewSender creates a Sender. commands maps asset names to their transfer
// command templates, formatted with the amount and the recipient's user ID.
func NewSender(session *discordgo.Session, channelID string, commands map[string]string, log logger.LoggerInterface) *Sender {
	return &Sender{
		session:   session,
		channelID: channelID,
		commands:  commands,
		cb:        circuitbreaker.New[*discordgo.Message](circuitbreaker.DefaultConfig("discord-sender")),
		log:       log,
	}
}

// Send posts the asset bot's transfer command for amount to recipientID.
func (s *Sender) Send(ctx context.Context, asset *poolDomain.Asset, recipientID string, amount int64) error {
	template, ok := s.commands[asset.Name()]
	if !ok || template == "" {
		return apperror.New(apperror.CodeOutboundDeliveryFailed,
			apperror.WithContext(fmt.Sprintf("no transfer command for %s", asset.Name())))
	}

	content := fmt.Sprintf(template, amount, recipientID)

	_, err := s.cb.Execute(func() (*discordgo.Message, error) {
		return s.session.ChannelMessageSend(s.channelID, content, discordgo.WithContext(ctx))
	})
	if err != nil {
		return apperror.New(apperror.CodeOutboundDeliveryFailed,
			apperror.WithContext(fmt.Sprintf("send %d %s to %s", amount, asset.Name(), recipientID)),
			apperror.WithCause(err))
	}

	s.log.Info(ctx, "assets sent", "asset", asset.Name(), "recipient", recipientID, "amount", amount)
	return nil
}
