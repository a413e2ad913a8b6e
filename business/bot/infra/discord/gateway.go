// Package discord implements the chat gateway on the Discord API.
package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/sbswap/swappool/business/bot/app"
	"github.com/sbswap/swappool/internal/apperror"
	"github.com/sbswap/swappool/internal/logger"
)

// Gateway connects the router to a Discord session. It listens on one
// channel: messages and reactions elsewhere are ignored.
type Gateway struct {
	session   *discordgo.Session
	router    *app.Router
	channelID string
	log       logger.LoggerInterface
}

// NewGateway creates a Gateway over a fresh Discord session. The router is
// attached separately: the outbound sender borrows this session, which puts
// the gateway upstream of the services the router needs.
func NewGateway(token, channelID string, log logger.LoggerInterface) (*Gateway, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, apperror.New(apperror.CodeGatewayError,
			apperror.WithContext("create session"), apperror.WithCause(err))
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentMessageContent

	return &Gateway{
		session:   session,
		channelID: channelID,
		log:       log,
	}, nil
}

// Session exposes the underlying session for outbound senders.
func (g *Gateway) Session() *discordgo.Session {
	return g.session
}

// SetRouter wires the message router. Must happen before Start.
func (g *Gateway) SetRouter(router *app.Router) {
	g.router = router
}

// Start registers the event handlers and opens the websocket connection.
func (g *Gateway) Start(ctx context.Context) error {
	if g.router == nil {
		return apperror.New(apperror.CodeGatewayError,
			apperror.WithContext("no router attached"))
	}

	g.session.AddHandler(g.onReady)
	g.session.AddHandler(g.onMessage)
	g.session.AddHandler(g.onReactionAdd)

	if err := g.session.Open(); err != nil {
		return apperror.New(apperror.CodeGatewayError,
			apperror.WithContext("open session"), apperror.WithCause(err))
	}
	return nil
}

// Close shuts down the websocket connection.
func (g *Gateway) Close() error {
	return g.session.Close()
}

func (g *Gateway) onReady(s *discordgo.Session, r *discordgo.Ready) {
	g.log.Info(context.Background(), "logged in", "user", r.User.String())
}

func (g *Gateway) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}
	if g.channelID != "" && m.ChannelID != g.channelID {
		return
	}

	actorID := ""
	if m.Interaction != nil && m.Interaction.User != nil {
		actorID = m.Interaction.User.ID
	}

	ctx := context.Background()
	msg := app.InboundMessage{
		AuthorID:  m.Author.ID,
		AuthorTag: m.Author.String(),
		ActorID:   actorID,
		Content:   m.Content,
	}

	if err := g.router.OnMessage(ctx, msg, newReplier(g.session, m.Message)); err != nil {
		g.log.Error(ctx, "message handling failed", "error", err, "author", msg.AuthorTag)
	}
}

func (g *Gateway) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if g.channelID != "" && r.ChannelID != g.channelID {
		return
	}

	ctx := context.Background()

	// The gateway event doesn't carry the reacted message's author, so ask.
	msg, err := s.ChannelMessage(r.ChannelID, r.MessageID, discordgo.WithContext(ctx))
	if err != nil {
		g.log.Warn(ctx, "failed to look up reacted message", "error", err)
		return
	}

	reaction := app.Reaction{
		EmojiName:    r.Emoji.Name,
		OnOwnMessage: msg.Author != nil && msg.Author.ID == s.State.User.ID,
	}

	if err := g.router.OnReaction(ctx, reaction); err != nil {
		g.log.Error(ctx, "reaction handling failed", "error", err, "emoji", r.Emoji.Name)
	}
}

// replier answers a specific message, with mentions suppressed so roster
// listings don't ping every supplier.
type replier struct {
	session *discordgo.Session
	ref     *discordgo.MessageReference
}

func newReplier(session *discordgo.Session, m *discordgo.Message) *replier {
	return &replier{session: session, ref: m.Reference()}
}

// Reply sends content as a reply to the originating message.
func (r *replier) Reply(ctx context.Context, content string) error {
	_, err := r.session.ChannelMessageSendComplex(r.ref.ChannelID, &discordgo.MessageSend{
		Content:         content,
		Reference:       r.ref,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return apperror.New(apperror.CodeGatewayError,
			apperror.WithContext("reply"), apperror.WithCause(err))
	}
	return nil
}
