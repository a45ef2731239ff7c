// Package telegram is the Message Source (§4.8, §9 "Dynamic dispatch of
// handlers"): a bot-token long-polling client that dispatches incoming
// channel posts to one registered handler per ChannelSubscription. The
// original service drove a user-session Telethon client with an
// interactive login prompt; SPEC_FULL.md's first Open Question resolves
// that as an out-of-process, pre-provisioned bot token instead — there is
// no stdin prompt anywhere in this package.
package telegram

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// IncomingMessage is the channel-post payload handed to a MessageHandler.
type IncomingMessage struct {
	ChannelID int64
	MessageID int
	Text      string
	Timestamp int64
}

// MessageHandler processes one IncomingMessage for the ChannelSubscription
// it was registered against.
type MessageHandler func(ctx context.Context, msg IncomingMessage)

// Source is the bot-token long-polling Message Source.
type Source struct {
	bot *tgbotapi.BotAPI
	log zerolog.Logger

	mu       sync.RWMutex
	handlers map[int64]MessageHandler

	stop chan struct{}
}

// New authenticates against the Telegram Bot API using a pre-provisioned
// bot token. Connect never prompts for credentials interactively.
func New(token string, log zerolog.Logger) (*Source, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot auth: %w", err)
	}
	return &Source{
		bot:      bot,
		log:      log.With().Str("component", "telegram_source").Logger(),
		handlers: make(map[int64]MessageHandler),
		stop:     make(chan struct{}),
	}, nil
}

// RegisterHandler binds channelID to handler, per §4.8 "register one
// handler per subscription". Re-registering replaces the prior handler.
func (s *Source) RegisterHandler(channelID int64, handler MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[channelID] = handler
}

// UnregisterHandler removes the handler bound to channelID.
func (s *Source) UnregisterHandler(channelID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, channelID)
}

// Run blocks, dispatching updates to registered handlers, until ctx is
// canceled or Disconnect is called.
func (s *Source) Run(ctx context.Context) {
	update := tgbotapi.NewUpdate(0)
	update.Timeout = 60
	updates := s.bot.GetUpdatesChan(update)

	s.log.Info().Str("bot", s.bot.Self.UserName).Msg("telegram message source listening")

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			s.dispatch(ctx, upd)
		}
	}
}

// Disconnect stops Run's loop.
func (s *Source) Disconnect(ctx context.Context) error {
	close(s.stop)
	s.bot.StopReceivingUpdates()
	return nil
}

func (s *Source) dispatch(ctx context.Context, upd tgbotapi.Update) {
	if upd.ChannelPost == nil && upd.Message == nil {
		return
	}

	var channelID int64
	var messageID int
	var text string
	var timestamp int64

	switch {
	case upd.ChannelPost != nil:
		channelID = upd.ChannelPost.Chat.ID
		messageID = upd.ChannelPost.MessageID
		text = upd.ChannelPost.Text
		timestamp = int64(upd.ChannelPost.Date)
	default:
		channelID = upd.Message.Chat.ID
		messageID = upd.Message.MessageID
		text = upd.Message.Text
		timestamp = int64(upd.Message.Date)
	}

	s.mu.RLock()
	handler, ok := s.handlers[channelID]
	s.mu.RUnlock()
	if !ok {
		s.log.Debug().Int64("channel_id", channelID).Msg("no subscription registered, dropping")
		return
	}

	handler(ctx, IncomingMessage{ChannelID: channelID, MessageID: messageID, Text: text, Timestamp: timestamp})
}

// SendMessage implements notify.MessageSender, forwarding a reformatted
// signal to one Subscriber's external chat address.
func (s *Source) SendMessage(address, text string) error {
	chatID, err := parseChatID(address)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err = s.bot.Send(msg)
	return err
}

func parseChatID(address string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(address, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid telegram chat address %q: %w", address, err)
	}
	return id, nil
}
