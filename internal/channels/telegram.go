package channels

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/npcgate/npcgate/internal/bus"
	"github.com/npcgate/npcgate/internal/config"
)

// TelegramChannel lets users chat with one configured agent over a Telegram
// bot via long polling. Each Telegram user gets their own session with the
// bot's agent.
type TelegramChannel struct {
	Base
	cfg *config.TelegramConfig
	bot *tgbotapi.BotAPI
}

func NewTelegramChannel(cfg *config.TelegramConfig, b bus.Bus) *TelegramChannel {
	return &TelegramChannel{
		Base: NewBase("telegram", b, cfg.AllowFrom),
		cfg:  cfg,
	}
}

func (t *TelegramChannel) Name() string { return "telegram" }

func (t *TelegramChannel) Start(ctx context.Context) error {
	if t.cfg.Token == "" {
		return fmt.Errorf("telegram: bot token not configured")
	}
	bot, err := tgbotapi.NewBotAPI(t.cfg.Token)
	if err != nil {
		return fmt.Errorf("telegram: create bot: %w", err)
	}
	t.bot = bot
	slog.Info("telegram: connected", "username", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(ctx, update)
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			return ctx.Err()
		}
	}
}

func (t *TelegramChannel) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}

	actorID := fmt.Sprintf("%d", msg.From.ID)
	if msg.From.UserName != "" {
		actorID = actorID + "|" + msg.From.UserName
	}
	chatID := fmt.Sprintf("%d", msg.Chat.ID)

	if msg.Text == "/end" || msg.Text == "/start" {
		t.PublishSessionEnd(actorID, t.agentID())
		if msg.Text == "/end" {
			reply := tgbotapi.NewMessage(msg.Chat.ID, "Conversation cleared.")
			_, _ = t.bot.Send(reply)
		}
		return
	}

	// Typing indicator while the turn is in flight; Send cancels it, the
	// timeout is a backstop in case the reply never comes.
	typingCtx, cancelTyping := context.WithTimeout(ctx, 30*time.Second)
	go t.sendTypingLoop(typingCtx, msg.Chat.ID)

	t.PublishTurn(actorID, t.agentID(), chatID, msg.Text, "", map[string]any{
		"message_id":   msg.MessageID,
		"cancelTyping": cancelTyping,
	})
}

func (t *TelegramChannel) agentID() string {
	if t.cfg.AgentID != "" {
		return t.cfg.AgentID
	}
	return "npc"
}

func (t *TelegramChannel) sendTypingLoop(ctx context.Context, chatID int64) {
	for {
		action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
		_, _ = t.bot.Send(action)
		select {
		case <-time.After(4 * time.Second):
		case <-ctx.Done():
			return
		}
	}
}

func (t *TelegramChannel) Send(_ context.Context, reply bus.OutboundReply) error {
	if t.bot == nil {
		return fmt.Errorf("telegram: bot not running")
	}
	if cancel, ok := reply.Metadata["cancelTyping"].(context.CancelFunc); ok {
		cancel()
	}
	chatID, err := parseChatID(reply.ChatID)
	if err != nil {
		return err
	}

	for _, chunk := range splitMessage(reply.Content, 4000) {
		m := tgbotapi.NewMessage(chatID, chunk)
		if _, err := t.bot.Send(m); err != nil {
			return fmt.Errorf("telegram: send: %w", err)
		}
	}
	return nil
}

func parseChatID(s string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(s, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid chat_id: %s", s)
	}
	return id, nil
}
