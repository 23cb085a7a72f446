package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	user, err := b.storage.UpsertUser(ctx, chatID, msg.From.FirstName, msg.From.LastName)
	if err != nil {
		b.logger.Error("Failed to save user",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendText(chatID, msgInternalError)
		return
	}

	if user.Registered() {
		b.sendMenu(chatID, msg.From.ID, msgWelcomeBack)
		return
	}
	b.sendWithMarkup(chatID, msgWelcomeNew, contactKeyboard())
}

// handleContact stores the phone number of a shared contact. Only the sender's own
// contact is accepted.
func (b *Bot) handleContact(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if msg.Contact.UserID != msg.From.ID {
		b.sendText(chatID, msgOwnContactOnly)
		return
	}

	if _, err := b.storage.UpsertUser(ctx, chatID, msg.From.FirstName, msg.From.LastName); err != nil {
		b.logger.Error("Failed to save user",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendText(chatID, msgInternalError)
		return
	}
	if err := b.storage.SetUserPhone(ctx, chatID, msg.Contact.PhoneNumber); err != nil {
		b.logger.Error("Failed to save phone number",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendText(chatID, msgInternalError)
		return
	}

	b.logger.Info("User registered", zap.Int64("chat_id", chatID))
	b.sendMenu(chatID, msg.From.ID, msgRegistered)
}

func (b *Bot) handleInfo(_ context.Context, msg *tgbotapi.Message) {
	b.sendText(msg.Chat.ID, infoText)
}

func (b *Bot) handleContactInfo(_ context.Context, msg *tgbotapi.Message) {
	b.sendText(msg.Chat.ID, contactText)
}

func (b *Bot) handleNews(_ context.Context, msg *tgbotapi.Message) {
	b.sendWithMarkup(msg.Chat.ID, newsText, newsKeyboard())
}

// handleFallback answers anything no flow claimed. Album parts are ignored so a
// refused album does not produce one reply per item.
func (b *Bot) handleFallback(ctx context.Context, msg *tgbotapi.Message) {
	if msg.MediaGroupID != "" {
		return
	}
	if !b.ensureRegistered(ctx, msg.Chat.ID) {
		return
	}
	b.sendText(msg.Chat.ID, msgUseMenu)
}
