package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"shrot-bot/internal/report"
	"shrot-bot/internal/state"
	"shrot-bot/internal/storage"
)

func (b *Bot) handleBlockStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if b.beginFlow(ctx, chatID, state.FlowBlock, nil) {
		b.sendWithMarkup(chatID, msgBlockMenu, blockActionKeyboard())
	}
}

func (b *Bot) handleBlockAction(ctx context.Context, msg *tgbotapi.Message, sess state.Session) {
	chatID := msg.Chat.ID

	var block bool
	switch strings.TrimSpace(msg.Text) {
	case BtnBlock:
		block = true
	case BtnUnblock:
		block = false
	default:
		b.sendWithMarkup(chatID, msgBlockChooseBad, blockActionKeyboard())
		return
	}

	sess.Block = &state.BlockDraft{Block: block}
	if b.advance(ctx, chatID, sess, state.StepBlockPhone) {
		b.sendWithMarkup(chatID, msgBlockPhone, cancelKeyboard())
	}
}

// handleBlockPhone applies the chosen action to the user with the given phone. Admins
// can never be blocked.
func (b *Bot) handleBlockPhone(ctx context.Context, msg *tgbotapi.Message, sess state.Session) {
	chatID := msg.Chat.ID
	adminID := msg.From.ID
	if sess.Block == nil {
		b.abortFlow(ctx, chatID, adminID)
		return
	}

	user, err := b.storage.FindUserByPhone(ctx, msg.Text)
	if err != nil {
		if !errors.Is(err, storage.ErrUserNotFound) {
			b.logger.Error("Failed to look up user by phone", zap.Error(err))
			b.sendText(chatID, msgInternalError)
			return
		}
		b.sendWithMarkup(chatID, msgBlockNotFound, cancelKeyboard())
		return
	}

	if target, ok := user.Reachable(); ok && b.isAdmin(target) {
		b.clearSession(ctx, chatID)
		b.sendMenu(chatID, adminID, msgBlockAdmin)
		return
	}

	label := report.ContactLabel(user.FirstName, user.LastName, user.Phone)
	block := sess.Block.Block

	var text string
	switch {
	case block && user.IsBlocked:
		text = fmt.Sprintf(msgAlreadyBlocked, label)
	case !block && !user.IsBlocked:
		text = fmt.Sprintf(msgNotBlocked, label)
	default:
		if err := b.storage.SetUserBlocked(ctx, user.ID, block); err != nil {
			b.logger.Error("Failed to update blocked flag",
				zap.Int64("user_id", user.ID),
				zap.Error(err))
			b.clearSession(ctx, chatID)
			b.sendMenu(chatID, adminID, msgInternalError)
			return
		}
		b.logger.Info("User block flag changed",
			zap.Int64("user_id", user.ID),
			zap.Bool("blocked", block),
			zap.Int64("admin_id", adminID))
		text = fmt.Sprintf(msgBlockedDone, label)
		if !block {
			text = fmt.Sprintf(msgUnblockedDone, label)
		}
	}

	b.clearSession(ctx, chatID)
	b.sendMenu(chatID, adminID, text)
}
