package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"shrot-bot/internal/state"
	"shrot-bot/internal/storage"
)

// captionLimit is Telegram's media caption cap.
const captionLimit = 1024

// supportIDPattern finds the user id line of a forwarded request when the relay
// record has expired.
var supportIDPattern = regexp.MustCompile(`\bID:\s*(\d+)\b`)

func (b *Bot) handleSupportStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if b.beginFlow(ctx, chatID, state.FlowSupport, nil) {
		b.sendWithMarkup(chatID, msgSupportPrompt, cancelKeyboard())
	}
}

// handleSupportMessage forwards one text, photo, video or document to every support
// group. Albums are refused.
func (b *Bot) handleSupportMessage(ctx context.Context, msg *tgbotapi.Message, _ state.Session) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if msg.MediaGroupID != "" {
		first, err := b.rejects.First(ctx, fmt.Sprintf("support:%d:%s", chatID, msg.MediaGroupID))
		if err != nil {
			b.logger.Warn("Failed to mark rejected media group", zap.Error(err))
		}
		if first || err != nil {
			b.resetFlow(ctx, chatID)
			b.sendMenu(chatID, userID, msgSingleMediaOnly)
		}
		return
	}

	allowed, err := b.supportLimit.Allow(ctx, chatID)
	if err != nil {
		b.logger.Warn("Failed to check support rate limit",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		allowed = true
	}
	if !allowed {
		b.sendWithMarkup(chatID, msgSupportLimited, cancelKeyboard())
		return
	}

	b.clearSession(ctx, chatID)
	if len(b.cfg.SupportGroups) == 0 {
		b.sendMenu(chatID, userID, msgNoSupportGroup)
		return
	}

	text := b.supportRequestText(ctx, msg)
	delivered := 0
	for _, groupID := range b.cfg.SupportGroups {
		sent, err := b.api.Send(supportPayload(groupID, msg, text))
		if err != nil {
			b.logger.Error("Failed to forward support request",
				zap.Int64("group_id", groupID),
				zap.Int64("chat_id", chatID),
				zap.Error(err))
			continue
		}
		delivered++
		if err := b.relay.Remember(ctx, groupID, sent.MessageID, chatID); err != nil {
			b.logger.Warn("Failed to remember support relay",
				zap.Int64("group_id", groupID),
				zap.Error(err))
		}
	}

	if delivered == 0 {
		b.sendMenu(chatID, userID, msgSupportFailed)
		return
	}
	b.logger.Info("Support request forwarded",
		zap.Int64("chat_id", chatID),
		zap.Int("groups", delivered))
	b.sendMenu(chatID, userID, msgSupportSent)
}

func (b *Bot) supportRequestText(ctx context.Context, msg *tgbotapi.Message) string {
	chatID := msg.Chat.ID
	name := personName(msg.From.FirstName, msg.From.LastName, msgUnknownUser)
	phone := msgSupportNoPhone

	user, err := b.storage.UserByChatID(ctx, chatID)
	switch {
	case err == nil:
		name = personName(user.FirstName, user.LastName, name)
		if user.Phone != "" {
			phone = user.Phone
		}
	case !errors.Is(err, storage.ErrUserNotFound):
		b.logger.Warn("Failed to load user for support request",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}

	body := msg.Text
	if body == "" {
		body = msg.Caption
	}
	if strings.TrimSpace(body) == "" {
		body = "—"
	}

	return fmt.Sprintf("🆘 Yangi qo'llab-quvvatlash so'rovi\n"+
		"👤 Foydalanuvchi: %s\n"+
		"📞 Telefon: %s\n"+
		"🆔 ID: %d\n\n"+
		"Text: %s\n\n"+
		"↩️ Javob berish uchun shu xabarga reply qiling.",
		name, phone, chatID, body)
}

// supportPayload carries the user's media when there is one, with text as caption.
func supportPayload(groupID int64, msg *tgbotapi.Message, text string) tgbotapi.Chattable {
	caption := truncateRunes(text, captionLimit)
	switch {
	case len(msg.Photo) > 0:
		photo := tgbotapi.NewPhoto(groupID, tgbotapi.FileID(largestPhoto(msg)))
		photo.Caption = caption
		return photo
	case msg.Video != nil:
		video := tgbotapi.NewVideo(groupID, tgbotapi.FileID(msg.Video.FileID))
		video.Caption = caption
		return video
	case msg.Document != nil:
		doc := tgbotapi.NewDocument(groupID, tgbotapi.FileID(msg.Document.FileID))
		doc.Caption = caption
		return doc
	default:
		return tgbotapi.NewMessage(groupID, truncateRunes(text, messageLimit))
	}
}

// handleSupportReply relays an admin's reply in a support group back to the user who
// wrote the request.
func (b *Bot) handleSupportReply(ctx context.Context, msg *tgbotapi.Message) {
	groupID := msg.Chat.ID

	if msg.MediaGroupID != "" {
		first, err := b.rejects.First(ctx, fmt.Sprintf("reply:%d:%s", groupID, msg.MediaGroupID))
		if err != nil {
			b.logger.Warn("Failed to mark rejected media group", zap.Error(err))
		}
		if first {
			reply := tgbotapi.NewMessage(groupID, msgSingleMediaOnly)
			reply.ReplyToMessageID = msg.MessageID
			b.sendMessage(reply)
		}
		return
	}

	userChatID, ok := b.supportTarget(ctx, groupID, msg.ReplyToMessage)
	if !ok {
		b.logger.Debug("Reply is not addressed to a support request",
			zap.Int64("group_id", groupID),
			zap.Int("message_id", msg.ReplyToMessage.MessageID))
		return
	}

	if _, ok := b.sendMessage(tgbotapi.NewMessage(userChatID, msgSupportReply)); !ok {
		return
	}
	if _, err := b.api.CopyMessage(tgbotapi.NewCopyMessage(userChatID, groupID, msg.MessageID)); err != nil {
		b.logger.Error("Failed to copy support reply",
			zap.Int64("group_id", groupID),
			zap.Int64("chat_id", userChatID),
			zap.Error(err))
		return
	}
	b.logger.Info("Support reply delivered",
		zap.Int64("group_id", groupID),
		zap.Int64("chat_id", userChatID),
		zap.Int64("admin_id", msg.From.ID))
}

// supportTarget resolves the user behind a forwarded request: the relay record first,
// then the ID line of the request text.
func (b *Bot) supportTarget(ctx context.Context, groupID int64, original *tgbotapi.Message) (int64, bool) {
	userChatID, found, err := b.relay.Lookup(ctx, groupID, original.MessageID)
	if err != nil {
		b.logger.Warn("Failed to look up support relay",
			zap.Int64("group_id", groupID),
			zap.Error(err))
	}
	if found {
		return userChatID, true
	}

	text := original.Text
	if text == "" {
		text = original.Caption
	}
	return parseSupportID(text)
}

func parseSupportID(text string) (int64, bool) {
	match := supportIDPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
