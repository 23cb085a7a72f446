package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"shrot-bot/internal/state"
	"shrot-bot/internal/storage"
)

// Callback payload prefixes. Arguments follow after a colon.
const (
	cbOrder             = "order"
	cbEdit              = "edit"
	cbField             = "field"
	cbProductDelete     = "product_delete"
	cbAddProduct        = "add_product"
	cbOrders            = "orders"
	cbUserOrders        = "user_orders"
	cbOrderConfirm      = "order_confirm"
	cbOrderCancel       = "order_cancel"
	cbAdminOrderProduct = "admin_order_product"
	cbAdminOrderConfirm = "admin_order_confirm"
	cbAdminOrderCancel  = "admin_order_cancel"
	cbReportPeriod      = "report_period"
)

type stepHandler func(ctx context.Context, msg *tgbotapi.Message, sess state.Session)

type callbackHandler func(ctx context.Context, cb *tgbotapi.CallbackQuery, args []string)

type menuEntry struct {
	allowed func(userID int64) bool
	handle  func(ctx context.Context, msg *tgbotapi.Message)
}

func (b *Bot) registerHandlers() {
	b.handlers = map[state.Step]stepHandler{
		state.StepOrderQuantity: b.handleOrderQuantity,
		state.StepOrderAddress:  b.handleOrderAddress,
		state.StepOrderConfirm:  b.handleOrderConfirmText,

		state.StepAdminOrderPhone:    b.handleAdminOrderPhone,
		state.StepAdminOrderName:     b.handleAdminOrderName,
		state.StepAdminOrderAddress:  b.handleAdminOrderAddress,
		state.StepAdminOrderProduct:  b.handleAdminOrderProductText,
		state.StepAdminOrderQuantity: b.handleAdminOrderQuantity,
		state.StepAdminOrderConfirm:  b.handleAdminOrderConfirmText,

		state.StepProductName:        b.handleProductName,
		state.StepProductPrice:       b.handleProductPrice,
		state.StepProductDescription: b.handleProductDescription,
		state.StepProductPhoto:       b.handleProductPhoto,

		state.StepEditField:  b.handleEditFieldText,
		state.StepEditValue:  b.handleEditValue,
		state.StepEditPhotos: b.handleEditPhotos,

		state.StepBroadcastContent: b.handleBroadcastContent,
		state.StepBroadcastConfirm: b.handleBroadcastConfirm,

		state.StepSearchOrderID: b.handleSearchOrderID,

		state.StepDeleteOrderID: b.handleDeleteOrderID,
		state.StepDeleteConfirm: b.handleDeleteConfirmText,

		state.StepSupportMessage: b.handleSupportMessage,

		state.StepBlockAction: b.handleBlockAction,
		state.StepBlockPhone:  b.handleBlockPhone,

		state.StepReportStart: b.handleReportStart,
		state.StepReportEnd:   b.handleReportEnd,
	}

	anyone := func(int64) bool { return true }
	b.menu = map[string]menuEntry{
		BtnProducts:    {anyone, b.registered(b.handleProducts)},
		BtnMyOrders:    {anyone, b.registered(b.handleMyOrders)},
		BtnInfo:        {anyone, b.registered(b.handleInfo)},
		BtnContact:     {anyone, b.registered(b.handleContactInfo)},
		BtnNews:        {anyone, b.registered(b.handleNews)},
		BtnSupport:     {anyone, b.registered(b.handleSupportStart)},
		BtnStats:       {b.isAdmin, b.handleStats},
		BtnOrdersList:  {b.isAdmin, b.handleOrdersMenu},
		BtnCreateOrder: {b.isAdmin, b.handleAdminOrderStart},
		BtnAddProduct:  {b.isAdmin, b.handleAddProductStart},
		BtnEditProduct: {b.isAdmin, b.handleEditProductList},
		BtnBroadcast:   {b.isAdmin, b.handleBroadcastStart},
		BtnBlockUsers:  {b.isAdmin, b.handleBlockStart},
		BtnReports:     {b.cfg.CanViewReports, b.handleReportsStart},
	}

	b.callbacks = map[string]callbackHandler{
		cbOrder:             b.handleOrderStart,
		cbEdit:              b.handleEditStart,
		cbField:             b.handleEditField,
		cbProductDelete:     b.handleProductDelete,
		cbAddProduct:        b.handleAddProductCallback,
		cbOrders:            b.handleOrdersCallback,
		cbUserOrders:        b.handleUserOrdersCallback,
		cbOrderConfirm:      b.handleOrderConfirm,
		cbOrderCancel:       b.handleOrderCancel,
		cbAdminOrderProduct: b.handleAdminOrderProduct,
		cbAdminOrderConfirm: b.handleAdminOrderConfirm,
		cbAdminOrderCancel:  b.handleAdminOrderCancel,
		cbReportPeriod:      b.handleReportPeriod,
	}
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if !msg.Chat.IsPrivate() {
		if b.cfg.IsSupportGroup(chatID) && msg.ReplyToMessage != nil && b.isAdmin(userID) {
			b.handleSupportReply(ctx, msg)
		}
		return
	}

	b.logger.Debug("Processing message",
		zap.Int64("chat_id", chatID),
		zap.String("text", msg.Text))

	if b.rejectBlocked(ctx, chatID, userID) {
		b.sendText(chatID, msgBlocked)
		return
	}
	if err := b.storage.TouchUser(ctx, chatID); err != nil {
		b.logger.Warn("Failed to update user activity",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}

	if msg.IsCommand() && msg.Command() == "start" {
		b.handleStart(ctx, msg)
		return
	}
	if msg.Contact != nil {
		b.handleContact(ctx, msg)
		return
	}

	sess, err := b.sessions.Get(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to get user state",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendText(chatID, msgInternalError)
		return
	}

	if msg.Text == BtnCancel && !sess.Idle() {
		b.cancelFlow(ctx, chatID, userID, sess)
		return
	}

	if entry, ok := b.menu[msg.Text]; ok {
		if !entry.allowed(userID) {
			return
		}
		if !sess.Idle() {
			b.resetFlow(ctx, chatID)
		}
		entry.handle(ctx, msg)
		return
	}

	if handler, ok := b.handlers[sess.Step]; ok {
		handler(ctx, msg, sess)
		return
	}

	b.handleFallback(ctx, msg)
}

func (b *Bot) processCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil {
		return
	}

	b.logger.Debug("Processing callback",
		zap.Int64("user_id", cb.From.ID),
		zap.String("data", cb.Data))

	if b.rejectBlocked(ctx, callbackChatID(cb), cb.From.ID) {
		b.answerAlert(cb, msgBlocked)
		return
	}

	parts := strings.Split(cb.Data, ":")
	handler, ok := b.callbacks[parts[0]]
	if !ok {
		b.logger.Warn("Unknown callback", zap.String("data", cb.Data))
		b.answer(cb, "")
		return
	}
	handler(ctx, cb, parts[1:])
}

// rejectBlocked reports whether a non-admin chat is blocked. Lookup errors let the
// update through.
func (b *Bot) rejectBlocked(ctx context.Context, chatID, userID int64) bool {
	if b.isAdmin(userID) {
		return false
	}
	blocked, err := b.storage.IsBlocked(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to check blocked flag",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return false
	}
	return blocked
}

// registered wraps a menu action so that it only runs for users with a phone number.
func (b *Bot) registered(next func(context.Context, *tgbotapi.Message)) func(context.Context, *tgbotapi.Message) {
	return func(ctx context.Context, msg *tgbotapi.Message) {
		if b.ensureRegistered(ctx, msg.Chat.ID) {
			next(ctx, msg)
		}
	}
}

func (b *Bot) ensureRegistered(ctx context.Context, chatID int64) bool {
	user, err := b.storage.UserByChatID(ctx, chatID)
	if err != nil && !errors.Is(err, storage.ErrUserNotFound) {
		b.logger.Error("Failed to load user",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendText(chatID, msgInternalError)
		return false
	}
	if err != nil || !user.Registered() {
		msg := tgbotapi.NewMessage(chatID, msgNeedPhone)
		msg.ReplyMarkup = contactKeyboard()
		b.sendMessage(msg)
		return false
	}
	return true
}

// cancelFlow handles the global cancel button.
func (b *Bot) cancelFlow(ctx context.Context, chatID, userID int64, sess state.Session) {
	b.resetFlow(ctx, chatID)

	text := msgActionCanceled
	switch sess.Flow() {
	case state.FlowOrder:
		text = msgOrderCanceled
	case state.FlowSupport:
		text = msgSupportCanceled
	case state.FlowOrderSearch:
		text = msgSearchCanceled
	case state.FlowOrderDelete:
		text = msgDeleteCanceled
	case state.FlowBroadcast:
		text = msgBroadcastCanceled
	}
	b.sendMenu(chatID, userID, text)
}

// resetFlow drops the session and anything buffered for it.
func (b *Bot) resetFlow(ctx context.Context, chatID int64) {
	b.media.Drop(chatID)
	b.clearSession(ctx, chatID)
}

func (b *Bot) saveSession(ctx context.Context, chatID int64, sess state.Session) bool {
	if err := b.sessions.Save(ctx, chatID, sess); err != nil {
		b.logger.Error("Failed to save user state",
			zap.Int64("chat_id", chatID),
			zap.String("step", string(sess.Step)),
			zap.Error(err))
		b.sendText(chatID, msgInternalError)
		return false
	}
	return true
}

func (b *Bot) clearSession(ctx context.Context, chatID int64) {
	if err := b.sessions.Clear(ctx, chatID); err != nil {
		b.logger.Error("Failed to clear user state",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}

// advance moves the session to next and stores it.
func (b *Bot) advance(ctx context.Context, chatID int64, sess state.Session, next state.Step) bool {
	if err := sess.Advance(next); err != nil {
		b.logger.Error("Illegal state transition",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.clearSession(ctx, chatID)
		b.sendText(chatID, msgInternalError)
		return false
	}
	return b.saveSession(ctx, chatID, sess)
}

// beginFlow replaces whatever the chat was doing with the entry step of flow.
func (b *Bot) beginFlow(ctx context.Context, chatID int64, flow state.Flow, prepare func(*state.Session)) bool {
	b.media.Drop(chatID)
	sess, err := state.Begin(flow)
	if err != nil {
		b.logger.Error("Failed to begin flow",
			zap.Int64("chat_id", chatID),
			zap.String("flow", string(flow)),
			zap.Error(err))
		b.sendText(chatID, msgInternalError)
		return false
	}
	if prepare != nil {
		prepare(&sess)
	}
	return b.saveSession(ctx, chatID, sess)
}

// callbackInt parses the i-th callback argument.
func callbackInt(args []string, i int) (int64, bool) {
	if i >= len(args) {
		return 0, false
	}
	v, err := strconv.ParseInt(args[i], 10, 64)
	return v, err == nil
}

// BOT MESSAGE SENDING

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) (tgbotapi.Message, bool) {
	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Error("Failed to send message",
			zap.Int64("chat_id", msg.ChatID),
			zap.Error(err))
		return tgbotapi.Message{}, false
	}
	return sent, true
}

func (b *Bot) sendText(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendHTML(chatID int64, text string, markup interface{}) (tgbotapi.Message, bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	return b.sendMessage(msg)
}

func (b *Bot) sendWithMarkup(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	b.sendMessage(msg)
}

// sendMenu sends text together with the role-specific main menu.
func (b *Bot) sendMenu(chatID, userID int64, text string) {
	b.sendWithMarkup(chatID, text, b.mainMenuKeyboard(userID))
}

func (b *Bot) request(c tgbotapi.Chattable, what string) {
	if _, err := b.api.Request(c); err != nil {
		b.logger.Warn("Telegram request failed",
			zap.String("request", what),
			zap.Error(err))
	}
}

func (b *Bot) answer(cb *tgbotapi.CallbackQuery, text string) {
	b.request(tgbotapi.NewCallback(cb.ID, text), "answerCallbackQuery")
}

func (b *Bot) answerAlert(cb *tgbotapi.CallbackQuery, text string) {
	b.request(tgbotapi.NewCallbackWithAlert(cb.ID, text), "answerCallbackQuery")
}

// clearMarkup removes the inline keyboard of the message the callback came from.
func (b *Bot) clearMarkup(cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	edit := tgbotapi.EditMessageReplyMarkupConfig{
		BaseEdit: tgbotapi.BaseEdit{
			ChatID:    cb.Message.Chat.ID,
			MessageID: cb.Message.MessageID,
		},
	}
	b.request(edit, "editMessageReplyMarkup")
}

func (b *Bot) editMarkup(cb *tgbotapi.CallbackQuery, markup tgbotapi.InlineKeyboardMarkup) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	b.request(tgbotapi.NewEditMessageReplyMarkup(cb.Message.Chat.ID, cb.Message.MessageID, markup),
		"editMessageReplyMarkup")
}

func (b *Bot) deleteMessage(chatID int64, messageID int) {
	b.request(tgbotapi.NewDeleteMessage(chatID, messageID), "deleteMessage")
}
