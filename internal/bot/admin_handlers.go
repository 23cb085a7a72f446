package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"shrot-bot/internal/order"
	"shrot-bot/internal/report"
	"shrot-bot/internal/state"
	"shrot-bot/internal/storage"
)

func (b *Bot) handleOrdersMenu(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	total, err := b.storage.CountOrders(ctx)
	if err != nil {
		b.logger.Error("Failed to count orders", zap.Error(err))
		b.sendText(chatID, msgInternalError)
		return
	}
	counts := make(map[order.Status]int64, 3)
	for _, status := range []order.Status{order.StatusOpen, order.StatusClosed, order.StatusCanceled} {
		n, err := b.storage.CountOrdersByStatus(ctx, status)
		if err != nil {
			b.logger.Error("Failed to count orders",
				zap.String("status", string(status)),
				zap.Error(err))
			b.sendText(chatID, msgInternalError)
			return
		}
		counts[status] = n
	}

	text := fmt.Sprintf(msgOrdersSummary,
		total, counts[order.StatusClosed], counts[order.StatusCanceled], counts[order.StatusOpen])
	b.sendWithMarkup(chatID, text, ordersStatusKeyboard())
}

// handleOrdersCallback serves every orders:<action>[:<arg>] button of the admin panel.
func (b *Bot) handleOrdersCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, args []string) {
	if !b.isAdmin(cb.From.ID) || len(args) == 0 {
		b.answer(cb, "")
		return
	}

	switch args[0] {
	case "open":
		b.sendOpenOrders(ctx, callbackChatID(cb))
		b.answer(cb, "")
	case "closed", "canceled":
		offset, _ := callbackInt(args, 1)
		b.sendOrdersPage(ctx, callbackChatID(cb), order.Status(args[0]), int(offset))
		b.answer(cb, "")
	case "search":
		b.startOrderLookup(ctx, cb, state.FlowOrderSearch, msgSearchPrompt)
	case "delete":
		b.startOrderLookup(ctx, cb, state.FlowOrderDelete, msgDeletePrompt)
	case "close":
		b.closeOrder(ctx, cb, args)
	case "cancel":
		orderID, ok := callbackInt(args, 1)
		if !ok {
			b.answer(cb, "")
			return
		}
		b.editMarkup(cb, orderCancelConfirmKeyboard(orderID))
		b.answer(cb, ansConfirmAdminCancel)
	case "cancel_keep":
		orderID, ok := callbackInt(args, 1)
		if !ok {
			b.answer(cb, "")
			return
		}
		b.editMarkup(cb, orderActionKeyboard(orderID))
		b.answer(cb, ansNotCanceled)
	case "cancel_confirm":
		b.cancelOrderByAdmin(ctx, cb, args)
	case "delete_confirm":
		b.deleteOrder(ctx, cb)
	case "delete_keep":
		chatID := callbackChatID(cb)
		b.clearSession(ctx, chatID)
		b.clearMarkup(cb)
		b.sendMenu(chatID, cb.From.ID, msgDeleteKept)
		b.answer(cb, ansKept)
	default:
		b.answer(cb, "")
	}
}

func (b *Bot) sendOpenOrders(ctx context.Context, chatID int64) {
	orders, err := b.storage.ListOrders(ctx, order.StatusOpen, 0, 0)
	if err != nil {
		b.logger.Error("Failed to list open orders", zap.Error(err))
		b.sendText(chatID, msgInternalError)
		return
	}
	if len(orders) == 0 {
		b.sendText(chatID, msgNoOpenOrders)
		return
	}
	for _, o := range orders {
		b.sendHTML(chatID, b.formatOrder(o), orderActionKeyboard(o.ID))
	}
}

// sendOrdersPage lists ordersPageSize finished orders starting at offset, with a
// next-page button while more remain.
func (b *Bot) sendOrdersPage(ctx context.Context, chatID int64, status order.Status, offset int) {
	if offset < 0 {
		offset = 0
	}
	orders, err := b.storage.ListOrders(ctx, status, ordersPageSize, offset)
	if err != nil {
		b.logger.Error("Failed to list orders",
			zap.String("status", string(status)),
			zap.Int("offset", offset),
			zap.Error(err))
		b.sendText(chatID, msgInternalError)
		return
	}
	if len(orders) == 0 {
		b.sendText(chatID, emptyPageText(status, offset))
		return
	}

	entries := make([]string, 0, len(orders))
	for i, o := range orders {
		body := b.formatOrder(o)
		if status == order.StatusCanceled {
			body = b.formatOrderDetails(o)
		}
		entries = append(entries, fmt.Sprintf("%d. %s", offset+i+1, body))
	}

	total, err := b.storage.CountOrdersByStatus(ctx, status)
	if err != nil {
		b.logger.Warn("Failed to count orders for paging", zap.Error(err))
	}

	chunks := splitMessage(strings.Join(entries, "\n\n"), messageLimit)
	for i, chunk := range chunks {
		var markup interface{}
		next := offset + ordersPageSize
		if i == len(chunks)-1 && int64(next) < total {
			markup = nextPageKeyboard(string(status), next)
		}
		b.sendHTML(chatID, chunk, markup)
	}
}

func emptyPageText(status order.Status, offset int) string {
	switch {
	case status == order.StatusClosed && offset == 0:
		return msgNoClosedOrders
	case status == order.StatusClosed:
		return msgNoMoreClosedOrders
	case offset == 0:
		return msgNoCanceledOrders
	default:
		return msgNoMoreCanceled
	}
}

func (b *Bot) startOrderLookup(ctx context.Context, cb *tgbotapi.CallbackQuery, flow state.Flow, prompt string) {
	chatID := callbackChatID(cb)
	if b.beginFlow(ctx, chatID, flow, nil) {
		b.sendWithMarkup(chatID, prompt, cancelKeyboard())
	}
	b.answer(cb, "")
}

func (b *Bot) closeOrder(ctx context.Context, cb *tgbotapi.CallbackQuery, args []string) {
	orderID, ok := callbackInt(args, 1)
	if !ok {
		b.answer(cb, "")
		return
	}
	adminID := cb.From.ID

	outcome, err := b.storage.CloseOrder(ctx, orderID, adminID)
	if err != nil {
		b.logger.Error("Failed to close order",
			zap.Int64("order_id", orderID),
			zap.Error(err))
		b.answerAlert(cb, msgInternalError)
		return
	}

	switch outcome.Reject(adminID) {
	case order.RejectNone:
		b.logger.Info("Order closed",
			zap.Int64("order_id", orderID),
			zap.Int64("admin_id", adminID))
		b.clearMarkup(cb)
		b.answer(cb, ansOrderClosed)
	case order.RejectCanceledByUser:
		b.clearMarkup(cb)
		b.answerAlert(cb, ansCustomerCanceled)
	case order.RejectCanceled, order.RejectCanceledByOther:
		b.clearMarkup(cb)
		b.answerAlert(cb, ansAlreadyCanceled)
	case order.RejectClosedByOther:
		b.clearMarkup(cb)
		b.answerAlert(cb, ansClosedByOther)
	case order.RejectClosed:
		b.clearMarkup(cb)
		b.answerAlert(cb, ansAlreadyClosed)
	default:
		b.answerAlert(cb, msgOrderNotFound)
	}
}

func (b *Bot) cancelOrderByAdmin(ctx context.Context, cb *tgbotapi.CallbackQuery, args []string) {
	orderID, ok := callbackInt(args, 1)
	if !ok {
		b.answer(cb, "")
		return
	}
	adminID := cb.From.ID

	outcome, err := b.storage.CancelOrderByAdmin(ctx, orderID, adminID)
	if err != nil {
		b.logger.Error("Failed to cancel order",
			zap.Int64("order_id", orderID),
			zap.Error(err))
		b.answerAlert(cb, msgInternalError)
		return
	}

	switch outcome.Reject(adminID) {
	case order.RejectNone:
		b.logger.Info("Order canceled by admin",
			zap.Int64("order_id", orderID),
			zap.Int64("admin_id", adminID))
		b.clearMarkup(cb)
		b.answer(cb, ansOrderCanceledAdmin)
	case order.RejectClosed, order.RejectClosedByOther:
		b.clearMarkup(cb)
		b.answerAlert(cb, ansAlreadyClosed)
	case order.RejectCanceledByUser:
		b.clearMarkup(cb)
		b.answerAlert(cb, ansCustomerCanceled)
	case order.RejectCanceledByOther:
		b.clearMarkup(cb)
		b.answerAlert(cb, ansCanceledByOther)
	case order.RejectCanceled:
		b.clearMarkup(cb)
		b.answerAlert(cb, ansAlreadyCanceled)
	default:
		b.answerAlert(cb, msgOrderNotFound)
	}
}

// SEARCH & DELETE

func (b *Bot) handleSearchOrderID(ctx context.Context, msg *tgbotapi.Message, _ state.Session) {
	chatID := msg.Chat.ID
	orderID, ok := parseOrderID(msg.Text)
	if !ok {
		b.sendWithMarkup(chatID, msgOrderIDExpected, cancelKeyboard())
		return
	}

	o, ok := b.lookupOrder(ctx, chatID, orderID)
	if !ok {
		b.sendWithMarkup(chatID, msgOrderNotFound, cancelKeyboard())
		return
	}

	var markup interface{}
	if o.Status == order.StatusOpen {
		markup = orderActionKeyboard(o.ID)
	}
	b.sendHTML(chatID, b.formatOrderDetails(o), markup)
	b.sendWithMarkup(chatID, msgSearchAgain, cancelKeyboard())
}

func (b *Bot) handleDeleteOrderID(ctx context.Context, msg *tgbotapi.Message, sess state.Session) {
	chatID := msg.Chat.ID
	orderID, ok := parseOrderID(msg.Text)
	if !ok {
		b.sendWithMarkup(chatID, msgOrderIDExpected, cancelKeyboard())
		return
	}

	o, ok := b.lookupOrder(ctx, chatID, orderID)
	if !ok {
		b.sendWithMarkup(chatID, msgOrderNotFoundRetry, cancelKeyboard())
		return
	}

	sess.OrderID = o.ID
	if b.advance(ctx, chatID, sess, state.StepDeleteConfirm) {
		b.sendHTML(chatID, msgDeleteConfirm+b.formatOrderDetails(o), orderDeleteConfirmKeyboard())
	}
}

func (b *Bot) handleDeleteConfirmText(_ context.Context, msg *tgbotapi.Message, _ state.Session) {
	b.sendWithMarkup(msg.Chat.ID, msgDeleteConfirm+msgUseMenu, orderDeleteConfirmKeyboard())
}

// lookupOrder reports false both for unknown ids and storage failures; the latter are
// logged.
func (b *Bot) lookupOrder(ctx context.Context, chatID, orderID int64) (storage.Order, bool) {
	o, err := b.storage.OrderByID(ctx, orderID)
	if err != nil {
		if !errors.Is(err, storage.ErrOrderNotFound) {
			b.logger.Error("Failed to load order",
				zap.Int64("chat_id", chatID),
				zap.Int64("order_id", orderID),
				zap.Error(err))
		}
		return storage.Order{}, false
	}
	return o, true
}

func (b *Bot) deleteOrder(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := callbackChatID(cb)
	sess, ok := b.callbackSession(ctx, cb, state.StepDeleteConfirm)
	if !ok || sess.OrderID == 0 {
		b.answerAlert(cb, ansOrderMissing)
		return
	}

	deleted, err := b.storage.DeleteOrder(ctx, sess.OrderID)
	if err != nil {
		b.logger.Error("Failed to delete order",
			zap.Int64("order_id", sess.OrderID),
			zap.Error(err))
		b.answerAlert(cb, msgInternalError)
		return
	}
	b.clearSession(ctx, chatID)
	b.clearMarkup(cb)
	if !deleted {
		b.sendMenu(chatID, cb.From.ID, msgOrderNotFound)
		b.answer(cb, "")
		return
	}

	b.logger.Info("Order deleted",
		zap.Int64("order_id", sess.OrderID),
		zap.Int64("admin_id", cb.From.ID))
	b.sendMenu(chatID, cb.From.ID, fmt.Sprintf(msgOrderDeleted, sess.OrderID))
	b.answer(cb, ansOrderDeleted)
}

// STATS

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	since := b.now().AddDate(0, 0, -statsActiveDays)

	total, err := b.storage.CountUsers(ctx)
	if err != nil {
		b.logger.Error("Failed to count users", zap.Error(err))
		b.sendText(chatID, msgInternalError)
		return
	}
	active, err := b.storage.CountActiveUsers(ctx, since)
	if err != nil {
		b.logger.Error("Failed to count active users", zap.Error(err))
		b.sendText(chatID, msgInternalError)
		return
	}
	purchasers, err := b.storage.TopPurchasers(ctx, statsTopLimit)
	if err != nil {
		b.logger.Error("Failed to load top purchasers", zap.Error(err))
		b.sendText(chatID, msgInternalError)
		return
	}
	activeUsers, err := b.storage.TopActiveUsers(ctx, statsTopLimit)
	if err != nil {
		b.logger.Error("Failed to load top active users", zap.Error(err))
		b.sendText(chatID, msgInternalError)
		return
	}

	text := fmt.Sprintf("📊 Statistika:\n"+
		"👥 Umumiy foydalanuvchilar: %d\n"+
		"🔥 So'nggi %d kunda faol: %d\n\n"+
		"🏆 Ko'p marta buyurtma bergan foydalanuvchilar:\n%s\n\n"+
		"🚀 Botdan ko'p foydalanadigan foydalanuvchilar:\n%s",
		total, statsActiveDays, active, statLines(purchasers), statLines(activeUsers))

	for _, chunk := range splitMessage(text, messageLimit) {
		b.sendText(chatID, chunk)
	}
}

func statLines(rows []storage.UserStat) string {
	if len(rows) == 0 {
		return msgStatsNoData
	}
	lines := make([]string, 0, len(rows))
	for i, row := range rows {
		contact := report.ContactLabel(row.FirstName, row.LastName, row.Phone)
		lines = append(lines, fmt.Sprintf("%d. %s — %d ta", i+1, contact, row.Count))
	}
	return strings.Join(lines, "\n")
}
