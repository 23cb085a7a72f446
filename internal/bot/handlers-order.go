package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"shrot-bot/internal/order"
	"shrot-bot/internal/pricing"
	"shrot-bot/internal/state"
	"shrot-bot/internal/storage"
)

func (b *Bot) handleOrderStart(ctx context.Context, cb *tgbotapi.CallbackQuery, args []string) {
	productID, ok := callbackInt(args, 0)
	if !ok {
		b.answer(cb, "")
		return
	}
	chatID := callbackChatID(cb)
	if !b.ensureRegistered(ctx, chatID) {
		b.answer(cb, "")
		return
	}
	if _, err := b.storage.ProductByID(ctx, productID); err != nil {
		if !errors.Is(err, storage.ErrProductNotFound) {
			b.logger.Error("Failed to load product",
				zap.Int64("product_id", productID),
				zap.Error(err))
		}
		b.answerAlert(cb, ansProductNotFound)
		return
	}

	ok = b.beginFlow(ctx, chatID, state.FlowOrder, func(s *state.Session) {
		s.Order = &state.OrderDraft{ProductID: productID}
	})
	if ok {
		b.sendWithMarkup(chatID, fmt.Sprintf(msgOrderQuantity, pricing.FormatTons(b.cfg.MinOrderTons)), cancelKeyboard())
	}
	b.answer(cb, "")
}

func (b *Bot) handleOrderQuantity(ctx context.Context, msg *tgbotapi.Message, sess state.Session) {
	chatID := msg.Chat.ID
	if sess.Order == nil {
		b.abortFlow(ctx, chatID, msg.From.ID)
		return
	}

	quantity, err := pricing.ParseOrderQuantity(msg.Text, b.cfg.MinOrderTons)
	switch {
	case errors.Is(err, pricing.ErrBelowMinimum):
		b.sendWithMarkup(chatID, fmt.Sprintf(msgOrderBelowMin, pricing.FormatTons(b.cfg.MinOrderTons)), cancelKeyboard())
		return
	case err != nil:
		b.sendWithMarkup(chatID, msgOrderQuantityBad, cancelKeyboard())
		return
	}

	sess.Order.Quantity = quantity
	if b.advance(ctx, chatID, sess, state.StepOrderAddress) {
		b.sendWithMarkup(chatID, msgOrderAddress, orderAddressKeyboard())
	}
}

// handleOrderAddress accepts typed text or a shared location. Locations are reverse
// geocoded; when that fails the placeholder text is stored and the coordinates are
// kept for the map link.
func (b *Bot) handleOrderAddress(ctx context.Context, msg *tgbotapi.Message, sess state.Session) {
	chatID := msg.Chat.ID
	if sess.Order == nil {
		b.abortFlow(ctx, chatID, msg.From.ID)
		return
	}

	draft := sess.Order
	if loc := msg.Location; loc != nil {
		lat, lon := loc.Latitude, loc.Longitude
		address := b.geocoder.Reverse(ctx, lat, lon)
		if address == "" {
			address = msgLocationSent
		}
		draft.Address = address
		draft.Latitude = &lat
		draft.Longitude = &lon
	} else {
		address := strings.TrimSpace(msg.Text)
		if address == "" {
			b.sendWithMarkup(chatID, msgOrderAddress, orderAddressKeyboard())
			return
		}
		draft.Address = address
		draft.Latitude = nil
		draft.Longitude = nil
	}

	product, err := b.storage.ProductByID(ctx, draft.ProductID)
	if err != nil {
		if !errors.Is(err, storage.ErrProductNotFound) {
			b.logger.Error("Failed to load product",
				zap.Int64("product_id", draft.ProductID),
				zap.Error(err))
		}
		b.clearSession(ctx, chatID)
		b.sendMenu(chatID, msg.From.ID, msgProductMissing)
		return
	}

	if !b.advance(ctx, chatID, sess, state.StepOrderConfirm) {
		return
	}
	b.sendHTML(chatID, orderConfirmation(product, draft), orderConfirmKeyboard())
}

func orderConfirmation(p storage.Product, draft *state.OrderDraft) string {
	lines := []string{
		orderConfirmTitle,
		"📦 Mahsulot: " + html.EscapeString(p.Name),
		"⚖️ Miqdor: " + html.EscapeString(draft.Quantity.String()),
		fmt.Sprintf("💰 Narx (1 kg): %s сум", html.EscapeString(pricing.FormatPrice(p.PricePerKg))),
		"💵 Jami: " + html.EscapeString(formatDealPrice(draft.Quantity, p.PricePerKg)),
		"📍 Manzil: " + html.EscapeString(draft.Address),
	}
	if line, ok := locationLine(draft.Latitude, draft.Longitude); ok {
		lines = append(lines, line)
	}
	lines = append(lines, orderConfirmAsk)
	return strings.Join(lines, "\n")
}

func (b *Bot) handleOrderConfirmText(_ context.Context, msg *tgbotapi.Message, _ state.Session) {
	b.sendWithMarkup(msg.Chat.ID, orderConfirmAsk, orderConfirmKeyboard())
}

func (b *Bot) handleOrderConfirm(ctx context.Context, cb *tgbotapi.CallbackQuery, _ []string) {
	chatID := callbackChatID(cb)
	sess, ok := b.callbackSession(ctx, cb, state.StepOrderConfirm)
	if !ok || sess.Order == nil {
		b.answer(cb, "")
		return
	}
	b.clearMarkup(cb)
	b.clearSession(ctx, chatID)

	draft := sess.Order
	user, err := b.storage.UserByChatID(ctx, chatID)
	if err != nil {
		if !errors.Is(err, storage.ErrUserNotFound) {
			b.logger.Error("Failed to load user",
				zap.Int64("chat_id", chatID),
				zap.Error(err))
		}
		b.sendMenu(chatID, cb.From.ID, msgUserNotFound)
		b.answer(cb, "")
		return
	}
	if draft.Address == "" {
		b.sendMenu(chatID, cb.From.ID, msgAddressMissing)
		b.answer(cb, "")
		return
	}

	orderID, err := b.storage.CreateOrder(ctx, storage.NewOrder{
		UserID:    user.ID,
		ProductID: draft.ProductID,
		Quantity:  draft.Quantity,
		Address:   draft.Address,
		Latitude:  draft.Latitude,
		Longitude: draft.Longitude,
	})
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			b.sendMenu(chatID, cb.From.ID, msgProductMissing)
		} else {
			b.logger.Error("Failed to create order",
				zap.Int64("chat_id", chatID),
				zap.Error(err))
			b.sendMenu(chatID, cb.From.ID, msgInternalError)
		}
		b.answer(cb, "")
		return
	}

	b.logger.Info("Order created",
		zap.Int64("order_id", orderID),
		zap.Int64("user_id", user.ID))
	b.sendMenu(chatID, cb.From.ID, msgOrderConfirmed)
	b.notifyNewOrder(ctx, orderID)
	b.answer(cb, ansOrderConfirmed)
}

func (b *Bot) handleOrderCancel(ctx context.Context, cb *tgbotapi.CallbackQuery, _ []string) {
	chatID := callbackChatID(cb)
	b.clearSession(ctx, chatID)
	b.clearMarkup(cb)
	b.sendMenu(chatID, cb.From.ID, msgOrderDropped)
	b.answer(cb, ansCanceled)
}

// abortFlow recovers from a session whose draft went missing.
func (b *Bot) abortFlow(ctx context.Context, chatID, userID int64) {
	b.logger.Warn("Session without draft", zap.Int64("chat_id", chatID))
	b.clearSession(ctx, chatID)
	b.sendMenu(chatID, userID, msgInternalError)
}

// MY ORDERS

func (b *Bot) handleMyOrders(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	user, err := b.storage.UserByChatID(ctx, chatID)
	if err != nil {
		if !errors.Is(err, storage.ErrUserNotFound) {
			b.logger.Error("Failed to load user",
				zap.Int64("chat_id", chatID),
				zap.Error(err))
		}
		b.sendText(chatID, msgUserNotFound)
		return
	}

	orders, err := b.storage.ListUserOrders(ctx, user.ID)
	if err != nil {
		b.logger.Error("Failed to list user orders",
			zap.Int64("user_id", user.ID),
			zap.Error(err))
		b.sendText(chatID, msgInternalError)
		return
	}
	if len(orders) == 0 {
		b.sendText(chatID, msgNoUserOrders)
		return
	}

	for _, o := range orders {
		var markup interface{}
		if o.Status == order.StatusOpen {
			markup = userOrderActionKeyboard(o.ID)
		}
		b.sendHTML(chatID, b.formatUserOrder(o), markup)
	}
}

// handleUserOrdersCallback serves user_orders:cancel|cancel_confirm|cancel_keep:<id>.
func (b *Bot) handleUserOrdersCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, args []string) {
	orderID, ok := callbackInt(args, 1)
	if !ok {
		b.answer(cb, "")
		return
	}

	switch args[0] {
	case "cancel":
		b.editMarkup(cb, userOrderCancelConfirmKeyboard(orderID))
		b.answer(cb, ansConfirmUserCancel)
	case "cancel_keep":
		b.editMarkup(cb, userOrderActionKeyboard(orderID))
		b.answer(cb, ansNotCanceled)
	case "cancel_confirm":
		b.cancelOrderByUser(ctx, cb, orderID)
	default:
		b.answer(cb, "")
	}
}

func (b *Bot) cancelOrderByUser(ctx context.Context, cb *tgbotapi.CallbackQuery, orderID int64) {
	user, err := b.storage.UserByChatID(ctx, cb.From.ID)
	if err != nil {
		if !errors.Is(err, storage.ErrUserNotFound) {
			b.logger.Error("Failed to load user",
				zap.Int64("chat_id", cb.From.ID),
				zap.Error(err))
		}
		b.answerAlert(cb, msgUserNotFound)
		return
	}

	outcome, err := b.storage.CancelOrderByUser(ctx, orderID, user.ID)
	if err != nil {
		b.logger.Error("Failed to cancel order",
			zap.Int64("order_id", orderID),
			zap.Error(err))
		b.answerAlert(cb, msgInternalError)
		return
	}

	switch outcome.Reject(0) {
	case order.RejectNone:
		b.logger.Info("Order canceled by user",
			zap.Int64("order_id", orderID),
			zap.Int64("user_id", user.ID))
		b.clearMarkup(cb)
		b.answer(cb, ansOrderCanceledUser)
	case order.RejectClosed, order.RejectClosedByOther:
		b.answerAlert(cb, ansUserOrderAccepted)
	case order.RejectCanceled, order.RejectCanceledByUser, order.RejectCanceledByOther:
		b.answerAlert(cb, ansUserOrderCanceled)
	default:
		b.answerAlert(cb, msgOrderNotFound)
	}
}
