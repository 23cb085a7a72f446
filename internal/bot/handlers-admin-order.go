package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"shrot-bot/internal/pricing"
	"shrot-bot/internal/state"
	"shrot-bot/internal/storage"
)

// Admin-entered orders for customers who called or came in person. The order is
// stored already closed by the admin.

func (b *Bot) handleAdminOrderStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	ok := b.beginFlow(ctx, chatID, state.FlowAdminOrder, func(s *state.Session) {
		s.AdminOrder = &state.AdminOrderDraft{}
	})
	if ok {
		b.sendWithMarkup(chatID, msgAdminOrderPhone, cancelKeyboard())
	}
}

func (b *Bot) handleAdminOrderPhone(ctx context.Context, msg *tgbotapi.Message, sess state.Session) {
	chatID := msg.Chat.ID
	if sess.AdminOrder == nil {
		b.abortFlow(ctx, chatID, msg.From.ID)
		return
	}

	phone := strings.TrimSpace(msg.Text)
	if storage.NormalizePhone(phone) == "" {
		b.sendWithMarkup(chatID, msgAdminOrderPhoneBad, cancelKeyboard())
		return
	}

	draft := sess.AdminOrder
	user, err := b.storage.FindUserByPhone(ctx, phone)
	switch {
	case err == nil:
		draft.UserID = user.ID
		draft.ChatID = user.ChatID
		draft.ClientName = personName(user.FirstName, user.LastName, msgUnknownUser)
		draft.ClientPhone = user.Phone
		if b.advance(ctx, chatID, sess, state.StepAdminOrderAddress) {
			b.sendWithMarkup(chatID, fmt.Sprintf(msgAdminOrderFound, draft.ClientName), cancelKeyboard())
		}
	case errors.Is(err, storage.ErrUserNotFound):
		draft.ClientPhone = phone
		if b.advance(ctx, chatID, sess, state.StepAdminOrderName) {
			b.sendWithMarkup(chatID, msgAdminOrderName, cancelKeyboard())
		}
	default:
		b.logger.Error("Failed to look up customer by phone", zap.Error(err))
		b.sendText(chatID, msgInternalError)
	}
}

func (b *Bot) handleAdminOrderName(ctx context.Context, msg *tgbotapi.Message, sess state.Session) {
	chatID := msg.Chat.ID
	if sess.AdminOrder == nil {
		b.abortFlow(ctx, chatID, msg.From.ID)
		return
	}

	name := strings.TrimSpace(msg.Text)
	if name == "" {
		b.sendWithMarkup(chatID, msgAdminOrderNameBad, cancelKeyboard())
		return
	}

	sess.AdminOrder.ClientName = name
	if b.advance(ctx, chatID, sess, state.StepAdminOrderAddress) {
		b.sendWithMarkup(chatID, msgAdminOrderAddress, cancelKeyboard())
	}
}

func (b *Bot) handleAdminOrderAddress(ctx context.Context, msg *tgbotapi.Message, sess state.Session) {
	chatID := msg.Chat.ID
	if sess.AdminOrder == nil {
		b.abortFlow(ctx, chatID, msg.From.ID)
		return
	}

	address := strings.TrimSpace(msg.Text)
	if address == "" {
		b.sendWithMarkup(chatID, msgAdminOrderAddrBad, cancelKeyboard())
		return
	}

	products, err := b.storage.ListProducts(ctx)
	if err != nil {
		b.logger.Error("Failed to list products", zap.Error(err))
		b.sendText(chatID, msgInternalError)
		return
	}
	if len(products) == 0 {
		b.clearSession(ctx, chatID)
		b.sendMenu(chatID, msg.From.ID, msgNoProductsShort)
		return
	}

	sess.AdminOrder.Address = address
	if b.advance(ctx, chatID, sess, state.StepAdminOrderProduct) {
		b.sendWithMarkup(chatID, msgAdminOrderProduct, adminOrderProductsKeyboard(products))
	}
}

func (b *Bot) handleAdminOrderProductText(_ context.Context, msg *tgbotapi.Message, _ state.Session) {
	b.sendText(msg.Chat.ID, msgAdminOrderUseBtns)
}

func (b *Bot) handleAdminOrderProduct(ctx context.Context, cb *tgbotapi.CallbackQuery, args []string) {
	chatID := callbackChatID(cb)
	productID, ok := callbackInt(args, 0)
	if !ok || !b.isAdmin(cb.From.ID) {
		b.answer(cb, "")
		return
	}

	sess, ok := b.callbackSession(ctx, cb, state.StepAdminOrderProduct)
	if !ok || sess.AdminOrder == nil {
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

	sess.AdminOrder.ProductID = productID
	if b.advance(ctx, chatID, sess, state.StepAdminOrderQuantity) {
		b.sendWithMarkup(chatID, msgAdminOrderQuantity, cancelKeyboard())
	}
	b.answer(cb, "")
}

func (b *Bot) handleAdminOrderQuantity(ctx context.Context, msg *tgbotapi.Message, sess state.Session) {
	chatID := msg.Chat.ID
	if sess.AdminOrder == nil {
		b.abortFlow(ctx, chatID, msg.From.ID)
		return
	}

	quantity, err := pricing.ParseOrderQuantity(msg.Text, 0)
	if err != nil {
		b.sendWithMarkup(chatID, msgAdminOrderQtyBad, cancelKeyboard())
		return
	}

	product, err := b.storage.ProductByID(ctx, sess.AdminOrder.ProductID)
	if err != nil {
		if !errors.Is(err, storage.ErrProductNotFound) {
			b.logger.Error("Failed to load product",
				zap.Int64("product_id", sess.AdminOrder.ProductID),
				zap.Error(err))
		}
		b.clearSession(ctx, chatID)
		b.sendMenu(chatID, msg.From.ID, msgProductMissing)
		return
	}

	sess.AdminOrder.Quantity = quantity
	if b.advance(ctx, chatID, sess, state.StepAdminOrderConfirm) {
		b.sendHTML(chatID, adminOrderConfirmation(product, sess.AdminOrder), adminOrderConfirmKeyboard())
	}
}

func adminOrderConfirmation(p storage.Product, draft *state.AdminOrderDraft) string {
	return strings.Join([]string{
		adminOrderConfirmTitle,
		"👤 Mijoz: " + html.EscapeString(draft.ClientName),
		"📞 Telefon: " + html.EscapeString(draft.ClientPhone),
		"📍 Manzil: " + html.EscapeString(draft.Address),
		"📦 Mahsulot: " + html.EscapeString(p.Name),
		"⚖️ Miqdor: " + html.EscapeString(draft.Quantity.String()),
		fmt.Sprintf("💰 Narx (1 kg): %s сум", html.EscapeString(pricing.FormatPrice(p.PricePerKg))),
		"💵 Jami: " + html.EscapeString(formatDealPrice(draft.Quantity, p.PricePerKg)),
		"",
		adminOrderConfirmAsk,
	}, "\n")
}

func (b *Bot) handleAdminOrderConfirmText(_ context.Context, msg *tgbotapi.Message, _ state.Session) {
	b.sendWithMarkup(msg.Chat.ID, adminOrderConfirmAsk, adminOrderConfirmKeyboard())
}

func (b *Bot) handleAdminOrderConfirm(ctx context.Context, cb *tgbotapi.CallbackQuery, _ []string) {
	chatID := callbackChatID(cb)
	adminID := cb.From.ID
	if !b.isAdmin(adminID) {
		b.answer(cb, "")
		return
	}
	sess, ok := b.callbackSession(ctx, cb, state.StepAdminOrderConfirm)
	if !ok || sess.AdminOrder == nil {
		b.answer(cb, "")
		return
	}
	draft := sess.AdminOrder

	n := storage.NewOrder{
		UserID:    draft.UserID,
		ProductID: draft.ProductID,
		Quantity:  draft.Quantity,
		Address:   draft.Address,
	}

	userID := draft.UserID
	var orderID int64
	var err error
	if userID == 0 {
		userID, orderID, err = b.storage.CreateWalkInOrder(ctx, draft.ClientName, draft.ClientPhone, n, adminID)
	} else {
		orderID, err = b.storage.CreateClosedOrder(ctx, n, adminID)
	}
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			b.clearSession(ctx, chatID)
			b.answerAlert(cb, ansProductNotFound)
			return
		}
		b.logger.Error("Failed to create admin order",
			zap.Int64("admin_id", adminID),
			zap.Error(err))
		b.answerAlert(cb, msgInternalError)
		return
	}

	b.logger.Info("Admin order created",
		zap.Int64("order_id", orderID),
		zap.Int64("user_id", userID),
		zap.Int64("admin_id", adminID))

	b.notifyCustomerOrder(ctx, orderID)
	b.clearSession(ctx, chatID)
	b.clearMarkup(cb)
	b.sendMenu(chatID, adminID, fmt.Sprintf(msgAdminOrderCreated, orderID))
	b.answer(cb, ansAdminOrderCreated)
}

func (b *Bot) handleAdminOrderCancel(ctx context.Context, cb *tgbotapi.CallbackQuery, _ []string) {
	chatID := callbackChatID(cb)
	b.clearSession(ctx, chatID)
	b.clearMarkup(cb)
	b.sendMenu(chatID, cb.From.ID, msgOrderDropped)
	b.answer(cb, ansCanceled)
}

// callbackSession loads the chat's session and checks that it sits at step.
func (b *Bot) callbackSession(ctx context.Context, cb *tgbotapi.CallbackQuery, step state.Step) (state.Session, bool) {
	chatID := callbackChatID(cb)
	sess, err := b.sessions.Get(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to get user state",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return state.Session{}, false
	}
	return sess, sess.Step == step
}
