package bot

import (
	"context"
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"

	"shrot-bot/internal/pricing"
	"shrot-bot/internal/storage"
)

// notifyNewOrder sends a fresh open order to every admin with the close/cancel buttons.
func (b *Bot) notifyNewOrder(ctx context.Context, orderID int64) {
	o, err := b.storage.OrderByID(ctx, orderID)
	if err != nil {
		b.logger.Error("Failed to load order for notification",
			zap.Int64("order_id", orderID),
			zap.Error(err))
		return
	}

	text := newOrderHeader + b.formatOrder(o)
	for _, adminID := range b.cfg.AdminIDs {
		if adminID == 0 {
			b.logger.Warn("Skipping notification to zero chat ID")
			continue
		}
		if _, ok := b.sendHTML(adminID, text, orderActionKeyboard(orderID)); !ok {
			b.logger.Warn("Failed to notify admin about new order",
				zap.Int64("admin_id", adminID),
				zap.Int64("order_id", orderID))
		}
	}
}

// notifyCustomerOrder sends the customer a copy of an order an admin created for them.
// Customers without a chat identity are skipped.
func (b *Bot) notifyCustomerOrder(ctx context.Context, orderID int64) {
	o, err := b.storage.OrderByID(ctx, orderID)
	if err != nil {
		b.logger.Error("Failed to load order for customer notification",
			zap.Int64("order_id", orderID),
			zap.Error(err))
		return
	}
	customer := storage.User{ChatID: o.ChatID}
	chatID, ok := customer.Reachable()
	if !ok {
		return
	}

	price := o.EffectivePrice()
	text := strings.Join([]string{
		customerOrderHeader,
		fmt.Sprintf("🆔 Buyurtma ID: %d", o.ID),
		"👤 Mijoz: " + html.EscapeString(o.CustomerName()),
		"📞 Telefon: " + html.EscapeString(o.Phone),
		"📍 Manzil: " + html.EscapeString(o.Address),
		"📦 Mahsulot: " + html.EscapeString(o.ProductName),
		"⚖️ Miqdor: " + html.EscapeString(o.Quantity.String()),
		fmt.Sprintf("💰 Narx (1 kg): %s сум", pricing.FormatPrice(price)),
		"💵 Jami: " + html.EscapeString(formatDealPrice(o.Quantity, price)),
		"📌 Holat: Yopilgan",
	}, "\n")

	b.sendHTML(chatID, text, nil)
}
