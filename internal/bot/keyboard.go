package bot

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"shrot-bot/internal/storage"
)

// BOT KEYBOARDS

func (b *Bot) mainMenuKeyboard(userID int64) tgbotapi.ReplyKeyboardMarkup {
	admin := b.isAdmin(userID)

	rows := [][]tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnProducts)),
	}
	if !admin {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnMyOrders)))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(BtnContact),
		tgbotapi.NewKeyboardButton(BtnNews),
	))
	if !admin {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnSupport)))
	} else {
		rows = append(rows,
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(BtnStats),
				tgbotapi.NewKeyboardButton(BtnOrdersList),
			),
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnCreateOrder)),
		)
	}
	if b.cfg.CanViewReports(userID) {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnReports)))
	}
	if admin {
		rows = append(rows,
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnBroadcast)),
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnBlockUsers)),
		)
	}
	return tgbotapi.NewReplyKeyboard(rows...)
}

func contactKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewOneTimeReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact(BtnSendPhone)),
	)
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnCancel)),
	)
}

// skipKeyboard serves both the description and the photo steps.
func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnSkip)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnCancel)),
	)
}

func blockActionKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnBlock),
			tgbotapi.NewKeyboardButton(BtnUnblock),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnCancel)),
	)
}

func orderAddressKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonLocation(BtnSendLocation)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnCancel)),
	)
}

func inlineButton(text, data string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(text, data))
}

func productKeyboard(productID int64, admin bool) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		inlineButton("🛒 Sotib olish uchun ariza yuborish", fmt.Sprintf("%s:%d", cbOrder, productID)),
	}
	if admin {
		rows = append(rows, inlineButton("✏️ Tahrirlash", fmt.Sprintf("%s:%d", cbEdit, productID)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func addProductKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(inlineButton(BtnAddProduct, cbAddProduct))
}

func editProductKeyboard(productID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		inlineButton("✏️ Tahrirlash", fmt.Sprintf("%s:%d", cbEdit, productID)),
	)
}

func editFieldsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		inlineButton("📝 Nomi", cbField+":name"),
		inlineButton("💰 Narxi", cbField+":price"),
		inlineButton("🗒 Tavsif", cbField+":description"),
		inlineButton("🖼 Rasmlar", cbField+":photos"),
		inlineButton("🗑 O'chirish", cbField+":delete"),
	)
}

func newsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("Telegram", newsTelegramURL)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("Instagram", newsInstagramURL)),
	)
}

func deleteProductConfirmKeyboard(productID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		inlineButton("✅ Ha, o'chirish", fmt.Sprintf("%s:confirm:%d", cbProductDelete, productID)),
		inlineButton("↩️ Yo'q", fmt.Sprintf("%s:cancel:%d", cbProductDelete, productID)),
	)
}

func ordersStatusKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🟢 Yopilmagan statuslar", "orders:open"),
			tgbotapi.NewInlineKeyboardButtonData("✅ Yopilgan statuslar", "orders:closed:0"),
		),
		inlineButton("❌ Bekor qilingan statuslar", "orders:canceled:0"),
		inlineButton("🔎 ID bo'yicha qidirish", "orders:search"),
		inlineButton("🗑 Buyurtmani o'chirish", "orders:delete"),
	)
}

func orderActionKeyboard(orderID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		inlineButton("✅ Qabul qilish va yopish", fmt.Sprintf("orders:close:%d", orderID)),
		inlineButton("❌ Bekor qilish va yopish", fmt.Sprintf("orders:cancel:%d", orderID)),
	)
}

func orderCancelConfirmKeyboard(orderID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		inlineButton("✅ Ha, bekor qilish", fmt.Sprintf("orders:cancel_confirm:%d", orderID)),
		inlineButton("↩️ Yo'q", fmt.Sprintf("orders:cancel_keep:%d", orderID)),
	)
}

func orderDeleteConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		inlineButton("✅ Ha, o'chirish", "orders:delete_confirm"),
		inlineButton("↩️ Yo'q", "orders:delete_keep"),
	)
}

func nextPageKeyboard(status string, offset int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		inlineButton(btnNextPage, fmt.Sprintf("orders:%s:%d", status, offset)),
	)
}

func userOrderActionKeyboard(orderID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		inlineButton("❌ Buyurtmani bekor qilish", fmt.Sprintf("%s:cancel:%d", cbUserOrders, orderID)),
	)
}

func userOrderCancelConfirmKeyboard(orderID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		inlineButton("✅ Ha, bekor qilish", fmt.Sprintf("%s:cancel_confirm:%d", cbUserOrders, orderID)),
		inlineButton("↩️ Yo'q", fmt.Sprintf("%s:cancel_keep:%d", cbUserOrders, orderID)),
	)
}

func orderConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		inlineButton("✅ Buyurtmani tasdiqlash", cbOrderConfirm),
		inlineButton("❌ Bekor qilish", cbOrderCancel),
	)
}

func adminOrderConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		inlineButton("✅ Ha", cbAdminOrderConfirm),
		inlineButton("❌ Yo'q", cbAdminOrderCancel),
	)
}

func adminOrderProductsKeyboard(products []storage.Product) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(products))
	for _, p := range products {
		rows = append(rows, inlineButton(p.Name, fmt.Sprintf("%s:%d", cbAdminOrderProduct, p.ID)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// reportPeriodKeyboard labels the quick periods relative to now in the display zone.
func reportPeriodKeyboard(now time.Time) tgbotapi.InlineKeyboardMarkup {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	previous := firstOfMonth.AddDate(0, 0, -1)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("📅 Joriy oy (%s)", now.Format("2006-01")), cbReportPeriod+":current_month"),
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("📅 Oldingi oy (%s)", previous.Format("2006-01")), cbReportPeriod+":previous_month"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("📅 %d yil", now.Year()), cbReportPeriod+":current_year"),
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("📅 %d yil", now.Year()-1), cbReportPeriod+":previous_year"),
		),
	)
}
