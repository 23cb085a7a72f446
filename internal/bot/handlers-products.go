package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"shrot-bot/internal/pricing"
	"shrot-bot/internal/state"
	"shrot-bot/internal/storage"
)

// extraProductPhotos is how many photos follow the captioned one.
const extraProductPhotos = 2

func (b *Bot) handleProducts(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	admin := b.isAdmin(msg.From.ID)

	products, err := b.storage.ListProducts(ctx)
	if err != nil {
		b.logger.Error("Failed to list products", zap.Error(err))
		b.sendText(chatID, msgInternalError)
		return
	}

	if len(products) == 0 {
		b.sendText(chatID, msgNoProducts)
	}
	for _, p := range products {
		b.sendProduct(ctx, chatID, p, admin)
	}
	if admin {
		b.sendWithMarkup(chatID, msgAddProductPrompt, addProductKeyboard())
	}
}

// sendProduct shows the captioned first photo with the order button, then up to two
// more photos.
func (b *Bot) sendProduct(ctx context.Context, chatID int64, p storage.Product, admin bool) {
	photos, err := b.storage.ProductPhotos(ctx, p.ID)
	if err != nil {
		b.logger.Warn("Failed to load product photos",
			zap.Int64("product_id", p.ID),
			zap.Error(err))
	}

	caption := productCaption(p)
	if len(photos) == 0 {
		b.sendWithMarkup(chatID, caption, productKeyboard(p.ID, admin))
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(photos[0]))
	photo.Caption = caption
	photo.ReplyMarkup = productKeyboard(p.ID, admin)
	if _, err := b.api.Send(photo); err != nil {
		b.logger.Error("Failed to send product photo",
			zap.Int64("chat_id", chatID),
			zap.Int64("product_id", p.ID),
			zap.Error(err))
		return
	}

	rest := photos[1:]
	if len(rest) > extraProductPhotos {
		rest = rest[:extraProductPhotos]
	}
	switch len(rest) {
	case 0:
	case 1:
		if _, err := b.api.Send(tgbotapi.NewPhoto(chatID, tgbotapi.FileID(rest[0]))); err != nil {
			b.logger.Warn("Failed to send product photo",
				zap.Int64("product_id", p.ID),
				zap.Error(err))
		}
	default:
		media := make([]interface{}, 0, len(rest))
		for _, ref := range rest {
			media = append(media, tgbotapi.NewInputMediaPhoto(tgbotapi.FileID(ref)))
		}
		if _, err := b.api.SendMediaGroup(tgbotapi.NewMediaGroup(chatID, media)); err != nil {
			b.logger.Warn("Failed to send product photos",
				zap.Int64("product_id", p.ID),
				zap.Error(err))
		}
	}
}

// ADD PRODUCT

func (b *Bot) handleAddProductStart(ctx context.Context, msg *tgbotapi.Message) {
	b.startAddProduct(ctx, msg.Chat.ID)
}

func (b *Bot) handleAddProductCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, _ []string) {
	if !b.isAdmin(cb.From.ID) {
		b.answer(cb, "")
		return
	}
	b.startAddProduct(ctx, callbackChatID(cb))
	b.answer(cb, "")
}

func (b *Bot) startAddProduct(ctx context.Context, chatID int64) {
	ok := b.beginFlow(ctx, chatID, state.FlowAddProduct, func(s *state.Session) {
		s.Product = &state.ProductDraft{}
	})
	if ok {
		b.sendWithMarkup(chatID, msgProductName, cancelKeyboard())
	}
}

func productDraft(sess *state.Session) *state.ProductDraft {
	if sess.Product == nil {
		sess.Product = &state.ProductDraft{}
	}
	return sess.Product
}

func (b *Bot) handleProductName(ctx context.Context, msg *tgbotapi.Message, sess state.Session) {
	chatID := msg.Chat.ID
	name := strings.TrimSpace(msg.Text)
	if name == "" {
		b.sendWithMarkup(chatID, msgProductName, cancelKeyboard())
		return
	}

	productDraft(&sess).Name = name
	if b.advance(ctx, chatID, sess, state.StepProductPrice) {
		b.sendWithMarkup(chatID, msgProductPrice, cancelKeyboard())
	}
}

func (b *Bot) handleProductPrice(ctx context.Context, msg *tgbotapi.Message, sess state.Session) {
	chatID := msg.Chat.ID
	price, err := pricing.ParsePrice(msg.Text)
	if err != nil {
		b.sendText(chatID, msgProductPriceBad)
		return
	}

	productDraft(&sess).Price = price
	if b.advance(ctx, chatID, sess, state.StepProductDescription) {
		b.sendWithMarkup(chatID, msgProductDesc, skipKeyboard())
	}
}

func (b *Bot) handleProductDescription(ctx context.Context, msg *tgbotapi.Message, sess state.Session) {
	chatID := msg.Chat.ID
	description := strings.TrimSpace(msg.Text)
	if description == BtnSkip {
		description = ""
	}

	productDraft(&sess).Description = description
	if b.advance(ctx, chatID, sess, state.StepProductPhoto) {
		b.sendWithMarkup(chatID, msgProductPhoto, skipKeyboard())
	}
}

func (b *Bot) handleProductPhoto(ctx context.Context, msg *tgbotapi.Message, sess state.Session) {
	chatID := msg.Chat.ID

	var photos []string
	switch {
	case strings.TrimSpace(msg.Text) == BtnSkip:
	case len(msg.Photo) > 0:
		photos = []string{largestPhoto(msg)}
	default:
		b.sendWithMarkup(chatID, msgPhotoExpected, skipKeyboard())
		return
	}

	draft := productDraft(&sess)
	productID, err := b.storage.AddProduct(ctx, draft.Name, draft.Price, draft.Description)
	if err != nil {
		b.logger.Error("Failed to add product",
			zap.String("name", draft.Name),
			zap.Error(err))
		b.clearSession(ctx, chatID)
		b.sendMenu(chatID, msg.From.ID, msgInternalError)
		return
	}
	if len(photos) > 0 {
		if err := b.storage.SetProductPhotos(ctx, productID, photos); err != nil {
			b.logger.Error("Failed to save product photos",
				zap.Int64("product_id", productID),
				zap.Error(err))
		}
	}

	b.logger.Info("Product added",
		zap.Int64("product_id", productID),
		zap.Int64("admin_id", msg.From.ID))
	b.clearSession(ctx, chatID)
	b.sendMenu(chatID, msg.From.ID, msgProductAdded)
}

func largestPhoto(msg *tgbotapi.Message) string {
	return msg.Photo[len(msg.Photo)-1].FileID
}

// EDIT PRODUCT

func (b *Bot) handleEditProductList(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	products, err := b.storage.ListProducts(ctx)
	if err != nil {
		b.logger.Error("Failed to list products", zap.Error(err))
		b.sendText(chatID, msgInternalError)
		return
	}
	if len(products) == 0 {
		b.sendText(chatID, msgNoProductsShort)
		return
	}
	for _, p := range products {
		b.sendWithMarkup(chatID, fmt.Sprintf("%s (ID: %d)", p.Name, p.ID), editProductKeyboard(p.ID))
	}
}

func (b *Bot) handleEditStart(ctx context.Context, cb *tgbotapi.CallbackQuery, args []string) {
	productID, ok := callbackInt(args, 0)
	if !ok || !b.isAdmin(cb.From.ID) {
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

	chatID := callbackChatID(cb)
	b.openEditMenu(ctx, chatID, productID)
	b.sendWithMarkup(chatID, msgEditCancelHint, cancelKeyboard())
	b.answer(cb, "")
}

func (b *Bot) openEditMenu(ctx context.Context, chatID, productID int64) {
	ok := b.beginFlow(ctx, chatID, state.FlowEditProduct, func(s *state.Session) {
		s.Edit = &state.EditDraft{ProductID: productID}
	})
	if ok {
		b.sendWithMarkup(chatID, msgEditWhat, editFieldsKeyboard())
	}
}

func (b *Bot) handleEditFieldText(_ context.Context, msg *tgbotapi.Message, _ state.Session) {
	b.sendWithMarkup(msg.Chat.ID, msgEditWhat, editFieldsKeyboard())
}

func (b *Bot) handleEditField(ctx context.Context, cb *tgbotapi.CallbackQuery, args []string) {
	chatID := callbackChatID(cb)
	if !b.isAdmin(cb.From.ID) || len(args) == 0 {
		b.answer(cb, "")
		return
	}

	sess, ok := b.callbackSession(ctx, cb, state.StepEditField)
	if !ok || sess.Edit == nil {
		b.answer(cb, "")
		return
	}

	field := state.EditField(args[0])
	switch field {
	case state.EditDelete:
		b.sendWithMarkup(chatID, msgDeleteProductAsk, deleteProductConfirmKeyboard(sess.Edit.ProductID))
	case state.EditPhotos:
		sess.Edit.Field = field
		if b.advance(ctx, chatID, sess, state.StepEditPhotos) {
			b.sendWithMarkup(chatID, msgEditNewPhoto, skipKeyboard())
		}
	case state.EditName, state.EditPrice, state.EditDescription:
		sess.Edit.Field = field
		if b.advance(ctx, chatID, sess, state.StepEditValue) {
			b.sendWithMarkup(chatID, msgEditNewValue, cancelKeyboard())
		}
	}
	b.answer(cb, "")
}

func (b *Bot) handleEditValue(ctx context.Context, msg *tgbotapi.Message, sess state.Session) {
	chatID := msg.Chat.ID
	if sess.Edit == nil {
		b.clearSession(ctx, chatID)
		b.sendMenu(chatID, msg.From.ID, msgInternalError)
		return
	}
	productID := sess.Edit.ProductID

	var err error
	switch sess.Edit.Field {
	case state.EditName:
		name := strings.TrimSpace(msg.Text)
		if name == "" {
			b.sendWithMarkup(chatID, msgEditNewValue, cancelKeyboard())
			return
		}
		err = b.storage.UpdateProductName(ctx, productID, name)
	case state.EditPrice:
		price, parseErr := pricing.ParsePrice(msg.Text)
		if parseErr != nil {
			b.sendText(chatID, msgEditPriceBad)
			return
		}
		err = b.storage.UpdateProductPrice(ctx, productID, price)
	case state.EditDescription:
		err = b.storage.UpdateProductDescription(ctx, productID, strings.TrimSpace(msg.Text))
	default:
		err = fmt.Errorf("unexpected edit field %q", sess.Edit.Field)
	}

	b.clearSession(ctx, chatID)
	b.finishEdit(chatID, msg.From.ID, productID, err, msgProductUpdated)
}

func (b *Bot) handleEditPhotos(ctx context.Context, msg *tgbotapi.Message, sess state.Session) {
	chatID := msg.Chat.ID
	if sess.Edit == nil {
		b.clearSession(ctx, chatID)
		b.sendMenu(chatID, msg.From.ID, msgInternalError)
		return
	}

	var photos []string
	switch {
	case strings.TrimSpace(msg.Text) == BtnSkip:
	case len(msg.Photo) > 0:
		photos = []string{largestPhoto(msg)}
	default:
		b.sendWithMarkup(chatID, msgPhotoExpected, skipKeyboard())
		return
	}

	err := b.storage.SetProductPhotos(ctx, sess.Edit.ProductID, photos)
	b.clearSession(ctx, chatID)
	b.finishEdit(chatID, msg.From.ID, sess.Edit.ProductID, err, msgPhotosUpdated)
}

func (b *Bot) finishEdit(chatID, adminID, productID int64, err error, done string) {
	switch {
	case errors.Is(err, storage.ErrProductNotFound):
		b.sendMenu(chatID, adminID, msgProductNotFound)
	case err != nil:
		b.logger.Error("Failed to update product",
			zap.Int64("product_id", productID),
			zap.Error(err))
		b.sendMenu(chatID, adminID, msgInternalError)
	default:
		b.logger.Info("Product updated",
			zap.Int64("product_id", productID),
			zap.Int64("admin_id", adminID))
		b.sendMenu(chatID, adminID, done)
	}
}

// handleProductDelete serves product_delete:confirm:<id> and product_delete:cancel:<id>.
func (b *Bot) handleProductDelete(ctx context.Context, cb *tgbotapi.CallbackQuery, args []string) {
	productID, ok := callbackInt(args, 1)
	if !ok || !b.isAdmin(cb.From.ID) {
		b.answer(cb, "")
		return
	}
	chatID := callbackChatID(cb)

	switch args[0] {
	case "confirm":
		removed, err := b.storage.DeleteProduct(ctx, productID)
		if err != nil {
			b.logger.Error("Failed to delete product",
				zap.Int64("product_id", productID),
				zap.Error(err))
			b.answerAlert(cb, msgInternalError)
			return
		}
		if !removed {
			b.answerAlert(cb, msgProductNotFound)
			return
		}
		b.logger.Info("Product deleted",
			zap.Int64("product_id", productID),
			zap.Int64("admin_id", cb.From.ID))
		b.clearSession(ctx, chatID)
		b.clearMarkup(cb)
		b.sendMenu(chatID, cb.From.ID, msgProductDeleted)
		b.answer(cb, "")
	case "cancel":
		b.clearMarkup(cb)
		b.openEditMenu(ctx, chatID, productID)
		b.answer(cb, msgDeleteUndone)
	default:
		b.answer(cb, "")
	}
}
