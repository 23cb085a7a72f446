package bot

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shrot-bot/internal/config"
	"shrot-bot/internal/order"
	"shrot-bot/internal/pricing"
	"shrot-bot/internal/state"
	"shrot-bot/internal/storage"
)

const (
	adminID      int64 = 100
	otherAdminID int64 = 101
	groupID      int64 = -1001
	customerID   int64 = 500
)

// fakeSender records everything the bot sends.
type fakeSender struct {
	mu       sync.Mutex
	nextID   int
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	albums   []tgbotapi.MediaGroupConfig
	copies   []tgbotapi.CopyMessageConfig
	sentIDs  map[int64][]int
	fail     func(c tgbotapi.Chattable) error
}

func newFakeSender() *fakeSender {
	return &fakeSender{sentIDs: make(map[int64][]int)}
}

func chatOf(c tgbotapi.Chattable) int64 {
	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		return v.ChatID
	case tgbotapi.PhotoConfig:
		return v.ChatID
	case tgbotapi.VideoConfig:
		return v.ChatID
	case tgbotapi.DocumentConfig:
		return v.ChatID
	default:
		return 0
	}
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		if err := f.fail(c); err != nil {
			return tgbotapi.Message{}, err
		}
	}
	f.nextID++
	chatID := chatOf(c)
	f.sent = append(f.sent, c)
	f.sentIDs[chatID] = append(f.sentIDs[chatID], f.nextID)
	return tgbotapi.Message{MessageID: f.nextID, Chat: &tgbotapi.Chat{ID: chatID}}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) SendMediaGroup(config tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		if err := f.fail(config); err != nil {
			return nil, err
		}
	}
	f.albums = append(f.albums, config)
	return make([]tgbotapi.Message, len(config.Media)), nil
}

func (f *fakeSender) CopyMessage(config tgbotapi.CopyMessageConfig) (tgbotapi.MessageID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.copies = append(f.copies, config)
	return tgbotapi.MessageID{MessageID: 1}, nil
}

func (f *fakeSender) texts(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeSender) lastText(chatID int64) string {
	texts := f.texts(chatID)
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func (f *fakeSender) documents(chatID int64) []tgbotapi.DocumentConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.DocumentConfig
	for _, c := range f.sent {
		if d, ok := c.(tgbotapi.DocumentConfig); ok && d.ChatID == chatID {
			out = append(out, d)
		}
	}
	return out
}

func (f *fakeSender) answers() []tgbotapi.CallbackConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.CallbackConfig
	for _, c := range f.requests {
		if a, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeSender) lastAnswer(t *testing.T) tgbotapi.CallbackConfig {
	t.Helper()
	answers := f.answers()
	require.NotEmpty(t, answers)
	return answers[len(answers)-1]
}

type fakeGeocoder struct{ address string }

func (g fakeGeocoder) Reverse(context.Context, float64, float64) string { return g.address }

type harness struct {
	bot   *Bot
	api   *fakeSender
	store *storage.Storage
}

func sqliteDSN(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessAt(t, filepath.Join(t.TempDir(), "bot.db"))
}

func newHarnessAt(t *testing.T, path string) *harness {
	t.Helper()
	ctx := context.Background()

	store, err := storage.New(ctx, storage.Config{
		Driver:         storage.DriverSQLite,
		DSN:            sqliteDSN(path),
		ConnectTimeout: time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(ctx))

	cfg := &config.Config{
		AdminIDs:           []int64{adminID, otherAdminID},
		ReportViewers:      []int64{adminID},
		SupportGroups:      []int64{groupID},
		StateTTL:           time.Hour,
		EphemeralTTL:       time.Hour,
		MediaGroupDebounce: 20 * time.Millisecond,
		SupportRateLimit:   5,
		SupportRateWindow:  time.Minute,
		MinOrderTons:       2,
		UpdateWorkers:      2,
		Timezone:           "UTC",
	}

	api := newFakeSender()
	b := New(api, store, state.NewMemoryStore(), fakeGeocoder{address: "Samarqand, Toyloq"}, cfg, zap.NewNop())
	b.retryPolicy = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return &harness{bot: b, api: api, store: store}
}

func (h *harness) registerCustomer(t *testing.T, chatID int64) storage.User {
	t.Helper()
	ctx := context.Background()
	u, err := h.store.UpsertUser(ctx, chatID, "Ali", "Valiyev")
	require.NoError(t, err)
	require.NoError(t, h.store.SetUserPhone(ctx, chatID, fmt.Sprintf("+99890%07d", chatID)))
	return u
}

func (h *harness) addProduct(t *testing.T) int64 {
	t.Helper()
	id, err := h.store.AddProduct(context.Background(), "Kunjara", 3500, "Yangi partiya")
	require.NoError(t, err)
	return id
}

func (h *harness) text(chatID int64, text string) {
	h.bot.processMessage(context.Background(), &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: chatID, FirstName: "Ali"},
		Chat:      &tgbotapi.Chat{ID: chatID, Type: "private"},
		Text:      text,
	})
}

func (h *harness) press(chatID int64, data string) {
	h.bot.processCallback(context.Background(), &tgbotapi.CallbackQuery{
		ID:      "cb-" + data,
		From:    &tgbotapi.User{ID: chatID},
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: chatID, Type: "private"}},
		Data:    data,
	})
}

func (h *harness) session(t *testing.T, chatID int64) state.Session {
	t.Helper()
	sess, err := h.bot.sessions.Get(context.Background(), chatID)
	require.NoError(t, err)
	return sess
}

func TestStartAsksUnregisteredUserForPhone(t *testing.T) {
	h := newHarness(t)

	h.bot.processMessage(context.Background(), &tgbotapi.Message{
		From:     &tgbotapi.User{ID: customerID, FirstName: "Ali"},
		Chat:     &tgbotapi.Chat{ID: customerID, Type: "private"},
		Text:     "/start",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
	})

	assert.Equal(t, msgWelcomeNew, h.api.lastText(customerID))

	h.text(customerID, BtnProducts)
	assert.Equal(t, msgNeedPhone, h.api.lastText(customerID))
}

func TestContactOfAnotherUserIsRefused(t *testing.T) {
	h := newHarness(t)

	h.bot.processMessage(context.Background(), &tgbotapi.Message{
		From:    &tgbotapi.User{ID: customerID},
		Chat:    &tgbotapi.Chat{ID: customerID, Type: "private"},
		Contact: &tgbotapi.Contact{UserID: 999, PhoneNumber: "+998901112233"},
	})
	assert.Equal(t, msgOwnContactOnly, h.api.lastText(customerID))

	h.bot.processMessage(context.Background(), &tgbotapi.Message{
		From:    &tgbotapi.User{ID: customerID, FirstName: "Ali"},
		Chat:    &tgbotapi.Chat{ID: customerID, Type: "private"},
		Contact: &tgbotapi.Contact{UserID: customerID, PhoneNumber: "+998901112233"},
	})
	assert.Equal(t, msgRegistered, h.api.lastText(customerID))

	u, err := h.store.UserByChatID(context.Background(), customerID)
	require.NoError(t, err)
	assert.True(t, u.Registered())
}

func TestOrderFlowCreatesOrderAndNotifiesAdmins(t *testing.T) {
	h := newHarness(t)
	u := h.registerCustomer(t, customerID)
	productID := h.addProduct(t)

	h.press(customerID, fmt.Sprintf("order:%d", productID))
	assert.Equal(t, state.StepOrderQuantity, h.session(t, customerID).Step)

	h.text(customerID, "1,5")
	assert.Equal(t, fmt.Sprintf(msgOrderBelowMin, "2"), h.api.lastText(customerID))

	h.text(customerID, "2,5")
	assert.Equal(t, state.StepOrderAddress, h.session(t, customerID).Step)

	h.text(customerID, "Toshkent, Chilonzor")
	assert.Equal(t, state.StepOrderConfirm, h.session(t, customerID).Step)
	assert.Contains(t, h.api.lastText(customerID), orderConfirmAsk)

	h.press(customerID, cbOrderConfirm)
	assert.True(t, h.session(t, customerID).Idle())
	assert.Equal(t, msgOrderConfirmed, h.api.lastText(customerID))

	orders, err := h.store.ListUserOrders(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "2.5 tonna", orders[0].Quantity.String())
	assert.Equal(t, "Toshkent, Chilonzor", orders[0].Address)
	assert.Equal(t, order.StatusOpen, orders[0].Status)

	for _, admin := range []int64{adminID, otherAdminID} {
		assert.True(t, strings.HasPrefix(h.api.lastText(admin), newOrderHeader), admin)
	}
}

func TestOrderAddressFromLocationIsGeocoded(t *testing.T) {
	h := newHarness(t)
	h.registerCustomer(t, customerID)
	productID := h.addProduct(t)

	h.press(customerID, fmt.Sprintf("order:%d", productID))
	h.text(customerID, "3")
	h.bot.processMessage(context.Background(), &tgbotapi.Message{
		From:     &tgbotapi.User{ID: customerID},
		Chat:     &tgbotapi.Chat{ID: customerID, Type: "private"},
		Location: &tgbotapi.Location{Latitude: 39.65, Longitude: 66.96},
	})

	sess := h.session(t, customerID)
	require.NotNil(t, sess.Order)
	assert.Equal(t, "Samarqand, Toyloq", sess.Order.Address)
	require.NotNil(t, sess.Order.Latitude)
	assert.InDelta(t, 39.65, *sess.Order.Latitude, 1e-9)
	assert.Contains(t, h.api.lastText(customerID), "google.com/maps?q=39.65,66.96")
}

func TestCancelButtonLeavesFlow(t *testing.T) {
	h := newHarness(t)
	h.registerCustomer(t, customerID)
	productID := h.addProduct(t)

	h.press(customerID, fmt.Sprintf("order:%d", productID))
	h.text(customerID, BtnCancel)

	assert.True(t, h.session(t, customerID).Idle())
	assert.Equal(t, msgOrderCanceled, h.api.lastText(customerID))
}

func TestAdminCloseRaceReportsOtherAdmin(t *testing.T) {
	h := newHarness(t)
	u := h.registerCustomer(t, customerID)
	productID := h.addProduct(t)

	orderID, err := h.store.CreateOrder(context.Background(), storage.NewOrder{
		UserID:    u.ID,
		ProductID: productID,
		Quantity:  pricing.NewQuantity(3),
		Address:   "Toshkent",
	})
	require.NoError(t, err)

	h.press(adminID, fmt.Sprintf("orders:close:%d", orderID))
	first := h.api.lastAnswer(t)
	assert.Equal(t, ansOrderClosed, first.Text)
	assert.False(t, first.ShowAlert)

	h.press(otherAdminID, fmt.Sprintf("orders:close:%d", orderID))
	second := h.api.lastAnswer(t)
	assert.Equal(t, ansClosedByOther, second.Text)
	assert.True(t, second.ShowAlert)

	h.press(adminID, fmt.Sprintf("orders:cancel_confirm:%d", orderID))
	assert.Equal(t, ansAlreadyClosed, h.api.lastAnswer(t).Text)
}

func TestUserCancelBeatsAdminClose(t *testing.T) {
	h := newHarness(t)
	u := h.registerCustomer(t, customerID)
	productID := h.addProduct(t)

	orderID, err := h.store.CreateOrder(context.Background(), storage.NewOrder{
		UserID:    u.ID,
		ProductID: productID,
		Quantity:  pricing.NewQuantity(2),
		Address:   "Buxoro",
	})
	require.NoError(t, err)

	h.press(customerID, fmt.Sprintf("user_orders:cancel_confirm:%d", orderID))
	assert.Equal(t, ansOrderCanceledUser, h.api.lastAnswer(t).Text)

	h.press(adminID, fmt.Sprintf("orders:close:%d", orderID))
	assert.Equal(t, ansCustomerCanceled, h.api.lastAnswer(t).Text)
}

func TestAdminOrderForWalkInCustomer(t *testing.T) {
	runWalkInOrder(t, newHarness(t))
}

func TestAdminOrderForWalkInCustomerOnUpgradedDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")
	legacy, err := sqlx.Open(storage.DriverSQLite, sqliteDSN(path))
	require.NoError(t, err)
	for _, stmt := range []string{
		`CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tg_id INTEGER UNIQUE NOT NULL,
			first_name TEXT,
			last_name TEXT,
			phone TEXT,
			created_at TEXT NOT NULL,
			last_active TEXT NOT NULL
		)`,
		`CREATE TABLE products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			price_per_kg REAL NOT NULL,
			description TEXT
		)`,
		`CREATE TABLE orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			product_id INTEGER NOT NULL,
			quantity TEXT NOT NULL,
			address TEXT NOT NULL,
			created_at TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open',
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY(product_id) REFERENCES products(id) ON DELETE CASCADE
		)`,
		`INSERT INTO users (tg_id, first_name, phone, created_at, last_active)
			VALUES (5005, 'Olim', '998901112233', '2024-01-05 10:00:00', '2024-01-05 10:00:00')`,
	} {
		_, err := legacy.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	require.NoError(t, legacy.Close())

	h := newHarnessAt(t, path)
	runWalkInOrder(t, h)

	olim, err := h.store.UserByChatID(context.Background(), 5005)
	require.NoError(t, err)
	assert.Equal(t, "Olim", olim.FirstName)
}

func runWalkInOrder(t *testing.T, h *harness) {
	t.Helper()
	productID := h.addProduct(t)

	h.text(adminID, BtnCreateOrder)
	h.text(adminID, "+998 93 111 22 33")
	assert.Equal(t, state.StepAdminOrderName, h.session(t, adminID).Step)

	h.text(adminID, "Bobur")
	h.text(adminID, "Jizzax")
	assert.Equal(t, state.StepAdminOrderProduct, h.session(t, adminID).Step)

	h.press(adminID, fmt.Sprintf("%s:%d", cbAdminOrderProduct, productID))
	h.text(adminID, "4")
	assert.Equal(t, state.StepAdminOrderConfirm, h.session(t, adminID).Step)

	h.press(adminID, cbAdminOrderConfirm)
	assert.Equal(t, ansAdminOrderCreated, h.api.lastAnswer(t).Text)

	customer, err := h.store.FindUserByPhone(context.Background(), "931112233")
	require.NoError(t, err)
	assert.Nil(t, customer.ChatID)

	orders, err := h.store.ListUserOrders(context.Background(), customer.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.StatusClosed, orders[0].Status)
}

func TestAdminMenuIgnoredForCustomers(t *testing.T) {
	h := newHarness(t)
	h.registerCustomer(t, customerID)

	h.text(customerID, BtnStats)
	assert.Empty(t, h.api.texts(customerID))
}

func TestBlockedUserIsRejected(t *testing.T) {
	h := newHarness(t)
	h.registerCustomer(t, customerID)

	h.text(adminID, BtnBlockUsers)
	h.text(adminID, BtnBlock)
	h.text(adminID, fmt.Sprintf("+99890%07d", customerID))
	assert.Contains(t, h.api.lastText(adminID), "Foydalanuvchi bloklandi")

	h.text(customerID, BtnProducts)
	assert.Equal(t, msgBlocked, h.api.lastText(customerID))

	h.press(customerID, "order:1")
	assert.Equal(t, msgBlocked, h.api.lastAnswer(t).Text)
}

func TestAdminCannotBeBlocked(t *testing.T) {
	h := newHarness(t)
	h.registerCustomer(t, adminID)

	h.text(adminID, BtnBlockUsers)
	h.text(adminID, BtnBlock)
	h.text(adminID, fmt.Sprintf("+99890%07d", adminID))

	assert.Equal(t, msgBlockAdmin, h.api.lastText(adminID))
	blocked, err := h.store.IsBlocked(context.Background(), adminID)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestSupportRequestRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.registerCustomer(t, customerID)

	h.text(customerID, BtnSupport)
	h.text(customerID, "Yetkazib berish qachon?")
	assert.Equal(t, msgSupportSent, h.api.lastText(customerID))

	forwarded := h.api.lastText(groupID)
	assert.Contains(t, forwarded, "Yetkazib berish qachon?")
	assert.Contains(t, forwarded, fmt.Sprintf("🆔 ID: %d", customerID))

	ids := h.api.sentIDs[groupID]
	require.Len(t, ids, 1)

	h.bot.processMessage(context.Background(), &tgbotapi.Message{
		MessageID:      77,
		From:           &tgbotapi.User{ID: adminID},
		Chat:           &tgbotapi.Chat{ID: groupID, Type: "supergroup"},
		Text:           "Ertaga",
		ReplyToMessage: &tgbotapi.Message{MessageID: ids[0], Chat: &tgbotapi.Chat{ID: groupID}},
	})

	assert.Equal(t, msgSupportReply, h.api.lastText(customerID))
	require.Len(t, h.api.copies, 1)
	assert.Equal(t, customerID, h.api.copies[0].ChatID)
	assert.Equal(t, groupID, h.api.copies[0].FromChatID)
	assert.Equal(t, 77, h.api.copies[0].MessageID)
}

func TestSupportReplyFallsBackToIDLine(t *testing.T) {
	h := newHarness(t)

	h.bot.processMessage(context.Background(), &tgbotapi.Message{
		MessageID: 80,
		From:      &tgbotapi.User{ID: adminID},
		Chat:      &tgbotapi.Chat{ID: groupID, Type: "supergroup"},
		Text:      "Javob",
		ReplyToMessage: &tgbotapi.Message{
			MessageID: 12345,
			Chat:      &tgbotapi.Chat{ID: groupID},
			Text:      "🆘 Yangi qo'llab-quvvatlash so'rovi\n🆔 ID: 4242\n\nText: salom",
		},
	})

	require.Len(t, h.api.copies, 1)
	assert.Equal(t, int64(4242), h.api.copies[0].ChatID)
}

func TestSupportRejectsAlbumOnce(t *testing.T) {
	h := newHarness(t)
	h.registerCustomer(t, customerID)

	h.text(customerID, BtnSupport)
	for i := 0; i < 3; i++ {
		h.bot.processMessage(context.Background(), &tgbotapi.Message{
			From:         &tgbotapi.User{ID: customerID},
			Chat:         &tgbotapi.Chat{ID: customerID, Type: "private"},
			MediaGroupID: "album-1",
			Photo:        []tgbotapi.PhotoSize{{FileID: fmt.Sprintf("p%d", i)}},
		})
	}

	rejections := 0
	for _, text := range h.api.texts(customerID) {
		if text == msgSingleMediaOnly {
			rejections++
		}
	}
	assert.Equal(t, 1, rejections)
	assert.Empty(t, h.api.texts(groupID))
}

func TestBroadcastTextReachesEveryUser(t *testing.T) {
	h := newHarness(t)
	h.registerCustomer(t, customerID)
	h.registerCustomer(t, customerID+1)

	h.text(adminID, BtnBroadcast)
	h.text(adminID, "Yangi narxlar!")
	assert.Equal(t, msgBroadcastConfirm, h.api.lastText(adminID))

	h.text(adminID, "balki")
	assert.Equal(t, msgBroadcastYesNo, h.api.lastText(adminID))

	h.text(adminID, "Ha")
	assert.Equal(t, fmt.Sprintf(msgBroadcastDone, 2, 0), h.api.lastText(adminID))
	assert.Equal(t, "Yangi narxlar!", h.api.lastText(customerID))
	assert.Equal(t, "Yangi narxlar!", h.api.lastText(customerID+1))
}

func TestBroadcastRetriesAfterFloodControl(t *testing.T) {
	h := newHarness(t)
	h.registerCustomer(t, customerID)

	var mu sync.Mutex
	attempts := 0
	h.api.fail = func(c tgbotapi.Chattable) error {
		if chatOf(c) != customerID {
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return &tgbotapi.Error{
				Code:               429,
				Message:            "Too Many Requests",
				ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 1},
			}
		}
		return nil
	}

	sent, failed := h.bot.broadcast(context.Background(),
		state.BroadcastDraft{Kind: state.BroadcastText, Text: "salom"}, []int64{customerID})

	assert.Equal(t, int64(1), sent)
	assert.Equal(t, int64(0), failed)
	assert.Equal(t, 2, attempts)
}

func TestBroadcastCountsPermanentFailures(t *testing.T) {
	h := newHarness(t)
	h.api.fail = func(c tgbotapi.Chattable) error {
		if chatOf(c) == 2 {
			return &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}
		}
		return nil
	}

	sent, failed := h.bot.broadcast(context.Background(),
		state.BroadcastDraft{Kind: state.BroadcastText, Text: "salom"}, []int64{1, 2, 3})

	assert.Equal(t, int64(2), sent)
	assert.Equal(t, int64(1), failed)
}

func TestBroadcastAlbumIsCollected(t *testing.T) {
	h := newHarness(t)
	h.bot.dispatcher.start(context.Background())
	t.Cleanup(h.bot.dispatcher.stop)

	h.text(adminID, BtnBroadcast)
	for i := 0; i < 3; i++ {
		caption := ""
		if i == 0 {
			caption = "Albom"
		}
		h.bot.processMessage(context.Background(), &tgbotapi.Message{
			From:         &tgbotapi.User{ID: adminID},
			Chat:         &tgbotapi.Chat{ID: adminID, Type: "private"},
			MediaGroupID: "g1",
			Caption:      caption,
			Photo:        []tgbotapi.PhotoSize{{FileID: fmt.Sprintf("small%d", i)}, {FileID: fmt.Sprintf("big%d", i)}},
		})
	}

	require.Eventually(t, func() bool {
		return h.session(t, adminID).Step == state.StepBroadcastConfirm
	}, 2*time.Second, 10*time.Millisecond)

	draft := h.session(t, adminID).Broadcast
	require.NotNil(t, draft)
	assert.Equal(t, state.BroadcastMediaGroup, draft.Kind)
	assert.Equal(t, "Albom", draft.Caption)
	require.Len(t, draft.Items, 3)
	assert.Equal(t, "big0", draft.Items[0].FileID)
}

func TestOrdersPagingOffersNextPage(t *testing.T) {
	h := newHarness(t)
	u := h.registerCustomer(t, customerID)
	productID := h.addProduct(t)
	ctx := context.Background()

	for i := 0; i < ordersPageSize+2; i++ {
		_, err := h.store.CreateClosedOrder(ctx, storage.NewOrder{
			UserID:    u.ID,
			ProductID: productID,
			Quantity:  pricing.NewQuantity(2),
			Address:   "Navoiy",
		}, adminID)
		require.NoError(t, err)
	}

	h.press(adminID, "orders:closed:0")
	first := h.api.lastText(adminID)
	assert.True(t, strings.HasPrefix(first, "1. "))

	h.press(adminID, fmt.Sprintf("orders:closed:%d", ordersPageSize))
	assert.True(t, strings.HasPrefix(h.api.lastText(adminID), fmt.Sprintf("%d. ", ordersPageSize+1)))

	h.press(adminID, fmt.Sprintf("orders:closed:%d", 2*ordersPageSize))
	assert.Equal(t, msgNoMoreClosedOrders, h.api.lastText(adminID))
}

func TestDeleteOrderFlow(t *testing.T) {
	h := newHarness(t)
	u := h.registerCustomer(t, customerID)
	productID := h.addProduct(t)
	ctx := context.Background()

	orderID, err := h.store.CreateOrder(ctx, storage.NewOrder{
		UserID: u.ID, ProductID: productID, Quantity: pricing.NewQuantity(2), Address: "Qarshi",
	})
	require.NoError(t, err)

	h.press(adminID, "orders:delete")
	h.text(adminID, "999")
	assert.Equal(t, msgOrderNotFoundRetry, h.api.lastText(adminID))

	h.text(adminID, fmt.Sprintf("#%d", orderID))
	assert.Equal(t, state.StepDeleteConfirm, h.session(t, adminID).Step)

	h.press(adminID, "orders:delete_confirm")
	assert.Equal(t, fmt.Sprintf(msgOrderDeleted, orderID), h.api.lastText(adminID))

	_, err = h.store.OrderByID(ctx, orderID)
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)
}

func TestQuickPeriodReportSendsDocuments(t *testing.T) {
	h := newHarness(t)
	u := h.registerCustomer(t, customerID)
	productID := h.addProduct(t)

	_, err := h.store.CreateClosedOrder(context.Background(), storage.NewOrder{
		UserID: u.ID, ProductID: productID, Quantity: pricing.NewQuantity(2), Address: "Termiz",
	}, adminID)
	require.NoError(t, err)

	h.press(adminID, "report_period:current_month")

	docs := h.api.documents(adminID)
	require.Len(t, docs, 2)
	assert.Contains(t, h.api.texts(adminID), msgReportLoading)

	var summary string
	for _, text := range h.api.texts(adminID) {
		if strings.HasPrefix(text, "📑 Hisobot") {
			summary = text
		}
	}
	assert.Contains(t, summary, "Kunjara")
	assert.Contains(t, summary, "7,000")

	deleted := false
	for _, req := range h.api.requests {
		if _, ok := req.(tgbotapi.DeleteMessageConfig); ok {
			deleted = true
		}
	}
	assert.True(t, deleted)
}

func TestReportEndBeforeStartIsRejected(t *testing.T) {
	h := newHarness(t)

	h.text(adminID, BtnReports)
	h.text(adminID, "2024-03-10")
	h.text(adminID, "01.03.2024")

	assert.Equal(t, msgReportEndBefore, h.api.lastText(adminID))
	assert.Equal(t, state.StepReportEnd, h.session(t, adminID).Step)
}
