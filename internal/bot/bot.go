package bot

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"shrot-bot/internal/config"
	"shrot-bot/internal/state"
	"shrot-bot/internal/storage"
)

const (
	queueBuffer    = 64
	janitorEvery   = 10 * time.Minute
	rejectMarksKey = "mgreject"
	supportRateKey = "support"
)

type Bot struct {
	api      Sender
	logger   *zap.Logger
	cfg      *config.Config
	storage  *storage.Storage
	geocoder Geocoder

	sessions     *state.Sessions
	relay        *state.Relay
	rejects      *state.Marks
	supportLimit *state.RateLimiter
	media        *state.MediaGroupBuffer

	handlers   map[state.Step]stepHandler
	menu       map[string]menuEntry
	callbacks  map[string]callbackHandler
	dispatcher *dispatcher
	loc        *time.Location
	now        func() time.Time

	retryPolicy func() backoff.BackOff
}

func New(
	api Sender,
	store *storage.Storage,
	ttlStore state.TTLStore,
	geocoder Geocoder,
	cfg *config.Config,
	logger *zap.Logger,
) *Bot {
	b := &Bot{
		api:          api,
		logger:       logger,
		cfg:          cfg,
		storage:      store,
		geocoder:     geocoder,
		sessions:     state.NewSessions(ttlStore, cfg.StateTTL),
		relay:        state.NewRelay(ttlStore, cfg.EphemeralTTL),
		rejects:      state.NewMarks(ttlStore, rejectMarksKey, cfg.EphemeralTTL),
		supportLimit: state.NewRateLimiter(ttlStore, supportRateKey, cfg.SupportRateLimit, cfg.SupportRateWindow),
		dispatcher:   newDispatcher(cfg.UpdateWorkers, queueBuffer, logger),
		loc:          cfg.Location(),
		now:          time.Now,
		retryPolicy:  sendRetryPolicy,
	}
	b.media = state.NewMediaGroupBuffer(cfg.MediaGroupDebounce, cfg.EphemeralTTL, b.onBroadcastAlbum)
	b.registerHandlers()
	return b
}

// Run consumes updates until ctx is done or the channel closes, then waits for the
// handlers already queued.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	b.logger.Info("Starting bot", zap.Int("workers", len(b.dispatcher.queues)))

	b.dispatcher.start(context.WithoutCancel(ctx))
	defer b.dispatcher.stop()

	go b.media.Run(ctx, janitorEvery)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Shutting down bot")
			return nil

		case update, ok := <-updates:
			if !ok {
				b.logger.Info("Update channel closed")
				return nil
			}
			b.dispatch(update)
		}
	}
}

func (b *Bot) dispatch(update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		msg := update.Message
		b.dispatcher.submit(msg.Chat.ID, func(ctx context.Context) { b.processMessage(ctx, msg) })
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		b.dispatcher.submit(callbackChatID(cb), func(ctx context.Context) { b.processCallback(ctx, cb) })
	}
}

func callbackChatID(cb *tgbotapi.CallbackQuery) int64 {
	if cb.Message != nil && cb.Message.Chat != nil {
		return cb.Message.Chat.ID
	}
	if cb.From != nil {
		return cb.From.ID
	}
	return 0
}

func sendRetryPolicy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = time.Minute
	return policy
}

func (b *Bot) isAdmin(userID int64) bool { return b.cfg.IsAdmin(userID) }
