package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shrot-bot/internal/state"
)

const (
	broadcastWorkers = 4
	broadcastRetries = 3
)

func (b *Bot) handleBroadcastStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if b.beginFlow(ctx, chatID, state.FlowBroadcast, nil) {
		b.sendWithMarkup(chatID, msgBroadcastPrompt, cancelKeyboard())
	}
}

// handleBroadcastContent records what to broadcast. Album parts go to the media
// buffer, which calls onBroadcastAlbum once the album is complete.
func (b *Bot) handleBroadcastContent(ctx context.Context, msg *tgbotapi.Message, sess state.Session) {
	chatID := msg.Chat.ID

	if msg.MediaGroupID != "" {
		if item, ok := mediaItem(msg); ok {
			b.media.Add(chatID, msg.MediaGroupID, item, msg.Caption)
		}
		return
	}

	var draft state.BroadcastDraft
	switch {
	case len(msg.Photo) > 0:
		draft = state.BroadcastDraft{Kind: state.BroadcastPhoto, FileID: largestPhoto(msg), Caption: msg.Caption}
	case msg.Video != nil:
		draft = state.BroadcastDraft{Kind: state.BroadcastVideo, FileID: msg.Video.FileID, Caption: msg.Caption}
	case strings.TrimSpace(msg.Text) != "":
		draft = state.BroadcastDraft{Kind: state.BroadcastText, Text: msg.Text}
	default:
		b.sendWithMarkup(chatID, msgBroadcastPrompt, cancelKeyboard())
		return
	}

	sess.Broadcast = &draft
	if b.advance(ctx, chatID, sess, state.StepBroadcastConfirm) {
		b.sendWithMarkup(chatID, msgBroadcastConfirm, cancelKeyboard())
	}
}

func mediaItem(msg *tgbotapi.Message) (state.MediaItem, bool) {
	switch {
	case len(msg.Photo) > 0:
		return state.MediaItem{Kind: state.MediaPhoto, FileID: largestPhoto(msg)}, true
	case msg.Video != nil:
		return state.MediaItem{Kind: state.MediaVideo, FileID: msg.Video.FileID}, true
	default:
		return state.MediaItem{}, false
	}
}

// onBroadcastAlbum runs on the media buffer's timer. The album is handed to the chat's
// worker so it is ordered with the admin's other updates.
func (b *Bot) onBroadcastAlbum(chatID int64, batch state.MediaBatch) {
	ok := b.dispatcher.submit(chatID, func(ctx context.Context) {
		b.acceptBroadcastAlbum(ctx, chatID, batch)
	})
	if !ok {
		b.logger.Warn("Dropped broadcast album after shutdown", zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) acceptBroadcastAlbum(ctx context.Context, chatID int64, batch state.MediaBatch) {
	sess, err := b.sessions.Get(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to get user state",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return
	}
	if sess.Step != state.StepBroadcastContent {
		b.logger.Debug("Album arrived outside broadcast flow", zap.Int64("chat_id", chatID))
		return
	}

	sess.Broadcast = &state.BroadcastDraft{
		Kind:    state.BroadcastMediaGroup,
		Caption: batch.Caption,
		Items:   batch.Items,
	}
	if b.advance(ctx, chatID, sess, state.StepBroadcastConfirm) {
		b.sendWithMarkup(chatID, msgBroadcastConfirm, cancelKeyboard())
	}
}

func (b *Bot) handleBroadcastConfirm(ctx context.Context, msg *tgbotapi.Message, sess state.Session) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	switch strings.ToLower(strings.TrimSpace(msg.Text)) {
	case "ha":
	case "yo'q", "yoq", "yo‘q", "yo`q":
		b.clearSession(ctx, chatID)
		b.sendMenu(chatID, userID, msgBroadcastCanceled)
		return
	default:
		b.sendWithMarkup(chatID, msgBroadcastYesNo, cancelKeyboard())
		return
	}

	b.clearSession(ctx, chatID)
	if sess.Broadcast == nil {
		b.abortFlow(ctx, chatID, userID)
		return
	}

	recipients, err := b.storage.BroadcastRecipients(ctx)
	if err != nil {
		b.logger.Error("Failed to list broadcast recipients", zap.Error(err))
		b.sendMenu(chatID, userID, msgInternalError)
		return
	}

	sent, failed := b.broadcast(ctx, *sess.Broadcast, recipients)
	b.sendMenu(chatID, userID, fmt.Sprintf(msgBroadcastDone, sent, failed))
}

// broadcast fans the draft out to every recipient and returns the delivery tally.
func (b *Bot) broadcast(ctx context.Context, draft state.BroadcastDraft, recipients []int64) (int64, int64) {
	runID := uuid.NewString()
	logger := b.logger.With(
		zap.String("broadcast_id", runID),
		zap.String("kind", string(draft.Kind)))
	logger.Info("Broadcast started", zap.Int("recipients", len(recipients)))

	var sent, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(broadcastWorkers)
	for _, chatID := range recipients {
		g.Go(func() error {
			if err := b.deliver(gctx, chatID, draft); err != nil {
				failed.Add(1)
				logger.Debug("Broadcast delivery failed",
					zap.Int64("chat_id", chatID),
					zap.Error(err))
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("Broadcast finished",
		zap.Int64("sent", sent.Load()),
		zap.Int64("failed", failed.Load()))
	return sent.Load(), failed.Load()
}

// deliver sends the draft to one chat. Flood-control answers are retried after the
// delay Telegram asks for; any other error is final.
func (b *Bot) deliver(ctx context.Context, chatID int64, draft state.BroadcastDraft) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(b.retryPolicy(), broadcastRetries), ctx)
	return backoff.Retry(func() error {
		err := b.sendDraft(chatID, draft)
		if err == nil {
			return nil
		}
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
			if werr := wait(ctx, time.Duration(apiErr.RetryAfter)*time.Second); werr != nil {
				return backoff.Permanent(werr)
			}
			return err
		}
		return backoff.Permanent(err)
	}, policy)
}

func (b *Bot) sendDraft(chatID int64, draft state.BroadcastDraft) error {
	var err error
	switch draft.Kind {
	case state.BroadcastText:
		_, err = b.api.Send(tgbotapi.NewMessage(chatID, draft.Text))
	case state.BroadcastPhoto:
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(draft.FileID))
		photo.Caption = draft.Caption
		_, err = b.api.Send(photo)
	case state.BroadcastVideo:
		video := tgbotapi.NewVideo(chatID, tgbotapi.FileID(draft.FileID))
		video.Caption = draft.Caption
		_, err = b.api.Send(video)
	case state.BroadcastMediaGroup:
		_, err = b.api.SendMediaGroup(tgbotapi.NewMediaGroup(chatID, albumMedia(draft.Items, draft.Caption)))
	default:
		err = errors.New("unknown broadcast kind " + string(draft.Kind))
	}
	return err
}

// albumMedia builds the album with the caption on its first item.
func albumMedia(items []state.MediaItem, caption string) []interface{} {
	media := make([]interface{}, 0, len(items))
	for i, item := range items {
		text := ""
		if i == 0 {
			text = caption
		}
		switch item.Kind {
		case state.MediaVideo:
			video := tgbotapi.NewInputMediaVideo(tgbotapi.FileID(item.FileID))
			video.Caption = text
			media = append(media, video)
		default:
			photo := tgbotapi.NewInputMediaPhoto(tgbotapi.FileID(item.FileID))
			photo.Caption = text
			media = append(media, photo)
		}
	}
	return media
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
