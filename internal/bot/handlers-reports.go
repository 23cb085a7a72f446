package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shrot-bot/internal/report"
	"shrot-bot/internal/state"
)

func (b *Bot) handleReportsStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !b.beginFlow(ctx, chatID, state.FlowReport, nil) {
		return
	}
	b.sendWithMarkup(chatID, msgReportPeriod, reportPeriodKeyboard(b.now().In(b.loc)))
	b.sendWithMarkup(chatID, msgReportTypeStart, cancelKeyboard())
}

func (b *Bot) handleReportStart(ctx context.Context, msg *tgbotapi.Message, sess state.Session) {
	chatID := msg.Chat.ID
	start, err := report.ParseDate(msg.Text)
	if err != nil {
		b.sendWithMarkup(chatID, msgReportDateBad, cancelKeyboard())
		return
	}

	sess.Report = &state.ReportDraft{Start: start.Format(time.DateOnly)}
	if b.advance(ctx, chatID, sess, state.StepReportEnd) {
		b.sendWithMarkup(chatID, msgReportEnd, cancelKeyboard())
	}
}

func (b *Bot) handleReportEnd(ctx context.Context, msg *tgbotapi.Message, sess state.Session) {
	chatID := msg.Chat.ID
	if sess.Report == nil {
		b.abortFlow(ctx, chatID, msg.From.ID)
		return
	}

	end, err := report.ParseDate(msg.Text)
	if err != nil {
		b.sendWithMarkup(chatID, msgReportDateBad, cancelKeyboard())
		return
	}
	start, err := report.ParseDate(sess.Report.Start)
	if err != nil {
		b.abortFlow(ctx, chatID, msg.From.ID)
		return
	}

	period, err := report.NewPeriod(start, end)
	if errors.Is(err, report.ErrEndBeforeStart) {
		b.sendWithMarkup(chatID, msgReportEndBefore, cancelKeyboard())
		return
	}

	b.clearSession(ctx, chatID)
	b.sendReport(ctx, chatID, msg.From.ID, period)
}

// handleReportPeriod serves the quick period buttons. They work from any step.
func (b *Bot) handleReportPeriod(ctx context.Context, cb *tgbotapi.CallbackQuery, args []string) {
	if !b.cfg.CanViewReports(cb.From.ID) || len(args) == 0 {
		b.answer(cb, "")
		return
	}

	period, err := report.QuickPeriod(args[0]).Resolve(b.now().In(b.loc))
	if err != nil {
		b.answerAlert(cb, ansUnknownPeriod)
		return
	}

	chatID := callbackChatID(cb)
	b.resetFlow(ctx, chatID)
	b.answer(cb, "")
	b.sendReport(ctx, chatID, cb.From.ID, period)
}

// sendReport posts the summary followed by the HTML page and the workbook. The
// loading notice is removed whatever the outcome.
func (b *Bot) sendReport(ctx context.Context, chatID, userID int64, period report.Period) {
	loading, ok := b.sendMessage(tgbotapi.NewMessage(chatID, msgReportLoading))
	if ok {
		defer b.deleteMessage(chatID, loading.MessageID)
	}

	if err := b.deliverReport(ctx, chatID, userID, period); err != nil {
		b.logger.Error("Failed to build report",
			zap.Int64("chat_id", chatID),
			zap.String("period", period.Label()),
			zap.Error(err))
		b.sendMenu(chatID, userID, msgReportFailed)
	}
}

func (b *Bot) deliverReport(ctx context.Context, chatID, userID int64, period report.Period) error {
	orders, err := b.storage.ClosedOrdersBetween(ctx, period.Start, period.End)
	if err != nil {
		return err
	}
	r := report.Build(period, orders)

	page, err := r.HTML()
	if err != nil {
		return err
	}
	workbook, err := r.XLSX()
	if err != nil {
		return err
	}

	b.sendMenu(chatID, userID, r.Summary(report.SummaryLimit))

	name := reportFileName(period)
	caption := fmt.Sprintf(msgReportReady, period.Label())
	for _, file := range []tgbotapi.FileBytes{
		{Name: name + ".html", Bytes: page},
		{Name: name + ".xlsx", Bytes: workbook},
	} {
		doc := tgbotapi.NewDocument(chatID, file)
		doc.Caption = caption
		if _, err := b.api.Send(doc); err != nil {
			return fmt.Errorf("failed to send %s: %w", file.Name, err)
		}
	}

	b.logger.Info("Report sent",
		zap.Int64("chat_id", chatID),
		zap.String("period", period.Label()),
		zap.Int("orders", len(orders)))
	return nil
}

func reportFileName(period report.Period) string {
	return fmt.Sprintf("hisobot_%s_%s_%s",
		period.Start.Format(time.DateOnly),
		period.End.Format(time.DateOnly),
		uuid.NewString()[:8])
}
