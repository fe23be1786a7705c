package bot

import (
	"errors"
	"io"

	"gopkg.in/telebot.v4"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// render shows a screen. A pressed button edits its own message in place, anything
// else gets a new message.
func (b *Bot) render(ctx telebot.Context, text string, markup *telebot.ReplyMarkup) error {
	if ctx.Callback() != nil && ctx.Callback().Message != nil {
		_ = ctx.Respond()

		err := ctx.Edit(text, markup)
		if err == nil ||
			errors.Is(err, telebot.ErrSameMessageContent) ||
			errors.Is(err, telebot.ErrMessageNotModified) {
			b.metrics.SentMessages.WithLabelValues("edit").Inc()
			return nil
		}
		b.log.Warn("Failed to edit message, sending a new one", "user", ctx.Sender().ID, "error", err)
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(text, markup)
}

// notify answers a button press with a short toast, or sends text otherwise.
func (b *Bot) notify(ctx telebot.Context, text string) error {
	if ctx.Callback() != nil {
		b.metrics.SentMessages.WithLabelValues("respond").Inc()
		return ctx.Respond(&telebot.CallbackResponse{Text: text})
	}
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(text)
}

// sendWorkbook sends an xlsx file as a document.
func (b *Bot) sendWorkbook(ctx telebot.Context, file io.Reader, fileName, caption string) error {
	if ctx.Callback() != nil {
		_ = ctx.Respond()
	}

	document := &telebot.Document{
		File:     telebot.FromReader(file),
		FileName: fileName,
		MIME:     xlsxMIME,
		Caption:  caption,
	}

	b.metrics.SentMessages.WithLabelValues("file").Inc()
	return ctx.Send(document)
}
