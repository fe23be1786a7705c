package bot

import (
	"errors"

	"github.com/UnknownOlympus/talentfit/internal/client/talentfit"
	"gopkg.in/telebot.v4"
)

// onError is the last resort for errors the handlers returned.
func (b *Bot) onError(err error, ctx telebot.Context) {
	if ctx == nil || ctx.Sender() == nil {
		b.log.Error("Telegram bot error", "error", err)
		return
	}

	b.log.Error("Failed to handle update", "user", ctx.Sender().ID, "error", err)
	b.metrics.SentMessages.WithLabelValues("error").Inc()
	if sendErr := ctx.Send(b.t(ctx, "error.internal")); sendErr != nil {
		b.log.Warn("Failed to send error notice", "user", ctx.Sender().ID, "error", sendErr)
	}
}

// errorKey maps a backend failure to the notice shown to the user. It returns an empty
// key for failures with no dedicated notice.
func errorKey(err error) string {
	switch {
	case errors.Is(err, talentfit.ErrNetwork):
		return "error.network"
	case errors.Is(err, talentfit.ErrUnauthorized):
		return "auth.session_expired"
	case errors.Is(err, talentfit.ErrForbidden):
		return "error.access_denied"
	case errors.Is(err, talentfit.ErrNotFound):
		return "error.not_found"
	case errors.Is(err, talentfit.ErrServer):
		return "error.server"
	default:
		return ""
	}
}

// errorText returns the localized notice for err. Validation failures reported by the
// backend keep the backend message.
func (b *Bot) errorText(ctx telebot.Context, err error) string {
	if key := errorKey(err); key != "" {
		return b.t(ctx, key)
	}
	if errors.Is(err, talentfit.ErrBadRequest) {
		return escape(talentfit.UserMessage(err))
	}
	return b.t(ctx, "error.internal")
}

// replyError tells the user a request failed. A token the backend rejected ends the
// session: the user is sent back to the guest menu.
func (b *Bot) replyError(ctx telebot.Context, err error) error {
	if errors.Is(err, talentfit.ErrUnauthorized) {
		userID := ctx.Sender().ID
		timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
		defer cancel()

		b.store.Logout(timeoutCtx, userID)
		b.forgetUser(userID)
		return b.denied(ctx, b.t(ctx, "auth.session_expired"))
	}

	text := b.errorText(ctx, err)
	if ctx.Callback() != nil {
		b.metrics.SentMessages.WithLabelValues("respond").Inc()
		return ctx.Respond(&telebot.CallbackResponse{Text: text, ShowAlert: true})
	}
	b.metrics.SentMessages.WithLabelValues("error").Inc()
	return ctx.Send(text)
}
