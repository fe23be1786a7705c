package bot

import (
	"context"
	"errors"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/client/talentfit"
	"github.com/UnknownOlympus/talentfit/internal/permissions"
	"github.com/UnknownOlympus/talentfit/internal/session"
	"gopkg.in/telebot.v4"
)

const (
	keyLanguage = "lang"
	keySession  = "session"
)

// LanguageMiddleware resolves the language of the sender once per update.
func (b *Bot) LanguageMiddleware(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(ctx telebot.Context) error {
		if ctx.Sender() == nil {
			return next(ctx)
		}

		timeoutCtx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		ctx.Set(keyLanguage, b.resolveLanguage(timeoutCtx, ctx))
		return next(ctx)
	}
}

// SessionMiddleware lets the update through only for a signed-in user with a live token.
// An expired token ends the session and sends the user back to the guest menu.
func (b *Bot) SessionMiddleware(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(ctx telebot.Context) error {
		userID := ctx.Sender().ID

		timeoutCtx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		_, sess, err := b.store.Authorize(timeoutCtx, userID)
		switch {
		case err == nil:
			ctx.Set(keySession, sess)
			return next(ctx)
		case errors.Is(err, session.ErrSessionExpired):
			b.log.Info("Session expired", "user", userID)
			b.forgetUser(userID)
			return b.denied(ctx, b.t(ctx, "auth.session_expired"))
		case errors.Is(err, session.ErrNoSession):
			b.log.Info("Access denied, no session", "username", ctx.Sender().Username, "id", userID)
			return b.denied(ctx, b.t(ctx, "auth.login_required"))
		default:
			b.log.Error("Failed to authorize telegram user", "id", userID, "error", err)
			return b.replyError(ctx, err)
		}
	}
}

// RequireCapability checks the permission set of the session role. It runs after
// SessionMiddleware.
func (b *Bot) RequireCapability(capability permissions.Capability) telebot.MiddlewareFunc {
	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(ctx telebot.Context) error {
			sess, ok := sessionFrom(ctx)
			if !ok || !permissions.Permissions(sess.Role).Allows(capability) {
				b.log.Info("Capability denied", "id", ctx.Sender().ID, "capability", capability, "role", sess.Role)
				if ctx.Callback() != nil {
					b.metrics.SentMessages.WithLabelValues("respond").Inc()
					return ctx.Respond(&telebot.CallbackResponse{Text: b.t(ctx, "error.access_denied"), ShowAlert: true})
				}
				b.metrics.SentMessages.WithLabelValues("error").Inc()
				return ctx.Send(b.t(ctx, "error.access_denied"))
			}
			return next(ctx)
		}
	}
}

// denied answers a gated update with the guest menu, or an alert for button presses.
func (b *Bot) denied(ctx telebot.Context, text string) error {
	if ctx.Callback() != nil {
		_ = ctx.Respond(&telebot.CallbackResponse{Text: text, ShowAlert: true})
	}
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return b.menus.Show(ctx, b.lang(ctx), MenuGuest, permissions.Set{}, text, false)
}

// sessionFrom returns the session SessionMiddleware attached to the update.
func sessionFrom(ctx telebot.Context) (session.Session, bool) {
	sess, ok := ctx.Get(keySession).(session.Session)
	return sess, ok
}

// apiContext builds the context for backend calls made on behalf of the sender.
func (b *Bot) apiContext(ctx telebot.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), timeout)
	if sess, ok := sessionFrom(ctx); ok {
		timeoutCtx = talentfit.WithToken(timeoutCtx, sess.AccessToken)
	}
	return session.WithTelegramID(timeoutCtx, ctx.Sender().ID), cancel
}

// forgetUser drops every in-memory dialog of the user.
func (b *Bot) forgetUser(userID int64) {
	b.stateManager.Get(userID)
	b.allocations.Close(userID)
	b.screens.Reset(userID)
	b.menus.Reset(userID)
}
