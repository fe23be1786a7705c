package bot

import (
	"errors"
	"strings"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/client/talentfit"
	"github.com/UnknownOlympus/talentfit/internal/permissions"
	"github.com/UnknownOlympus/talentfit/internal/session"
	"gopkg.in/telebot.v4"
)

// startHandler process command /start. A signed-in user lands on the role menu, anyone
// else is asked to sign in.
func (b *Bot) startHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.log.Info("User started the bot", "id", userID, "username", ctx.Sender().Username)
	b.metrics.CommandReceived.WithLabelValues("start").Inc()

	b.stateManager.Get(userID)

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	sess, err := b.store.Restore(timeoutCtx, userID)
	switch {
	case err == nil:
		return b.showSignedIn(ctx, sess)
	case errors.Is(err, session.ErrSessionExpired):
		b.forgetUser(userID)
		return b.showGuest(ctx, b.t(ctx, "auth.session_expired"))
	case errors.Is(err, session.ErrNoSession):
		return b.showGuest(ctx, "")
	default:
		b.log.Error("Failed to restore session", "user", userID, "error", err)
		return b.replyError(ctx, err)
	}
}

// loginHandler starts the sign-in dialog. The credential may follow the command
// directly, as in /login <token>.
func (b *Bot) loginHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.metrics.CommandReceived.WithLabelValues("login").Inc()

	if ctx.Message() != nil {
		if credential := strings.TrimSpace(ctx.Message().Payload); credential != "" {
			return b.credentialHandler(ctx, credential)
		}
	}

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	if sess, err := b.store.Restore(timeoutCtx, userID); err == nil {
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		_ = ctx.Send(b.t(ctx, "auth.already_signed_in"))
		return b.showSignedIn(ctx, sess)
	}

	b.stateManager.Set(userID, UserState{WaitingFor: stateAwaitingCredential})
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.t(ctx, "auth.enter_credential"))
}

// credentialHandler exchanges the Google credential for a backend session. The message
// carrying the credential is removed from the chat.
func (b *Bot) credentialHandler(ctx telebot.Context, credential string) error {
	userID := ctx.Sender().ID
	log := b.log.With("op", "Bot.credentialHandler", "user", userID)

	if err := ctx.Delete(); err != nil {
		log.Debug("Failed to delete credential message", "error", err)
	}

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	sess, err := b.store.Login(timeoutCtx, userID, strings.TrimSpace(credential))
	if err != nil {
		log.Info("Sign-in failed", "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		if errors.Is(err, talentfit.ErrUnauthorized) || errors.Is(err, talentfit.ErrBadRequest) {
			b.stateManager.Set(userID, UserState{WaitingFor: stateAwaitingCredential})
			return ctx.Send(b.t(ctx, "auth.login_failed"))
		}
		return ctx.Send(b.errorText(ctx, err))
	}
	b.stateManager.Get(userID)

	startTime := time.Now()
	err = b.repo.UpsertBotUser(timeoutCtx, userID, sess.UserID, sess.Role)
	b.metrics.DBQueryDuration.WithLabelValues("upsert_bot_user").Observe(time.Since(startTime).Seconds())
	if err != nil {
		// the session works without the link, only pushed notifications are lost
		log.Error("Failed to link telegram account", "backend_user", sess.UserID, "error", err)
	}

	log.Info("User successfully authenticated", "backend_user", sess.UserID, "role", sess.Role)
	return b.showSignedIn(ctx, sess)
}

// retryProfileHandler repeats the profile lookup that failed during sign-in.
func (b *Bot) retryProfileHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	_ = ctx.Respond()

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	sess, err := b.store.RetryProfile(timeoutCtx, userID)
	switch {
	case err == nil:
		return b.showSignedIn(ctx, sess)
	case errors.Is(err, session.ErrNoSession):
		return b.showGuest(ctx, b.t(ctx, "auth.login_required"))
	case errors.Is(err, session.ErrSessionExpired), errors.Is(err, talentfit.ErrUnauthorized):
		b.forgetUser(userID)
		return b.showGuest(ctx, b.t(ctx, "auth.session_expired"))
	default:
		b.log.Error("Failed to retry profile lookup", "user", userID, "error", err)
		return b.replyError(ctx, err)
	}
}

// showSignedIn routes a fresh session by its profile status.
func (b *Bot) showSignedIn(ctx telebot.Context, sess session.Session) error {
	p := b.printer(ctx)
	greeting := p.F("welcome.back_name", map[string]any{"name": escape(sess.Name)})

	switch sess.ProfileStatus {
	case session.ProfileExists, session.ProfileNeedsCreation:
		return b.showHome(ctx, sess, greeting)
	default:
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send(p.T("auth.profile_error"), retryProfileKeyboard(p))
	}
}

// showHome resets navigation and shows the role menu. A user without an employee profile
// gets the profile creation dialog instead of a menu.
func (b *Bot) showHome(ctx telebot.Context, sess session.Session, text string) error {
	b.menus.Reset(ctx.Sender().ID)
	if sess.ProfileStatus == session.ProfileNeedsCreation {
		return b.startProfileCreation(ctx, text)
	}
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return b.menus.Show(ctx, b.lang(ctx), HomeMenu(sess.Role), permissions.Permissions(sess.Role), text, true)
}

// startProfileCreation hides the menu keyboard and opens the profile creation dialog.
func (b *Bot) startProfileCreation(ctx telebot.Context, greeting string) error {
	text := b.t(ctx, "profile.needs_creation")
	if greeting != "" {
		text = greeting + "\n\n" + text
	}
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	if err := ctx.Send(text, &telebot.ReplyMarkup{RemoveKeyboard: true}); err != nil {
		return err
	}
	return b.profileCreateHandler(ctx)
}

// showGuest shows the sign-in menu.
func (b *Bot) showGuest(ctx telebot.Context, text string) error {
	b.menus.Reset(ctx.Sender().ID)
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return b.menus.Show(ctx, b.lang(ctx), MenuGuest, permissions.Set{}, text, false)
}

// homeHandler process command /menu.
func (b *Bot) homeHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("menu").Inc()
	sess, _ := sessionFrom(ctx)
	return b.showHome(ctx, sess, "")
}

// backHandler returns to the previous menu.
func (b *Bot) backHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.metrics.CommandReceived.WithLabelValues("back").Inc()

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	sess, err := b.store.Restore(timeoutCtx, userID)
	if err != nil {
		return b.showGuest(ctx, "")
	}

	previous := b.menus.Back(userID, HomeMenu(sess.Role))
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return b.menus.Show(ctx, b.lang(ctx), previous, permissions.Permissions(sess.Role), "", false)
}

// logoutHandler ends the session everywhere: the backend token, the session keys, the
// account link and every open dialog.
func (b *Bot) logoutHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.metrics.CommandReceived.WithLabelValues("logout").Inc()

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	b.store.Logout(timeoutCtx, userID)
	b.forgetUser(userID)

	startTime := time.Now()
	err := b.repo.DeleteBotUser(timeoutCtx, userID)
	b.metrics.DBQueryDuration.WithLabelValues("delete_bot_user").Observe(time.Since(startTime).Seconds())
	if err != nil {
		b.log.Error("Failed to unlink telegram account", "user", userID, "error", err)
	}

	b.log.Info("User logged out", "user", userID)
	return b.showGuest(ctx, b.t(ctx, "auth.logged_out"))
}

// cancelHandler process command /cancel and drops the open dialog.
func (b *Bot) cancelHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("cancel").Inc()
	b.metrics.SentMessages.WithLabelValues("text").Inc()

	if _, ok := b.stateManager.Get(ctx.Sender().ID); !ok {
		return ctx.Send(b.t(ctx, "dialog.nothing_to_cancel"))
	}
	return ctx.Send(b.t(ctx, "dialog.cancelled"))
}
