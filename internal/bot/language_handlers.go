package bot

import (
	"errors"
	"slices"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/i18n"
	"github.com/UnknownOlympus/talentfit/internal/permissions"
	"github.com/UnknownOlympus/talentfit/internal/repository"
	"gopkg.in/telebot.v4"
)

// languageHandler presents the user with a menu to choose their preferred language.
func (b *Bot) languageHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("language").Inc()
	p := b.printer(ctx)

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(p.T("language.select"), languageKeyboard(p))
}

// languageChangeHandler saves the picked language and shows the menu again in it.
func (b *Bot) languageChangeHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	langCode := ctx.Data()

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	if !slices.Contains(i18n.SupportedLanguages, langCode) {
		b.log.Error("Unknown language callback", "data", langCode, "user", userID)
		b.metrics.SentMessages.WithLabelValues("respond").Inc()
		return ctx.Respond(&telebot.CallbackResponse{Text: b.t(ctx, "error.internal")})
	}

	startTime := time.Now()
	err := b.repo.SetUserLanguage(timeoutCtx, userID, langCode)
	b.metrics.DBQueryDuration.WithLabelValues("set_user_language").Observe(time.Since(startTime).Seconds())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			b.log.WarnContext(timeoutCtx, "Language change for unlinked user", "user", userID)
		} else {
			b.log.ErrorContext(timeoutCtx, "Failed to set user language", "error", err, "user", userID)
		}
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Respond(&telebot.CallbackResponse{Text: b.t(ctx, "error.internal")})
	}

	b.log.InfoContext(timeoutCtx, "User changed language", "user", userID, "language", langCode)
	ctx.Set(keyLanguage, langCode)

	b.metrics.SentMessages.WithLabelValues("respond").Inc()
	_ = ctx.Respond(&telebot.CallbackResponse{Text: "✅"})

	sess, _ := sessionFrom(ctx)
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return b.menus.Show(
		ctx, langCode, HomeMenu(sess.Role), permissions.Permissions(sess.Role), b.t(ctx, "language.changed"), true,
	)
}
