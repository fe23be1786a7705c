package bot

import (
	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/UnknownOlympus/talentfit/internal/permissions"
	"gopkg.in/telebot.v4"
)

// helpHandler explains what the user can do, depending on whether and how they are
// signed in.
func (b *Bot) helpHandler(ctx telebot.Context) error {
	b.log.Info("User requested help", "user", ctx.Sender().ID)
	b.metrics.CommandReceived.WithLabelValues("help").Inc()

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	p := b.printer(ctx)
	text := p.T("help.guest")
	if sess, err := b.store.Restore(timeoutCtx, ctx.Sender().ID); err == nil {
		key := "help.employee"
		if permissions.IsRole(models.RoleManager, sess.Role) {
			key = "help.manager"
		}
		text = p.T(key) + formatCapabilities(p, permissions.Permissions(sess.Role).Granted())
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(text + "\n\n" + p.T("help.commands"))
}
