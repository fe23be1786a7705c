package bot

import (
	"github.com/UnknownOlympus/talentfit/internal/permissions"
	"gopkg.in/telebot.v4"
)

// protect wraps a handler with the session check and the given capability checks.
func (b *Bot) protect(h telebot.HandlerFunc, capabilities ...permissions.Capability) telebot.HandlerFunc {
	for i := len(capabilities) - 1; i >= 0; i-- {
		h = b.RequireCapability(capabilities[i])(h)
	}
	return b.SessionMiddleware(h)
}

// routeTextHandler handles every plain text message: the answer of an open dialog, or a
// reply keyboard button. Pressing a menu button abandons the open dialog.
func (b *Bot) routeTextHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	lang := b.lang(ctx)

	if btn, ok := b.menus.Resolve(lang, ctx.Text()); ok {
		b.stateManager.Get(userID)
		return b.dispatchButton(ctx, btn)
	}

	if state, ok := b.stateManager.Peek(userID); ok {
		return b.dispatchState(ctx, state)
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Reply(b.t(ctx, "error.use_buttons"))
}

func (b *Bot) dispatchButton(ctx telebot.Context, btn MenuButton) error {
	if btn.SubMenu != "" {
		b.metrics.CommandReceived.WithLabelValues("menu_" + string(btn.SubMenu)).Inc()
		return b.protect(func(ctx telebot.Context) error {
			sess, _ := sessionFrom(ctx)
			b.metrics.SentMessages.WithLabelValues("text").Inc()
			return b.menus.Show(ctx, b.lang(ctx), btn.SubMenu, permissions.Permissions(sess.Role), "", true)
		})(ctx)
	}

	handler, ok := b.handlers[btn.Handler]
	if !ok {
		b.log.Error("Menu button has no handler", "handler", btn.Handler)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t(ctx, "error.internal"))
	}
	return handler(ctx)
}

func (b *Bot) dispatchState(ctx telebot.Context, state UserState) error {
	switch state.WaitingFor {
	case stateAwaitingCredential:
		return b.credentialHandler(ctx, ctx.Text())
	case stateProfileForm:
		return b.protect(b.profileAnswerHandler)(ctx)
	case stateProjectForm:
		return b.protect(b.projectAnswerHandler, permissions.CreateProjects)(ctx)
	case stateProjectReview, stateEditConfirm:
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Reply(b.t(ctx, "form.use_review_buttons"))
	case stateProjectEdit:
		return b.protect(b.projectEditValueHandler, permissions.CreateProjects)(ctx)
	case stateProjectSearch:
		return b.protect(b.projectSearchTextHandler, permissions.CreateProjects)(ctx)
	case stateAllocationStart, stateAllocationEnd:
		return b.protect(b.allocationDateHandler, permissions.AllocateResources)(ctx)
	case stateAllocationSearch:
		return b.protect(b.allocationSearchTextHandler, permissions.AllocateResources)(ctx)
	default:
		b.log.Warn("Dropping unknown dialog state", "user", ctx.Sender().ID, "state", state.WaitingFor)
		b.stateManager.Get(ctx.Sender().ID)
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Reply(b.t(ctx, "error.use_buttons"))
	}
}
