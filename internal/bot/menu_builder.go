package bot

import (
	"log/slog"

	"github.com/UnknownOlympus/talentfit/internal/i18n"
	"github.com/UnknownOlympus/talentfit/internal/permissions"
	"gopkg.in/telebot.v4"
)

const backKey = "menu.back"

// MenuBuilder renders reply keyboards from the registry and tracks where each user is.
type MenuBuilder struct {
	registry  *MenuRegistry
	navStack  *NavigationStack
	localizer *i18n.Localizer
	log       *slog.Logger
}

// NewMenuBuilder creates a new menu builder instance.
func NewMenuBuilder(localizer *i18n.Localizer, log *slog.Logger) *MenuBuilder {
	return &MenuBuilder{
		registry:  NewMenuRegistry(),
		navStack:  NewNavigationStack(MenuGuest),
		localizer: localizer,
		log:       log,
	}
}

// Build generates the reply keyboard of a menu, keeping only the buttons perms allows.
func (mb *MenuBuilder) Build(lang string, menuType MenuType, perms permissions.Set) *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{ResizeKeyboard: true}

	def := mb.registry.Get(menuType)
	if def == nil {
		mb.log.Error("Menu definition not found", "menuType", menuType)
		menu.Reply(menu.Row(menu.Text(mb.localizer.Get(lang, backKey))))
		return menu
	}

	rows := mb.buildRows(lang, menu, visibleButtons(def.Buttons, perms), def.Layout)
	if def.HasBack {
		rows = append(rows, menu.Row(menu.Text(mb.localizer.Get(lang, backKey))))
	}

	menu.Reply(rows...)
	return menu
}

// visibleButtons drops the buttons whose capability the set does not grant.
func visibleButtons(buttons []MenuButton, perms permissions.Set) []MenuButton {
	visible := make([]MenuButton, 0, len(buttons))
	for _, btn := range buttons {
		if btn.Requires != "" && !perms.Allows(btn.Requires) {
			continue
		}
		visible = append(visible, btn)
	}
	return visible
}

// buildRows lays the buttons out by layout; leftovers get a row each.
func (mb *MenuBuilder) buildRows(
	lang string,
	menu *telebot.ReplyMarkup,
	buttons []MenuButton,
	layout []int,
) []telebot.Row {
	rows := make([]telebot.Row, 0, len(layout))
	idx := 0

	for _, size := range layout {
		if idx >= len(buttons) {
			break
		}
		row := make([]telebot.Btn, 0, size)
		for ; len(row) < size && idx < len(buttons); idx++ {
			row = append(row, menu.Text(mb.localizer.Get(lang, buttons[idx].TextKey)))
		}
		rows = append(rows, menu.Row(row...))
	}

	for ; idx < len(buttons); idx++ {
		rows = append(rows, menu.Row(menu.Text(mb.localizer.Get(lang, buttons[idx].TextKey))))
	}
	return rows
}

// Show sends a menu. An empty text falls back to the menu title. When track is false
// the menu is not pushed onto the navigation history.
func (mb *MenuBuilder) Show(
	c telebot.Context,
	lang string,
	menuType MenuType,
	perms permissions.Set,
	text string,
	track bool,
) error {
	if track {
		mb.navStack.Push(c.Sender().ID, menuType)
	}

	if text == "" {
		if def := mb.registry.Get(menuType); def != nil && def.TitleKey != "" {
			text = mb.localizer.Get(lang, def.TitleKey)
		}
	}

	return c.Send(text, mb.Build(lang, menuType, perms))
}

// Back pops the current menu and returns the one to show, home when history is empty.
func (mb *MenuBuilder) Back(userID int64, home MenuType) MenuType {
	mb.navStack.Pop(userID)
	if mb.navStack.Depth(userID) == 0 {
		mb.navStack.Push(userID, home)
		return home
	}
	return mb.navStack.Current(userID)
}

// Reset forgets the navigation history of a user.
func (mb *MenuBuilder) Reset(userID int64) {
	mb.navStack.Reset(userID)
}

// Resolve maps the text of a pressed reply button back to its definition. Texts of
// every supported language are accepted so a keyboard sent before a language switch
// keeps working.
func (mb *MenuBuilder) Resolve(lang, text string) (MenuButton, bool) {
	languages := []string{lang}
	for _, other := range i18n.SupportedLanguages {
		if other != lang {
			languages = append(languages, other)
		}
	}

	for _, checkLang := range languages {
		if text == mb.localizer.Get(checkLang, backKey) {
			return MenuButton{TextKey: backKey, Handler: handlerBack}, true
		}
		for _, def := range mb.registry.All() {
			for _, btn := range def.Buttons {
				if text == mb.localizer.Get(checkLang, btn.TextKey) {
					return btn, true
				}
			}
		}
	}
	return MenuButton{}, false
}
