package bot

import (
	"log/slog"
	"testing"

	"github.com/UnknownOlympus/talentfit/internal/i18n"
	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/UnknownOlympus/talentfit/internal/permissions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v4"
)

func newTestMenus(t *testing.T) *MenuBuilder {
	t.Helper()

	localizer, err := i18n.NewLocalizer()
	require.NoError(t, err)
	return NewMenuBuilder(localizer, slog.New(slog.DiscardHandler))
}

func keyboardTexts(markup *telebot.ReplyMarkup) [][]string {
	rows := make([][]string, 0, len(markup.ReplyKeyboard))
	for _, row := range markup.ReplyKeyboard {
		texts := make([]string, 0, len(row))
		for _, btn := range row {
			texts = append(texts, btn.Text)
		}
		rows = append(rows, texts)
	}
	return rows
}

func TestMenuBuilder_BuildManager(t *testing.T) {
	t.Parallel()

	mb := newTestMenus(t)
	markup := mb.Build("en", MenuManager, permissions.Permissions(models.RoleManager))

	assert.True(t, markup.ResizeKeyboard)
	assert.Equal(t, [][]string{
		{"📊 Dashboard", "📁 Projects"},
		{"👥 Employees", "🆕 New project"},
		{"📥 Export"},
		{"➕ More"},
	}, keyboardTexts(markup))
}

func TestMenuBuilder_HidesButtonsWithoutCapability(t *testing.T) {
	t.Parallel()

	mb := newTestMenus(t)

	markup := mb.Build("en", MenuManager, permissions.Permissions(models.RoleEmployee))
	assert.Equal(t, [][]string{{"➕ More"}}, keyboardTexts(markup))

	markup = mb.Build("en", MenuEmployee, permissions.Set{})
	assert.Equal(t, [][]string{{"➕ More"}}, keyboardTexts(markup))
}

func TestMenuBuilder_BuildMoreHasBack(t *testing.T) {
	t.Parallel()

	mb := newTestMenus(t)
	markup := mb.Build("uk", MenuMore, permissions.Permissions(models.RoleEmployee))

	assert.Equal(t, [][]string{
		{"🌐 Мова", "❓ Допомога"},
		{"🚪 Вийти"},
		{"⬅️ Назад"},
	}, keyboardTexts(markup))
}

func TestMenuBuilder_Resolve(t *testing.T) {
	t.Parallel()

	mb := newTestMenus(t)

	btn, ok := mb.Resolve("en", "📁 Projects")
	require.True(t, ok)
	assert.Equal(t, handlerProjects, btn.Handler)
	assert.Equal(t, permissions.CreateProjects, btn.Requires)

	// a keyboard sent before switching to English still works
	btn, ok = mb.Resolve("en", "📁 Проєкти")
	require.True(t, ok)
	assert.Equal(t, handlerProjects, btn.Handler)

	btn, ok = mb.Resolve("uk", "⬅️ Назад")
	require.True(t, ok)
	assert.Equal(t, handlerBack, btn.Handler)

	btn, ok = mb.Resolve("en", "➕ More")
	require.True(t, ok)
	assert.Equal(t, MenuMore, btn.SubMenu)

	_, ok = mb.Resolve("en", "hello")
	assert.False(t, ok)
}

func TestMenuBuilder_Back(t *testing.T) {
	t.Parallel()

	mb := newTestMenus(t)
	mb.navStack.Push(1, MenuManager)
	mb.navStack.Push(1, MenuMore)

	assert.Equal(t, MenuManager, mb.Back(1, MenuManager))
	assert.Equal(t, MenuEmployee, mb.Back(1, MenuEmployee))
	assert.Equal(t, 1, mb.navStack.Depth(1))

	mb.Reset(1)
	assert.Equal(t, 0, mb.navStack.Depth(1))
}

func TestHomeMenu(t *testing.T) {
	t.Parallel()

	assert.Equal(t, MenuManager, HomeMenu(models.RoleManager))
	assert.Equal(t, MenuEmployee, HomeMenu(models.RoleEmployee))
	assert.Equal(t, MenuEmployee, HomeMenu(""))
}
