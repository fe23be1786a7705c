package bot

import (
	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/UnknownOlympus/talentfit/internal/permissions"
)

// MenuType represents different menu screens in the bot.
type MenuType string

const (
	MenuGuest    MenuType = "guest"
	MenuEmployee MenuType = "employee"
	MenuManager  MenuType = "manager"
	MenuMore     MenuType = "more"
)

// Handler names of menu buttons.
const (
	handlerLogin       = "login"
	handlerHelp        = "help"
	handlerBack        = "back"
	handlerLogout      = "logout"
	handlerLanguage    = "language"
	handlerMyProfile   = "my_profile"
	handlerAssignments = "my_assignments"
	handlerEditProfile = "edit_profile"
	handlerDashboard   = "dashboard"
	handlerProjects    = "projects"
	handlerEmployees   = "employees"
	handlerNewProject  = "new_project"
	handlerExport      = "export"
)

// MenuButton represents a single reply keyboard button.
type MenuButton struct {
	TextKey  string                 // i18n key for button text
	Handler  string                 // key in Bot.handlers
	SubMenu  MenuType               // set when the button opens another menu
	Requires permissions.Capability // hidden unless the permission set allows it
}

// MenuDefinition represents a complete menu screen.
type MenuDefinition struct {
	Type     MenuType
	TitleKey string
	Buttons  []MenuButton
	Layout   []int // buttons per row, [2, 2, 1] means 2+2+1
	HasBack  bool
}

// MenuRegistry holds all menu definitions.
type MenuRegistry struct {
	menus map[MenuType]*MenuDefinition
	order []MenuType
}

// NewMenuRegistry creates the registry with every menu of the bot.
func NewMenuRegistry() *MenuRegistry {
	r := &MenuRegistry{menus: make(map[MenuType]*MenuDefinition)}

	r.register(&MenuDefinition{
		Type:     MenuGuest,
		TitleKey: "welcome.guest",
		Layout:   []int{1, 1},
		Buttons: []MenuButton{
			{TextKey: "menu.login", Handler: handlerLogin},
			{TextKey: "menu.help", Handler: handlerHelp},
		},
	})

	r.register(&MenuDefinition{
		Type:     MenuEmployee,
		TitleKey: "welcome.back",
		Layout:   []int{2, 1, 1},
		Buttons: []MenuButton{
			{TextKey: "menu.my_profile", Handler: handlerMyProfile, Requires: permissions.ViewOwnProfile},
			{TextKey: "menu.my_assignments", Handler: handlerAssignments, Requires: permissions.ViewOwnProfile},
			{TextKey: "menu.edit_profile", Handler: handlerEditProfile, Requires: permissions.EditOwnProfile},
			{TextKey: "menu.more", SubMenu: MenuMore},
		},
	})

	r.register(&MenuDefinition{
		Type:     MenuManager,
		TitleKey: "welcome.back",
		Layout:   []int{2, 2, 1, 1},
		Buttons: []MenuButton{
			{TextKey: "menu.dashboard", Handler: handlerDashboard, Requires: permissions.ViewAnalytics},
			{TextKey: "menu.projects", Handler: handlerProjects, Requires: permissions.CreateProjects},
			{TextKey: "menu.employees", Handler: handlerEmployees, Requires: permissions.ViewAllEmployees},
			{TextKey: "menu.new_project", Handler: handlerNewProject, Requires: permissions.CreateProjects},
			{TextKey: "menu.export", Handler: handlerExport, Requires: permissions.ViewAnalytics},
			{TextKey: "menu.more", SubMenu: MenuMore},
		},
	})

	r.register(&MenuDefinition{
		Type:     MenuMore,
		TitleKey: "more.title",
		Layout:   []int{2, 1},
		HasBack:  true,
		Buttons: []MenuButton{
			{TextKey: "menu.language", Handler: handlerLanguage},
			{TextKey: "menu.help", Handler: handlerHelp},
			{TextKey: "menu.logout", Handler: handlerLogout},
		},
	})

	return r
}

func (r *MenuRegistry) register(def *MenuDefinition) {
	r.menus[def.Type] = def
	r.order = append(r.order, def.Type)
}

// Get retrieves a menu definition by type.
func (r *MenuRegistry) Get(menuType MenuType) *MenuDefinition {
	return r.menus[menuType]
}

// All returns the definitions in registration order.
func (r *MenuRegistry) All() []*MenuDefinition {
	defs := make([]*MenuDefinition, 0, len(r.order))
	for _, t := range r.order {
		defs = append(defs, r.menus[t])
	}
	return defs
}

// HomeMenu picks the root menu of a signed-in user by role.
func HomeMenu(role models.Role) MenuType {
	if permissions.IsRole(models.RoleManager, role) {
		return MenuManager
	}
	return MenuEmployee
}
