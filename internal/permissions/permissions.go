// Package permissions maps user roles to the capabilities that gate menus and actions.
package permissions

import "github.com/UnknownOlympus/talentfit/internal/models"

// Capability names one permission of the set.
type Capability string

const (
	ViewAllEmployees  Capability = "view_all_employees"
	CreateProjects    Capability = "create_projects"
	AllocateResources Capability = "allocate_resources"
	ViewAnalytics     Capability = "view_analytics"
	ManageTeam        Capability = "manage_team"
	ViewOwnProfile    Capability = "view_own_profile"
	EditOwnProfile    Capability = "edit_own_profile"
)

// Set is the derived permission set of a role. The zero value grants nothing.
type Set struct {
	CanViewAllEmployees  bool
	CanCreateProjects    bool
	CanAllocateResources bool
	CanViewAnalytics     bool
	CanManageTeam        bool
	CanViewOwnProfile    bool
	CanEditOwnProfile    bool
}

// Permissions returns the capabilities of the role. Unknown or empty roles get none.
func Permissions(role models.Role) Set {
	switch role {
	case models.RoleManager:
		return Set{
			CanViewAllEmployees:  true,
			CanCreateProjects:    true,
			CanAllocateResources: true,
			CanViewAnalytics:     true,
			CanManageTeam:        true,
			CanViewOwnProfile:    true,
			CanEditOwnProfile:    true,
		}
	case models.RoleEmployee:
		return Set{
			CanViewOwnProfile: true,
			CanEditOwnProfile: true,
		}
	default:
		return Set{}
	}
}

// IsRole compares roles by strict equality.
func IsRole(candidate, current models.Role) bool {
	return candidate == current
}

// Allows reports whether the set grants the capability.
func (s Set) Allows(c Capability) bool {
	switch c {
	case ViewAllEmployees:
		return s.CanViewAllEmployees
	case CreateProjects:
		return s.CanCreateProjects
	case AllocateResources:
		return s.CanAllocateResources
	case ViewAnalytics:
		return s.CanViewAnalytics
	case ManageTeam:
		return s.CanManageTeam
	case ViewOwnProfile:
		return s.CanViewOwnProfile
	case EditOwnProfile:
		return s.CanEditOwnProfile
	default:
		return false
	}
}

// Granted lists the capabilities in the set in a stable order.
func (s Set) Granted() []Capability {
	all := []Capability{
		ViewAllEmployees, CreateProjects, AllocateResources, ViewAnalytics,
		ManageTeam, ViewOwnProfile, EditOwnProfile,
	}
	granted := make([]Capability, 0, len(all))
	for _, c := range all {
		if s.Allows(c) {
			granted = append(granted, c)
		}
	}
	return granted
}
