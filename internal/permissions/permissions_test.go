package permissions_test

import (
	"testing"

	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/UnknownOlympus/talentfit/internal/permissions"
	"github.com/stretchr/testify/assert"
)

func TestPermissions(t *testing.T) {
	t.Parallel()

	t.Run("manager gets everything", func(t *testing.T) {
		t.Parallel()
		set := permissions.Permissions(models.RoleManager)
		assert.Len(t, set.Granted(), 7)
	})

	t.Run("employee gets own profile only", func(t *testing.T) {
		t.Parallel()
		set := permissions.Permissions(models.RoleEmployee)
		assert.Equal(t, []permissions.Capability{permissions.ViewOwnProfile, permissions.EditOwnProfile}, set.Granted())
		assert.False(t, set.Allows(permissions.AllocateResources))
		assert.True(t, set.Allows(permissions.EditOwnProfile))
	})

	t.Run("unknown role fails closed", func(t *testing.T) {
		t.Parallel()
		for _, role := range []models.Role{"", "manager", "Admin"} {
			assert.Equal(t, permissions.Set{}, permissions.Permissions(role), "role %q", role)
		}
	})

	t.Run("pure", func(t *testing.T) {
		t.Parallel()
		for _, role := range []models.Role{models.RoleEmployee, models.RoleManager, "unknown"} {
			assert.Equal(t, permissions.Permissions(role), permissions.Permissions(role))
		}
	})

	t.Run("unknown capability is denied", func(t *testing.T) {
		t.Parallel()
		assert.False(t, permissions.Permissions(models.RoleManager).Allows("delete_everything"))
	})
}

func TestIsRole(t *testing.T) {
	t.Parallel()

	assert.True(t, permissions.IsRole(models.RoleManager, models.RoleManager))
	assert.False(t, permissions.IsRole(models.RoleManager, models.RoleEmployee))
	assert.False(t, permissions.IsRole("manager", models.RoleManager))
}
