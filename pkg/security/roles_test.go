package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleMonotonicity(t *testing.T) {
	// spec.md §8 property 4: role(u1) <= role(u2) implies permissions(u1) ⊆ permissions(u2)
	roles := []Role{RoleViewer, RoleExternalAuditor, RoleAPAnalyst, RoleAPManager, RoleFinanceDirector, RoleAdmin, RoleMaster}
	for i := range roles {
		for j := range roles {
			if roles[i].Rank() <= roles[j].Rank() {
				assert.True(t, PermissionsSubsetOf(roles[i], roles[j]),
					"%s (rank %d) permissions should be subset of %s (rank %d)", roles[i], roles[i].Rank(), roles[j], roles[j].Rank())
			}
		}
	}
}

func TestMasterHasAllPermissions(t *testing.T) {
	for _, r := range []Role{RoleViewer, RoleExternalAuditor, RoleAPAnalyst, RoleAPManager, RoleFinanceDirector, RoleAdmin} {
		assert.True(t, PermissionsSubsetOf(r, RoleMaster))
	}
}

func TestAtLeast(t *testing.T) {
	assert.True(t, RoleAPManager.AtLeast(RoleAPAnalyst))
	assert.False(t, RoleAPAnalyst.AtLeast(RoleAPManager))
	assert.True(t, RoleAdmin.AtLeast(RoleAdmin))
}
