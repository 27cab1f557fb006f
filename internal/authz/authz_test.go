package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowed_ExactKey(t *testing.T) {
	actor := Actor{Permissions: []string{"SITES_VIEW", "CONTENT_VIEW"}}

	assert.True(t, Allowed(actor, ModuleSites, CapabilityView))
	assert.True(t, Allowed(actor, ModuleContent, CapabilityView))
	assert.False(t, Allowed(actor, ModuleSites, CapabilityCreate))
	assert.False(t, Allowed(actor, ModuleBilling, CapabilityView))
}

func TestAllowed_EditRequiresView(t *testing.T) {
	// EDIT without VIEW on the same module grants neither.
	actor := Actor{Permissions: []string{"SITES_EDIT", "CONTENT_DELETE"}}

	assert.False(t, Allowed(actor, ModuleSites, CapabilityEdit))
	assert.False(t, Allowed(actor, ModuleContent, CapabilityDelete))

	actor.Permissions = append(actor.Permissions, "SITES_VIEW", "CONTENT_VIEW")
	assert.True(t, Allowed(actor, ModuleSites, CapabilityEdit))
	assert.True(t, Allowed(actor, ModuleContent, CapabilityDelete))
}

func TestAllowed_CreateDoesNotRequireView(t *testing.T) {
	actor := Actor{Permissions: []string{"SITES_CREATE"}}
	assert.True(t, Allowed(actor, ModuleSites, CapabilityCreate))
}

func TestAllowed_OwnerBypass(t *testing.T) {
	owner := Actor{IsOwner: true}
	for _, m := range Modules() {
		assert.True(t, Allowed(owner, m, CapabilityView), "owner must see %s", m)
		assert.True(t, Allowed(owner, m, CapabilityDelete), "owner must manage %s", m)
	}
}

func TestAllowed_SuperAdminBypass(t *testing.T) {
	admin := Actor{IsSuperAdmin: true}
	assert.True(t, Allowed(admin, ModuleBilling, CapabilityEdit))
	assert.True(t, Allowed(admin, ModuleRoles, CapabilityDelete))
}

func TestVisibleModules(t *testing.T) {
	actor := Actor{Permissions: []string{"DASHBOARD_VIEW", "SITES_VIEW", "SITES_EDIT"}}

	visible := VisibleModules(actor)
	assert.Equal(t, []Module{ModuleDashboard, ModuleSites}, visible)
}

func TestVisiblePaths(t *testing.T) {
	actor := Actor{Permissions: []string{"SITES_VIEW", "ASSISTANT_VIEW"}}

	paths := VisiblePaths(actor)
	assert.Equal(t, []string{"/assistant", "/sites"}, paths)
}

func TestVisibleTabs(t *testing.T) {
	actor := Actor{Permissions: []string{"MEMBERS_VIEW", "BILLING_VIEW"}}

	tabs := VisibleTabs(actor)
	assert.Equal(t, []string{"billing", "members"}, tabs)

	owner := Actor{IsOwner: true}
	assert.Equal(t, []string{"billing", "general", "members", "roles"}, VisibleTabs(owner))
}

func TestKeyAndValidKey(t *testing.T) {
	assert.Equal(t, "SITES_EDIT", Key(ModuleSites, CapabilityEdit))
	assert.True(t, ValidKey("SITES_EDIT"))
	assert.True(t, ValidKey("ASSISTANT_RUN"))
	assert.False(t, ValidKey("DASHBOARD_DELETE"), "dashboard only supports VIEW")
	assert.False(t, ValidKey("sites_edit"), "keys are case sensitive")
	assert.False(t, ValidKey("SITES"))
}

func TestAllKeys_SortedAndComplete(t *testing.T) {
	keys := AllKeys()

	assert.Contains(t, keys, "DASHBOARD_VIEW")
	assert.Contains(t, keys, "MEMBERS_INVITE")
	assert.Contains(t, keys, "CONTENT_PUBLISH")

	for i := 1; i < len(keys); i++ {
		assert.LessOrEqual(t, keys[i-1], keys[i], "keys must be sorted")
	}

	for _, k := range keys {
		assert.True(t, ValidKey(k))
	}
}
