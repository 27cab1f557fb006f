// Package authz implements the authorization engine: a pure function of
// (membership, module, capability). It is evaluated on every request so role
// edits take effect immediately; decisions are never cached.
package authz

import "sort"

// Actor is the authorization-relevant projection of a caller within one
// account.
type Actor struct {
	IsSuperAdmin bool
	IsOwner      bool
	Permissions  []string
}

// Allowed decides whether the actor may exercise capability on module. An
// account owner or a platform super-admin is authorized unconditionally.
// Otherwise the actor's permission set must contain the exact key. EDIT and
// DELETE additionally require VIEW on the same module, so a role granted
// write access without read access grants neither.
func Allowed(actor Actor, m Module, c Capability) bool {
	if actor.IsSuperAdmin || actor.IsOwner {
		return true
	}

	if !hasKey(actor.Permissions, Key(m, c)) {
		return false
	}

	if c == CapabilityEdit || c == CapabilityDelete {
		return hasKey(actor.Permissions, Key(m, CapabilityView))
	}

	return true
}

// VisibleModules returns the modules the actor may VIEW, sorted.
func VisibleModules(actor Actor) []Module {
	var visible []Module
	for _, m := range Modules() {
		if Allowed(actor, m, CapabilityView) {
			visible = append(visible, m)
		}
	}
	return visible
}

// VisiblePaths returns the navigation paths whose module the actor may VIEW,
// sorted.
func VisiblePaths(actor Actor) []string {
	var paths []string
	for path, m := range NavigationModules {
		if Allowed(actor, m, CapabilityView) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

// VisibleTabs returns the settings tabs whose module the actor may VIEW,
// sorted.
func VisibleTabs(actor Actor) []string {
	var tabs []string
	for tab, m := range SettingsTabs {
		if Allowed(actor, m, CapabilityView) {
			tabs = append(tabs, tab)
		}
	}
	sort.Strings(tabs)
	return tabs
}

func hasKey(permissions []string, key string) bool {
	for _, p := range permissions {
		if p == key {
			return true
		}
	}
	return false
}
