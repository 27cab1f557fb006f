package authz

import "sort"

// Module is a feature area of the control panel.
type Module string

const (
	ModuleDashboard    Module = "DASHBOARD"
	ModuleSites        Module = "SITES"
	ModuleContent      Module = "CONTENT"
	ModuleTranslations Module = "TRANSLATIONS"
	ModuleMembers      Module = "MEMBERS"
	ModuleRoles        Module = "ROLES"
	ModuleBilling      Module = "BILLING"
	ModuleSettings     Module = "SETTINGS"
	ModuleAssistant    Module = "ASSISTANT"
)

// Capability is an action class within a module.
type Capability string

const (
	CapabilityView    Capability = "VIEW"
	CapabilityCreate  Capability = "CREATE"
	CapabilityEdit    Capability = "EDIT"
	CapabilityDelete  Capability = "DELETE"
	CapabilityPublish Capability = "PUBLISH"
	CapabilityRun     Capability = "RUN"
	CapabilityInvite  Capability = "INVITE"
)

// moduleCapabilities is the static permission catalog: every valid
// MODULE_CAPABILITY key derives from it. It is consumed by role validation and
// by the engine; it is never derived from requests.
var moduleCapabilities = map[Module][]Capability{
	ModuleDashboard:    {CapabilityView},
	ModuleSites:        {CapabilityView, CapabilityCreate, CapabilityEdit, CapabilityDelete, CapabilityPublish},
	ModuleContent:      {CapabilityView, CapabilityCreate, CapabilityEdit, CapabilityDelete, CapabilityPublish},
	ModuleTranslations: {CapabilityView, CapabilityCreate, CapabilityEdit, CapabilityDelete},
	ModuleMembers:      {CapabilityView, CapabilityCreate, CapabilityEdit, CapabilityDelete, CapabilityInvite},
	ModuleRoles:        {CapabilityView, CapabilityCreate, CapabilityEdit, CapabilityDelete},
	ModuleBilling:      {CapabilityView, CapabilityEdit},
	ModuleSettings:     {CapabilityView, CapabilityEdit},
	ModuleAssistant:    {CapabilityView, CapabilityRun},
}

// NavigationModules maps dashboard navigation paths to the module whose VIEW
// permission controls their visibility.
var NavigationModules = map[string]Module{
	"/dashboard":    ModuleDashboard,
	"/sites":        ModuleSites,
	"/content":      ModuleContent,
	"/translations": ModuleTranslations,
	"/assistant":    ModuleAssistant,
	"/settings":     ModuleSettings,
}

// SettingsTabs maps settings tab identifiers to their controlling module.
var SettingsTabs = map[string]Module{
	"general": ModuleSettings,
	"members": ModuleMembers,
	"roles":   ModuleRoles,
	"billing": ModuleBilling,
}

// Key builds the permission key for a module/capability pair, e.g. SITES_EDIT.
func Key(m Module, c Capability) string {
	return string(m) + "_" + string(c)
}

// ValidKey reports whether key names a catalogued module/capability pair.
func ValidKey(key string) bool {
	for m, caps := range moduleCapabilities {
		for _, c := range caps {
			if Key(m, c) == key {
				return true
			}
		}
	}
	return false
}

// AllKeys returns every valid permission key, sorted. This is the fixed set
// granted to the Owner role created at finalize.
func AllKeys() []string {
	var keys []string
	for m, caps := range moduleCapabilities {
		for _, c := range caps {
			keys = append(keys, Key(m, c))
		}
	}
	sort.Strings(keys)
	return keys
}

// Modules returns every catalogued module, sorted.
func Modules() []Module {
	modules := make([]Module, 0, len(moduleCapabilities))
	for m := range moduleCapabilities {
		modules = append(modules, m)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i] < modules[j] })
	return modules
}
