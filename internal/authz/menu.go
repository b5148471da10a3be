package authz

// MenuEntry is one navigation item in the sidebar payload.
type MenuEntry struct {
	Key  ModuleKey `json:"key"`
	Path string    `json:"path"`
	Name string    `json:"name"`
	Icon string    `json:"icon"`
}

// Menu partitions the permitted modules into the main section and the
// admin-only "Administration" section.
type Menu struct {
	Main  []MenuEntry `json:"main"`
	Admin []MenuEntry `json:"admin"`
}

// BuildMenu derives the navigation tree for role. Entries keep catalog
// declaration order; both partitions are always non-nil so callers can
// render an empty state without nil checks. A module appears iff role is in
// its AllowedRoles; IsAdminOnly only selects the partition.
func (r *Resolver) BuildMenu(role Role) Menu {
	menu := Menu{Main: []MenuEntry{}, Admin: []MenuEntry{}}
	for _, module := range r.catalog.Modules() {
		if !module.AllowedRoles.Contains(role) {
			continue
		}
		entry := MenuEntry{
			Key:  module.Key,
			Path: module.Path,
			Name: module.Name,
			Icon: module.Icon,
		}
		if module.IsAdminOnly {
			menu.Admin = append(menu.Admin, entry)
		} else {
			menu.Main = append(menu.Main, entry)
		}
	}
	return menu
}
