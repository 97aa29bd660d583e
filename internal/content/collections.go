package content

// Collection names served by the backend CMS.
const (
	FocusAreas      = "focus-areas"
	Blogs           = "blogs"
	Events          = "events"
	Projects        = "projects"
	Magazines       = "magazines"
	Jobs            = "jobs"
	HeroSliders     = "hero-sliders"
	TeamMembers     = "team-members"
	NavigationMenus = "navigation-menus"
)

var collections = map[string]bool{
	FocusAreas:      false,
	Blogs:           false,
	Events:          false,
	Projects:        false,
	Magazines:       false,
	Jobs:            false,
	HeroSliders:     true,
	TeamMembers:     true,
	NavigationMenus: true,
}

// Known reports whether name is a CMS collection the portal serves.
func Known(name string) bool {
	_, ok := collections[name]
	return ok
}

// Reorderable reports whether admins may drag-and-drop reorder the collection.
func Reorderable(name string) bool {
	return collections[name]
}
