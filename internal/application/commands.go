package application

import "github.com/bnema/clawsync/internal/domain"

// UpdatePreferencesCommand carries a partial preferences change. Nil fields
// are left untouched.
type UpdatePreferencesCommand struct {
	Theme            *domain.Theme
	ViewMode         *domain.ViewMode
	SidebarCollapsed *bool
	SidebarWidth     *int
	DockPosition     *domain.DockPosition
	DockVisible      *bool
}

func (c UpdatePreferencesCommand) Empty() bool {
	return c.Theme == nil && c.ViewMode == nil && c.SidebarCollapsed == nil &&
		c.SidebarWidth == nil && c.DockPosition == nil && c.DockVisible == nil
}

func (c UpdatePreferencesCommand) apply(prefs domain.Preferences) domain.Preferences {
	if c.Theme != nil {
		prefs.Theme = *c.Theme
	}
	if c.ViewMode != nil {
		prefs.ViewMode = *c.ViewMode
	}
	if c.SidebarCollapsed != nil {
		prefs.Sidebar.Collapsed = *c.SidebarCollapsed
	}
	if c.SidebarWidth != nil {
		prefs.Sidebar.Width = *c.SidebarWidth
	}
	if c.DockPosition != nil {
		prefs.Dock.Position = *c.DockPosition
	}
	if c.DockVisible != nil {
		prefs.Dock.Visible = *c.DockVisible
	}
	return prefs
}
