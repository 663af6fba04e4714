package domain

import (
	"fmt"
	"strings"
)

type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

type ViewMode string

const (
	ViewMode2D ViewMode = "2d"
	ViewMode3D ViewMode = "3d"
)

type DockPosition string

const (
	DockBottom DockPosition = "bottom"
	DockLeft   DockPosition = "left"
	DockRight  DockPosition = "right"
)

type SidebarLayout struct {
	Collapsed bool
	Width     int
}

type DockLayout struct {
	Position DockPosition
	Visible  bool
}

type Preferences struct {
	Theme    Theme
	ViewMode ViewMode
	Sidebar  SidebarLayout
	Dock     DockLayout
}

func DefaultPreferences() Preferences {
	return Preferences{
		Theme:    ThemeSystem,
		ViewMode: ViewMode2D,
		Sidebar:  SidebarLayout{Width: 320},
		Dock:     DockLayout{Position: DockBottom, Visible: true},
	}
}

func (p Preferences) Validate() error {
	switch p.Theme {
	case ThemeSystem, ThemeLight, ThemeDark:
	default:
		return fmt.Errorf("%w: theme %q", ErrPreferencesInvalid, p.Theme)
	}
	switch p.ViewMode {
	case ViewMode2D, ViewMode3D:
	default:
		return fmt.Errorf("%w: view mode %q", ErrPreferencesInvalid, p.ViewMode)
	}
	switch p.Dock.Position {
	case DockBottom, DockLeft, DockRight:
	default:
		return fmt.Errorf("%w: dock position %q", ErrPreferencesInvalid, p.Dock.Position)
	}
	if p.Sidebar.Width < 0 {
		return fmt.Errorf("%w: sidebar width %d", ErrPreferencesInvalid, p.Sidebar.Width)
	}
	return nil
}

// Normalize fills zero values with defaults and lower-cases enum fields.
func (p *Preferences) Normalize() {
	defaults := DefaultPreferences()
	p.Theme = Theme(strings.ToLower(strings.TrimSpace(string(p.Theme))))
	if p.Theme == "" {
		p.Theme = defaults.Theme
	}
	p.ViewMode = ViewMode(strings.ToLower(strings.TrimSpace(string(p.ViewMode))))
	if p.ViewMode == "" {
		p.ViewMode = defaults.ViewMode
	}
	p.Dock.Position = DockPosition(strings.ToLower(strings.TrimSpace(string(p.Dock.Position))))
	if p.Dock.Position == "" {
		p.Dock.Position = defaults.Dock.Position
	}
	if p.Sidebar.Width == 0 {
		p.Sidebar.Width = defaults.Sidebar.Width
	}
}
