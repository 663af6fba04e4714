package toml

import (
	"fmt"

	"github.com/bnema/clawsync/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int           `toml:"version"`
	Theme    string        `toml:"theme"`
	ViewMode string        `toml:"view_mode"`
	Sidebar  sidebarSchema `toml:"sidebar"`
	Dock     dockSchema    `toml:"dock"`
}

type sidebarSchema struct {
	Collapsed bool `toml:"collapsed"`
	Width     int  `toml:"width,omitempty"`
}

type dockSchema struct {
	Position string `toml:"position"`
	Visible  *bool  `toml:"visible,omitempty"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported preferences schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

func toSchema(prefs domain.Preferences) fileSchema {
	visible := prefs.Dock.Visible
	return fileSchema{
		Version:  currentSchemaVersion,
		Theme:    string(prefs.Theme),
		ViewMode: string(prefs.ViewMode),
		Sidebar: sidebarSchema{
			Collapsed: prefs.Sidebar.Collapsed,
			Width:     prefs.Sidebar.Width,
		},
		Dock: dockSchema{
			Position: string(prefs.Dock.Position),
			Visible:  &visible,
		},
	}
}

// fromSchema fills fields missing from the file with defaults.
func fromSchema(file fileSchema) domain.Preferences {
	prefs := domain.Preferences{
		Theme:    domain.Theme(file.Theme),
		ViewMode: domain.ViewMode(file.ViewMode),
		Sidebar: domain.SidebarLayout{
			Collapsed: file.Sidebar.Collapsed,
			Width:     file.Sidebar.Width,
		},
		Dock: domain.DockLayout{
			Position: domain.DockPosition(file.Dock.Position),
			Visible:  domain.DefaultPreferences().Dock.Visible,
		},
	}
	if file.Dock.Visible != nil {
		prefs.Dock.Visible = *file.Dock.Visible
	}
	prefs.Normalize()
	return prefs
}
