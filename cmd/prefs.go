package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bnema/clawsync/internal/application"
	"github.com/bnema/clawsync/internal/domain"
	"github.com/spf13/cobra"
)

func newPrefsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change dashboard preferences",
	}

	cmd.AddCommand(newPrefsShowCmd(app), newPrefsSetCmd(app))

	return cmd
}

func newPrefsShowCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored preferences",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := app.preferences()
			if err != nil {
				return err
			}
			prefs, err := repo.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load preferences: %w", err)
			}

			return writePreferences(cmd, prefs, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}

func newPrefsSetCmd(app *app) *cobra.Command {
	var (
		theme            string
		viewMode         string
		sidebarCollapsed bool
		sidebarWidth     int
		dock             string
		dockVisible      bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change one or more preferences",
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			var update application.UpdatePreferencesCommand
			if flags.Changed("theme") {
				value := domain.Theme(theme)
				update.Theme = &value
			}
			if flags.Changed("view") {
				value := domain.ViewMode(viewMode)
				update.ViewMode = &value
			}
			if flags.Changed("sidebar-collapsed") {
				update.SidebarCollapsed = &sidebarCollapsed
			}
			if flags.Changed("sidebar-width") {
				update.SidebarWidth = &sidebarWidth
			}
			if flags.Changed("dock") {
				value := domain.DockPosition(dock)
				update.DockPosition = &value
			}
			if flags.Changed("dock-visible") {
				update.DockVisible = &dockVisible
			}
			if update.Empty() {
				return errors.New("no preference flags given")
			}

			repo, err := app.preferences()
			if err != nil {
				return err
			}
			store := application.NewStore(app.clock,
				application.WithPreferencesRepository(repo),
				application.WithStoreLogger(app.logger),
			)
			if err := store.LoadPreferences(cmd.Context()); err != nil {
				return err
			}

			prefs, err := store.UpdatePreferences(cmd.Context(), update)
			if err != nil {
				return err
			}

			return writePreferences(cmd, prefs, false)
		},
	}

	cmd.Flags().StringVar(&theme, "theme", "", "Theme (system|light|dark)")
	cmd.Flags().StringVar(&viewMode, "view", "", "View mode (2d|3d)")
	cmd.Flags().BoolVar(&sidebarCollapsed, "sidebar-collapsed", false, "Collapse the sidebar")
	cmd.Flags().IntVar(&sidebarWidth, "sidebar-width", 0, "Sidebar width")
	cmd.Flags().StringVar(&dock, "dock", "", "Dock position (bottom|left|right)")
	cmd.Flags().BoolVar(&dockVisible, "dock-visible", true, "Show the dock")

	return cmd
}

func writePreferences(cmd *cobra.Command, prefs domain.Preferences, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(prefs)
	}

	_, err := fmt.Fprintf(out,
		"theme: %s\nview: %s\nsidebar: collapsed=%t width=%d\ndock: %s visible=%t\n",
		prefs.Theme, prefs.ViewMode,
		prefs.Sidebar.Collapsed, prefs.Sidebar.Width,
		prefs.Dock.Position, prefs.Dock.Visible,
	)
	return err
}
