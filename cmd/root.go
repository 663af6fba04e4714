package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "clawsync",
		Short:         "Live view of an agent Gateway fleet",
		Long:          "clawsync connects to an agent Gateway over WebSocket, follows agent activity in real time and shows the fleet as a snapshot or a live dashboard.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default ~/.config/clawsync/config.toml)")
	flags.String("gateway", "", "Gateway WebSocket URL")
	flags.String("profile", "", "Token profile")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
	flags.Bool("log-json", false, "Log as JSON")

	app, err := wireApp(rootCmd)
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return app.init(configFile)
	}
	rootCmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		_ = app.logger.Sync()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newStatusCmd(app),
		newWatchCmd(app),
		newTokenCmd(app),
		newPrefsCmd(app),
	)

	return rootCmd
}
