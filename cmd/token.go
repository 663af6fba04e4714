package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTokenCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the gateway token for a profile",
	}

	cmd.AddCommand(newTokenSetCmd(app), newTokenRemoveCmd(app))

	return cmd
}

func newTokenSetCmd(app *app) *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the gateway token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token := strings.TrimSpace(value)
			if token == "" {
				return errors.New("token value is empty")
			}

			profile := app.profile()
			if err := app.tokens.SaveToken(cmd.Context(), profile, token); err != nil {
				return fmt.Errorf("save token for profile %q: %w", profile, err)
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "token saved for profile %s\n", profile)
			return err
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "Gateway token")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func newTokenRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove",
		Short: "Delete the stored gateway token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile := app.profile()
			if err := app.tokens.DeleteToken(cmd.Context(), profile); err != nil {
				return fmt.Errorf("remove token for profile %q: %w", profile, err)
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "token removed for profile %s\n", profile)
			return err
		},
	}
}
