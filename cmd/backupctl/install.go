package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newInstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install the browser driver and chromium",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.logger.Info(cmd.Context(), "installing browser driver", nil)
			if err := a.install(); err != nil {
				return fmt.Errorf("failed to install browser: %w", err)
			}
			pterm.Success.WithWriter(a.out).Println("browser driver and chromium installed")
			return nil
		},
	}
}
