package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/marinxz/n-playwright-3.9/browser"
	"github.com/marinxz/n-playwright-3.9/location"
	"github.com/marinxz/n-playwright-3.9/logger"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// errRunsFailed is returned after the status lines already reported why.
var errRunsFailed = errors.New("one or more backups failed")

// app carries what the commands share. Tests swap the launcher, secrets
// and streams.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	newLauncher func(log logger.Logger) browser.Launcher
	install     func() error
	secrets     location.SecretStore

	flags    flags
	settings settings
	logger   logger.Logger
}

func newApp() *app {
	return &app{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		newLauncher: func(log logger.Logger) browser.Launcher {
			return browser.NewPlaywrightLauncher(log)
		},
		install: browser.Install,
		secrets: location.NewKeyringStore(),
	}
}

func main() {
	a := newApp()
	if err := newRootCmd(a).Execute(); err != nil {
		if !errors.Is(err, errRunsFailed) {
			pterm.Error.WithWriter(a.errOut).Println(err.Error())
		}
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "backupctl <location> [location...]",
		Short: "Retrieve database backups from the admin console",
		Long: "Logs into the admin console of each location with a browser, triggers the database backup " +
			"download and copies the file to the configured destination.",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBackups(cmd.Context(), args)
		},
	}
	rootCmd.SetIn(a.in)
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errOut)

	a.flags.register(rootCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "backupctl %s (commit: %s, built: %s)\n", Version, Commit, BuildDate)
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newCredentialsCmd(a))
	rootCmd.AddCommand(newInstallCmd(a))
	return rootCmd
}
