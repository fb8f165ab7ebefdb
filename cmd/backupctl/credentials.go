package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/marinxz/n-playwright-3.9/location"
)

func newCredentialsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage location passwords in the OS keyring",
	}
	cmd.AddCommand(newCredentialsSetCmd(a))
	return cmd
}

func newCredentialsSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <location>",
		Short: "Store the console password of a location in the OS keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := location.CheckKnown(name); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Password for %s: ", name)
			password, err := a.readPassword()
			fmt.Fprintln(a.out)
			if err != nil {
				return err
			}

			if err := a.secrets.SetPassword(name, password); err != nil {
				return err
			}
			pterm.Success.WithWriter(a.out).Printfln("password for %s stored in the keyring", name)
			return nil
		},
	}
}

// readPassword reads without echo from a terminal, or one line otherwise.
func (a *app) readPassword() (string, error) {
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	scanner := bufio.NewScanner(a.in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return "", errors.New("no password given")
	}
	return strings.TrimSpace(scanner.Text()), nil
}
