package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/filemanager/internal/domain/credentials"
	"github.com/GriffinCanCode/filemanager/internal/domain/session"
	"github.com/GriffinCanCode/filemanager/internal/providers/auth"
	"github.com/GriffinCanCode/filemanager/internal/shared/utils"
)

func newPasswdCmd(flags *serveFlags, stdout, stderr io.Writer) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "passwd <user>",
		Short: "Set an account's password in the credential file",
		Long: `Set an account's password without knowing the current one.

The new password is taken from --password or, when that is empty, from the
first line of standard input. The credential file is created with the
default account first if it does not exist.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := utils.ValidateUsername(args[0]); err != nil {
				fmt.Fprintf(stderr, "server passwd: %s\n", err) //nolint:errcheck
				return errExit
			}

			cfg, err := loadConfig(cmd, *flags)
			if err != nil {
				return err
			}

			if password == "" {
				password, err = readSecret(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			store := credentials.NewFileStore(cfg.Storage.UsersFilePath())
			guard, err := auth.NewGuard(store, session.NewMemoryStore(cfg.Session.TTL),
				auth.WithCost(cfg.Auth.BcryptCost),
				auth.WithLogger(logger.Logger),
			)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if _, err := guard.Bootstrap(ctx); err != nil {
				return err
			}
			if err := guard.ResetPassword(ctx, args[0], password); err != nil {
				fmt.Fprintf(stderr, "server passwd: %s\n", userMessage(err)) //nolint:errcheck
				return errExit
			}
			fmt.Fprintf(stdout, "Password updated for %s\n", args[0]) //nolint:errcheck
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "new password (default: read from stdin)")
	return cmd
}

func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
