package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/filemanager/internal/infrastructure/config"
	"github.com/GriffinCanCode/filemanager/internal/infrastructure/logging"
	"github.com/GriffinCanCode/filemanager/internal/infrastructure/server"
	"github.com/GriffinCanCode/filemanager/internal/shared/errs"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// errExit signals a non-zero exit after the command reported its own error.
var errExit = errors.New("exit")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errExit) {
			fmt.Fprintf(stderr, "server: %v\n", err) //nolint:errcheck
		}
		return 1
	}
	return 0
}

// serveFlags override the matching environment variables when set.
type serveFlags struct {
	port string
	host string
	root string
	dev  bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var flags serveFlags
	root := &cobra.Command{
		Use:           "server",
		Short:         "Sandboxed single-root file manager backend",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	root.Flags().StringVar(&flags.port, "port", "", "listen port (env PORT)")
	root.Flags().StringVar(&flags.host, "host", "", "listen host (env HOST)")
	root.PersistentFlags().StringVar(&flags.root, "root", "", "sandbox root directory (env STORAGE_ROOT)")
	root.Flags().BoolVar(&flags.dev, "dev", false, "development logging (env LOG_DEV)")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newPasswdCmd(&flags, stdout, stderr),
		newVersionCmd(stdout),
	)
	return root
}

// loadConfig reads the environment and applies flags the user set.
func loadConfig(cmd *cobra.Command, flags serveFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = flags.port
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = flags.host
	}
	if flags.root != "" {
		cfg.Storage.Root = flags.root
	}
	if flags.dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	return logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(ctx, cfg, logger, version)
	if err != nil {
		logger.Error("Startup aborted", zap.Error(err))
		return err
	}
	if err := srv.Run(ctx); err != nil {
		logger.Error("Server error", zap.Error(err))
		return err
	}
	return nil
}

// userMessage prefers the operator-facing text of classified errors.
func userMessage(err error) string {
	if errs.KindOf(err) != errs.Unknown {
		return errs.Message(err)
	}
	return err.Error()
}
