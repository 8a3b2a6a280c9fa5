// Package cli is the command-line front end of the back office. Every command restores the
// persisted session before it runs.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hongminglow/backoffice/internal/app"
	"github.com/hongminglow/backoffice/internal/config"
	"github.com/hongminglow/backoffice/internal/logging"
)

type runtime struct {
	verbose bool
	app     *app.App
}

// Execute runs the command line in args and always releases the session resources, including
// when a command fails.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	rt := &runtime{}
	root := newRootCmd(rt)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	defer func() {
		if stopErr := rt.stop(); err == nil {
			err = stopErr
		}
	}()
	return root.ExecuteContext(ctx)
}

func newRootCmd(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:           "backoffice",
		Short:         "Inventory and finance back office",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.start(cmd)
		},
	}
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "log diagnostics to stderr")

	root.AddCommand(
		newLoginCmd(rt),
		newLogoutCmd(rt),
		newStatusCmd(rt),
		newModulesCmd(rt),
		newOpenCmd(rt),
		newStockCmd(rt),
	)
	return root
}

func (rt *runtime) start(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := zap.NewNop()
	if rt.verbose {
		if logger, err = logging.New(cfg.AppEnv); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}
	a, err := app.Init(cmd.Context(), cfg, app.WithLogger(logger))
	if err != nil {
		return err
	}
	rt.app = a
	return nil
}

func (rt *runtime) stop() error {
	if rt.app == nil {
		return nil
	}
	_ = rt.app.Logger.Sync()
	err := rt.app.Dispose()
	rt.app = nil
	return err
}

func render(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want text, yaml or json)", format)
	}
}
