// Package commands implements the telereso command line interface.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/pitabwire/util"
	"github.com/spf13/cobra"

	"github.com/pitabwire/telereso"
)

// CLI represents the command line interface for telereso.
type CLI struct {
	rootCmd *cobra.Command
	logOut  io.Writer

	sourceURI string
	locale    string
	density   float64
	wait      bool
}

// New creates the CLI with every command registered.
func New() *CLI {
	rootCmd := &cobra.Command{
		Use:           "telereso",
		Short:         "Resolve remotely managed strings and drawables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	c := &CLI{
		rootCmd: rootCmd,
		logOut:  os.Stderr,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.sourceURI, "source", "s", "", "resource source URI, overrides TELERESO_SOURCE_URI")
	flags.StringVarP(&c.locale, "locale", "l", "", "active locale, overrides TELERESO_LOCALE")
	flags.Float64Var(&c.density, "density", 0, "display scale factor, overrides TELERESO_DENSITY_SCALE")
	flags.BoolVar(&c.wait, "wait", true, "wait for the first fetch before resolving")

	rootCmd.AddCommand(c.newStringCmd())
	rootCmd.AddCommand(c.newDrawableCmd())
	rootCmd.AddCommand(c.newDumpCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command output and logs. Used for testing.
func (c *CLI) SetOutput(out, logs io.Writer) {
	c.rootCmd.SetOut(out)
	c.logOut = logs
}

// open creates and initializes a resolver from the environment and the flags.
func (c *CLI) open(ctx context.Context) (*telereso.Resolver, error) {
	opts := []telereso.Option{
		telereso.WithLogger(util.WithLogHandler(tint.NewHandler(c.logOut, &tint.Options{
			Level:      slog.LevelWarn,
			TimeFormat: time.Kitchen,
		}))),
	}
	if c.sourceURI != "" {
		opts = append(opts, telereso.WithSourceURI(c.sourceURI))
	}
	if c.density > 0 {
		opts = append(opts, telereso.WithDensityScale(c.density))
	}

	ctx, resolver := telereso.NewResolver(ctx, opts...)
	if err := resolver.StartupErrors(); err != nil {
		_ = resolver.Close(ctx)
		return nil, err
	}

	ready := make(chan struct{})
	resolver.Initialize(ctx, c.locale, c.wait, func() { close(ready) })

	select {
	case <-ready:
		return resolver, nil
	case <-ctx.Done():
		_ = resolver.Close(ctx)
		return nil, ctx.Err()
	}
}
