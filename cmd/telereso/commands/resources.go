package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (c *CLI) newStringCmd() *cobra.Command {
	var def string

	cmd := &cobra.Command{
		Use:   "string <key>",
		Short: "Resolve a string for the active locale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			resolver, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = resolver.Close(ctx) }()

			value := resolver.RemoteStringOrDefault(ctx, resolver.ActiveLocale(), args[0], def)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		},
	}
	cmd.Flags().StringVarP(&def, "default", "d", "", "value printed when the key is not found")

	return cmd
}

func (c *CLI) newDrawableCmd() *cobra.Command {
	var placeholder string

	cmd := &cobra.Command{
		Use:   "drawable <key>",
		Short: "Resolve a drawable URL for the display density",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			resolver, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = resolver.Close(ctx) }()

			_, err = fmt.Fprintln(cmd.OutOrStdout(), resolver.ResolveDrawableOr(ctx, args[0], placeholder).String())
			return err
		},
	}
	cmd.Flags().StringVarP(&placeholder, "placeholder", "p", "", "bundled asset used when the key is not found")

	return cmd
}

func (c *CLI) newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the resolved resource groups as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			resolver, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = resolver.Close(ctx) }()

			snap := resolver.Snapshot()
			names := snap.Groups()
			groups := make(map[string]map[string]string, len(names))
			for _, group := range names {
				groups[group] = snap.Group(group)
			}

			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent(2)
			if err = encoder.Encode(groups); err != nil {
				return err
			}
			return encoder.Close()
		},
	}
}
