package main

import (
	"fmt"

	"github.com/danmuck/sbewire/internal/config"
	"github.com/danmuck/sbewire/internal/protocol/schema"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write or check codec config and schema files",
	}

	var (
		kind  string
		force bool
	)
	initCmd := &cobra.Command{
		Use:   "init PATH",
		Short: "Write a config template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(args[0], kind, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s template to %s\n", kind, args[0])
			return nil
		},
	}
	initCmd.Flags().StringVarP(&kind, "kind", "k", "codec", "template kind: codec|schema")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	validateCmd := &cobra.Command{
		Use:   "validate [PATH]",
		Short: "Load a config and the schema it names",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				a.configPath = args[0]
			}
			t, cfg, err := a.table(cmd)
			if err != nil {
				return err
			}
			if err := schema.Validate(t); err != nil {
				return err
			}
			source := cfg.SchemaFile
			if source == "" {
				source = "built-in"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok schema=%s (%s) messages=%d strict=%t buffer_size=%d\n",
				t.Name, source, len(t.Messages), cfg.StrictSchema, cfg.BufferSize)
			return nil
		},
	}

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}
