package main

import (
	"fmt"

	"github.com/danmuck/sbewire/internal/protocol/schema"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newSchemaCmd(a *app) *cobra.Command {
	var (
		format  string
		message string
	)
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the active schema table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, cfg, err := a.table(cmd)
			if err != nil {
				return err
			}
			if cfg.StrictSchema {
				if err := schema.Validate(t); err != nil {
					return err
				}
			}

			if message != "" {
				m, ok := t.Message(message)
				if !ok {
					return fmt.Errorf("unknown message %q", message)
				}
				out, err := yaml.Marshal(m)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}

			out, err := schema.Marshal(t, schema.Format(format))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(schema.FormatTOML), "output format: toml|yaml")
	cmd.Flags().StringVarP(&message, "message", "m", "", "print only this message layout")
	return cmd
}
