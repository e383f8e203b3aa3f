package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newEncodeCmd(a *app) *cobra.Command {
	var (
		message string
		input   string
		output  string
	)
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a YAML record as one message",
		Long: `Reads a YAML mapping of field names to values and encodes it as the
named message. Composites are nested mappings, groups are lists of
mappings, enums are variant names and null fields are ~.

The encoding is printed as hex unless --output names a file for the raw
bytes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cfg, err := a.codecFor(cmd)
			if err != nil {
				return err
			}

			in, err := openInput(cmd, input)
			if err != nil {
				return err
			}
			defer in.Close()
			doc, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			fields := map[string]any{}
			if err := yaml.Unmarshal(doc, &fields); err != nil {
				return fmt.Errorf("parse input: %w", err)
			}

			rec, err := c.FromMap(message, fields)
			if err != nil {
				return err
			}
			buf := make([]byte, cfg.BufferSize)
			n, err := c.Encode(buf, 0, message, rec)
			if err != nil {
				return err
			}

			if output != "" {
				if err := os.WriteFile(output, buf[:n], 0o600); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", n, output)
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(buf[:n]))
			return err
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "message name")
	cmd.Flags().StringVarP(&input, "input", "i", "-", "YAML record file, - for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write raw bytes to this file")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}
