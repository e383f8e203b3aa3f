package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/sbewire/internal/protocol"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// decodedDoc is one YAML document of decode output.
type decodedDoc struct {
	Message     string         `yaml:"message"`
	TemplateID  uint16         `yaml:"template_id"`
	SchemaID    uint16         `yaml:"schema_id"`
	Version     uint16         `yaml:"version"`
	BlockLength uint16         `yaml:"block_length"`
	Offset      int            `yaml:"offset"`
	Length      int            `yaml:"length"`
	Fields      map[string]any `yaml:"fields"`
}

func newDecodeCmd(a *app) *cobra.Command {
	var (
		expect string
		input  string
		raw    bool
	)
	cmd := &cobra.Command{
		Use:   "decode [HEX...]",
		Short: "Decode back-to-back messages to YAML",
		Long: `Decodes every message in the input, one YAML document each. Input is
hex from the arguments or --input; --raw reads binary from --input.
With --expect every message must be of that type.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.codecFor(cmd)
			if err != nil {
				return err
			}
			data, err := readMessages(cmd, args, input, raw)
			if err != nil {
				return err
			}
			if len(data) == 0 {
				return fmt.Errorf("no input")
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			for off := 0; off < len(data); {
				var msg *protocol.Message
				if expect != "" {
					msg, err = c.DecodeAs(data, off, expect)
				} else {
					msg, err = c.Decode(data, off)
				}
				if err != nil {
					return fmt.Errorf("offset %d: %w", off, err)
				}
				fields, err := c.ToMap(msg)
				if err != nil {
					return err
				}
				doc := decodedDoc{
					Message:     msg.Name,
					TemplateID:  msg.Header.TemplateID,
					SchemaID:    msg.Header.SchemaID,
					Version:     msg.Header.Version,
					BlockLength: msg.Header.BlockLength,
					Offset:      off,
					Length:      msg.EncodedLength,
					Fields:      fields,
				}
				if err := enc.Encode(doc); err != nil {
					return err
				}
				off += msg.EncodedLength
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringVarP(&expect, "expect", "e", "", "require every message to be this type")
	cmd.Flags().StringVarP(&input, "input", "i", "", "read input from this file, - for stdin")
	cmd.Flags().BoolVar(&raw, "raw", false, "input is binary rather than hex")
	return cmd
}

func readMessages(cmd *cobra.Command, args []string, input string, raw bool) ([]byte, error) {
	var text string
	switch {
	case len(args) > 0:
		if input != "" {
			return nil, fmt.Errorf("pass hex arguments or --input, not both")
		}
		if raw {
			return nil, fmt.Errorf("--raw needs --input")
		}
		text = strings.Join(args, "")
	case input != "":
		in, err := openInput(cmd, input)
		if err != nil {
			return nil, err
		}
		defer in.Close()
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		if raw {
			return data, nil
		}
		text = string(data)
	default:
		return nil, fmt.Errorf("no input: pass hex or --input")
	}

	text = strings.Join(strings.Fields(text), "")
	data, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("parse hex: %w", err)
	}
	return data, nil
}
