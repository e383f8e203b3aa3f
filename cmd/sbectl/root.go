package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/danmuck/sbewire/internal/config"
	"github.com/danmuck/sbewire/internal/logging"
	"github.com/danmuck/sbewire/internal/observability"
	"github.com/danmuck/sbewire/internal/protocol"
	"github.com/danmuck/sbewire/internal/protocol/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app carries the global flags and the lazily built codec for one run.
type app struct {
	out        io.Writer
	configPath string
	schemaPath string
	logLevel   string
	strict     bool
	dumpStats  bool

	registry *prometheus.Registry
	codec    *protocol.Codec
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, registry: prometheus.NewRegistry()}

	root := &cobra.Command{
		Use:   "sbectl",
		Short: "Encode, decode and inspect SBE messages",
		Long: `sbectl works with fixed-layout binary messages described by a schema
table. Without --schema or a schema_file in the config it uses the
built-in trading schema.

Examples:
  sbectl schema --format yaml
  sbectl encode --message NewOrderSingle --input order.yaml
  sbectl decode --expect PriceIncrement 1d00020001000000...`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.logLevel != "" && !logging.SetLevel(a.logLevel) {
				return fmt.Errorf("unknown log level %q", a.logLevel)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if !a.dumpStats {
				return nil
			}
			return a.writeStats(cmd.ErrOrStderr())
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "codec config file (toml)")
	flags.StringVarP(&a.schemaPath, "schema", "s", "", "schema table file (toml or yaml), overrides schema_file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level, overrides log_level")
	flags.BoolVar(&a.strict, "strict", true, "validate the table and check schema ids on decode")
	flags.BoolVar(&a.dumpStats, "stats", false, "print codec counters to stderr after the command")

	root.AddCommand(
		newSchemaCmd(a),
		newEncodeCmd(a),
		newDecodeCmd(a),
		newConfigCmd(a),
	)
	return root
}

// settings resolves the config file and applies flag overrides on top.
func (a *app) settings(cmd *cobra.Command) (config.CodecConfig, error) {
	cfg := config.DefaultCodecConfig()
	if a.configPath != "" {
		loaded, err := config.LoadCodecConfig(a.configPath)
		if err != nil {
			return config.CodecConfig{}, err
		}
		cfg = loaded
	}
	if a.schemaPath != "" {
		cfg.SchemaFile = a.schemaPath
	}
	if cmd.Flags().Changed("strict") {
		cfg.StrictSchema = a.strict
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := config.ValidateCodecConfig(cfg); err != nil {
		return config.CodecConfig{}, err
	}
	logging.SetLevel(cfg.LogLevel)
	return cfg, nil
}

func (a *app) table(cmd *cobra.Command) (*schema.Table, config.CodecConfig, error) {
	cfg, err := a.settings(cmd)
	if err != nil {
		return nil, cfg, err
	}
	t, err := config.LoadTable(cfg)
	if err != nil {
		return nil, cfg, err
	}
	return t, cfg, nil
}

func (a *app) codecFor(cmd *cobra.Command) (*protocol.Codec, config.CodecConfig, error) {
	t, cfg, err := a.table(cmd)
	if err != nil {
		return nil, cfg, err
	}
	if a.codec != nil {
		return a.codec, cfg, nil
	}
	metrics := observability.NewCodecMetrics(cfg.MetricsNamespace)
	if err := metrics.Register(a.registry); err != nil {
		return nil, cfg, err
	}
	c, err := protocol.NewCodec(t,
		protocol.WithLogger(log.Logger),
		protocol.WithMetrics(metrics),
		protocol.WithStrictSchema(cfg.StrictSchema),
	)
	if err != nil {
		return nil, cfg, err
	}
	a.codec = c
	return c, cfg, nil
}

func (a *app) writeStats(w io.Writer) error {
	families, err := a.registry.Gather()
	if err != nil {
		return err
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := ""
			for _, lp := range m.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", lp.GetName(), lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s%s %g", mf.GetName(), labels, m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				lines = append(lines, fmt.Sprintf("%s%s count=%d sum=%g", mf.GetName(), labels, h.GetSampleCount(), h.GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// openInput returns stdin for "-" and the named file otherwise.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", path, err)
	}
	return f, nil
}
