package protocol

import (
	"github.com/danmuck/sbewire/internal/observability"
	"github.com/danmuck/sbewire/internal/protocol/schema"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Codec encodes and decodes every message of one schema table. It holds no
// per-message state and is safe for concurrent use once built.
type Codec struct {
	table   *schema.Table
	logger  zerolog.Logger
	metrics *observability.CodecMetrics
	strict  bool
}

type Option func(*Codec)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Codec) {
		c.logger = logger
	}
}

func WithMetrics(m *observability.CodecMetrics) Option {
	return func(c *Codec) {
		c.metrics = m
	}
}

// WithStrictSchema controls full table validation at construction and the
// schema id check on decode. Strict is the default. Recursive composites are
// rejected either way.
func WithStrictSchema(strict bool) Option {
	return func(c *Codec) {
		c.strict = strict
	}
}

func NewCodec(table *schema.Table, opts ...Option) (*Codec, error) {
	if table == nil {
		return nil, ErrNoTable
	}
	c := &Codec{
		table:  table,
		logger: log.Logger,
		strict: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("schema", table.Name).Logger()
	check := schema.CheckStructure
	if c.strict {
		check = schema.Validate
	}
	if err := check(table); err != nil {
		c.metrics.RecordError("init", errorKind(err))
		return nil, err
	}
	c.logger.Debug().Msgf("protocol.NewCodec schema_id=%d version=%d messages=%d strict=%t",
		table.SchemaID, table.Version, len(table.Messages), c.strict)
	return c, nil
}

func (c *Codec) Table() *schema.Table {
	return c.table
}

func (c *Codec) Strict() bool {
	return c.strict
}

func (c *Codec) message(name string) (*schema.MessageSpec, error) {
	m, ok := c.table.Message(name)
	if !ok {
		return nil, fieldErr(name, ErrUnknownMessage)
	}
	return m, nil
}

func (c *Codec) fail(op, name string, err error) error {
	kind := errorKind(err)
	c.metrics.RecordError(op, kind)
	c.logger.Debug().Msgf("protocol.%s message=%s kind=%s err=%v", op, name, kind, err)
	return err
}
