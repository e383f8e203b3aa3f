package observability

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const DefaultNamespace = "sbewire"

// CodecMetrics counts messages through a codec. A nil *CodecMetrics records
// nothing, so codecs built without metrics need no checks.
type CodecMetrics struct {
	encoded *prometheus.CounterVec
	decoded *prometheus.CounterVec
	errors  *prometheus.CounterVec
	bytes   *prometheus.HistogramVec
}

func NewCodecMetrics(namespace string) *CodecMetrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &CodecMetrics{
		encoded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "codec",
				Name:      "messages_encoded_total",
				Help:      "Messages encoded, by message name.",
			},
			[]string{"message"},
		),
		decoded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "codec",
				Name:      "messages_decoded_total",
				Help:      "Messages decoded, by message name.",
			},
			[]string{"message"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "codec",
				Name:      "codec_errors_total",
				Help:      "Encode and decode failures, by operation and error kind.",
			},
			[]string{"op", "kind"},
		),
		bytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "codec",
				Name:      "encoded_bytes",
				Help:      "Size of encoded messages in bytes, header included.",
				Buckets:   prometheus.ExponentialBuckets(16, 2, 10),
			},
			[]string{"message"},
		),
	}
}

// Register adds every collector to reg. Collectors that are already
// registered are adopted so two codecs can share one registry.
func (m *CodecMetrics) Register(reg prometheus.Registerer) error {
	var err error
	m.encoded, err = registerCounter(reg, m.encoded)
	if err != nil {
		return err
	}
	m.decoded, err = registerCounter(reg, m.decoded)
	if err != nil {
		return err
	}
	m.errors, err = registerCounter(reg, m.errors)
	if err != nil {
		return err
	}
	if err := reg.Register(m.bytes); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return err
		}
		existing, ok := are.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return err
		}
		m.bytes = existing
	}
	return nil
}

func registerCounter(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		return existing, nil
	}
	return c, nil
}

var (
	registerOnce   sync.Once
	defaultMetrics *CodecMetrics
)

// DefaultCodecMetrics returns metrics registered once on the global
// prometheus registry.
func DefaultCodecMetrics() *CodecMetrics {
	registerOnce.Do(func() {
		m := NewCodecMetrics(DefaultNamespace)
		if err := m.Register(prometheus.DefaultRegisterer); err != nil {
			panic(err)
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

func (m *CodecMetrics) RecordEncode(message string, size int) {
	if m == nil {
		return
	}
	m.encoded.WithLabelValues(message).Inc()
	m.bytes.WithLabelValues(message).Observe(float64(size))
}

func (m *CodecMetrics) RecordDecode(message string) {
	if m == nil {
		return
	}
	m.decoded.WithLabelValues(message).Inc()
}

func (m *CodecMetrics) RecordError(op, kind string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(op, kind).Inc()
}
