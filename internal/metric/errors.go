package metric

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMetric means a metric references an unregistered id.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrMetricCycle means the metric dependency structure is cyclic.
	ErrMetricCycle = errors.New("metric dependency cycle")
	// ErrDuplicateMetric means two metrics share an id.
	ErrDuplicateMetric = errors.New("duplicate metric")
	// ErrUnknownKind means a configured metric uses an unsupported kind.
	ErrUnknownKind = errors.New("unknown metric kind")
)

// ConfigError is a fatal metric configuration problem detected before any
// relation is computed.
type ConfigError struct {
	Metric ID
	Detail string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("metric %q: %v", e.Metric, e.Err)
	}
	return fmt.Sprintf("metric %q: %v: %s", e.Metric, e.Err, e.Detail)
}

func (e *ConfigError) Unwrap() error { return e.Err }
