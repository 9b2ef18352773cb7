package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Gauges are read on every scrape of /-/metrics.
type Gauges struct {
	Quotes     func() int
	Categories func() int
	Sessions   func() int
}

// RegisterGauges exposes the service's state gauges on reg. Nil funcs are skipped.
func RegisterGauges(reg prometheus.Registerer, namespace string, g Gauges) error {
	gauges := []struct {
		name string
		help string
		fn   func() int
	}{
		{"quotes", "Number of stored quotes.", g.Quotes},
		{"categories", "Number of distinct quote categories.", g.Categories},
		{"sessions", "Number of live browsing sessions.", g.Sessions},
	}

	for _, gauge := range gauges {
		if gauge.fn == nil {
			continue
		}

		fn := gauge.fn
		collector := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      gauge.name,
			Help:      gauge.help,
		}, func() float64 { return float64(fn()) })

		if err := reg.Register(collector); err != nil {
			return fmt.Errorf("registering %s gauge: %w", gauge.name, err)
		}
	}

	return nil
}
