package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus/push"
)

// PushJob is the Pushgateway job name for ingestion runs.
const PushJob = "bird_etl_ingest"

// Push sends the current metric values to a Prometheus Pushgateway. Ingestion
// runs exit before a scrape could see them, so they are pushed instead.
func (m *Metrics) Push(ctx context.Context, gatewayURL string) error {
	pusher := push.New(gatewayURL, PushJob)
	for _, c := range m.collectors() {
		pusher = pusher.Collector(c)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
