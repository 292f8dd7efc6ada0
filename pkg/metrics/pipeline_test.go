package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestConsumerMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConsumerMetrics(reg)
	m.AddReceived(3)
	m.IncProcessed("DELETE", OutcomeSuccess)
	m.IncProcessed("", OutcomeMalformed)
	m.IncReceiveFailure()
	m.ObserveCycle(250 * time.Millisecond)

	if got := testutil.ToFloat64(m.received); got != 3 {
		t.Fatalf("expected received=3, got %f", got)
	}
	if got := testutil.ToFloat64(m.receiveFailure); got != 1 {
		t.Fatalf("expected receive failures=1, got %f", got)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "shipping_consumer_messages_processed_total", "action", "unknown"); err != nil {
		t.Fatalf("fetch processed: %v", err)
	} else if got != 1 {
		t.Fatalf("expected unknown action=1, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "shipping_consumer_cycle_duration_seconds"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestPublishMetricsCountByLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPublishMetrics(reg)
	m.IncEvent("CREATE", OutcomeSuccess)
	m.IncEvent("CREATE", OutcomeSuccess)
	m.IncNotification("SHIPMENT_DELETED", OutcomeFailure)

	if got := testutil.ToFloat64(m.events.WithLabelValues("CREATE", OutcomeSuccess)); got != 2 {
		t.Fatalf("expected 2 create events, got %f", got)
	}
	if got := testutil.ToFloat64(m.notifications.WithLabelValues("SHIPMENT_DELETED", OutcomeFailure)); got != 1 {
		t.Fatalf("expected 1 failed notification, got %f", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var c *ConsumerMetrics
	c.AddReceived(1)
	c.IncProcessed("a", "b")
	c.IncReceiveFailure()
	c.IncDeleteFailure()
	c.ObserveCycle(time.Second)

	var p *PublishMetrics
	p.IncEvent("a", "b")
	p.IncNotification("a", "b")

	NewConsumerMetrics(nil).AddReceived(1)
	NewPublishMetrics(nil).IncEvent("a", "b")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil || len(mf.GetMetric()) == 0 {
		return 0, fmt.Errorf("histogram %q not found", name)
	}
	return mf.GetMetric()[0].GetHistogram().GetSampleSum(), nil
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
