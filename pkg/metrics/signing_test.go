package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestSigningMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewSigningMetrics(reg)

	metrics.IncEnvelopeSent("ok")
	metrics.IncCallback("completed")
	metrics.IncCallbackIgnored()
	metrics.IncDevisSigned()
	metrics.ObserveProviderLatency("create_envelope", 250*time.Millisecond)
	metrics.IncNotifyForwarding("success")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "signing_envelopes_sent_total", "result", "ok"); err != nil {
		t.Fatalf("fetch envelopes sent: %v", err)
	} else if got != 1 {
		t.Fatalf("expected envelopes_sent=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "signing_callbacks_total", "status", "completed"); err != nil {
		t.Fatalf("fetch callbacks: %v", err)
	} else if got != 1 {
		t.Fatalf("expected callbacks=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "signing_provider_request_seconds", "operation", "create_envelope"); err != nil {
		t.Fatalf("fetch latency: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected latency sum > 0, got %f", got)
	}
}

func TestSigningMetricsNilSafe(t *testing.T) {
	var metrics *SigningMetrics
	metrics.IncEnvelopeSent("ok")
	metrics.IncCallback("completed")
	metrics.IncCallbackIgnored()
	metrics.IncDevisSigned()
	metrics.ObserveProviderLatency("create_envelope", time.Second)
	metrics.IncNotifyForwarding("failed")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric family %q not found", name)
	}
	for _, m := range mf.GetMetric() {
		if hasLabel(m, label, value) {
			return m.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q with %s=%s not found", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric family %q not found", name)
	}
	for _, m := range mf.GetMetric() {
		if hasLabel(m, label, value) {
			return m.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("metric %q with %s=%s not found", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func hasLabel(m *dto.Metric, label, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == label && lp.GetValue() == value {
			return true
		}
	}
	return false
}
