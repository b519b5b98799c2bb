package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SigningMetrics records the e-signature workflow counters.
type SigningMetrics struct {
	envelopesSent     *prometheus.CounterVec
	callbacks         *prometheus.CounterVec
	callbacksIgnored  prometheus.Counter
	devisSigned       prometheus.Counter
	providerLatency   *prometheus.HistogramVec
	notifyForwardings *prometheus.CounterVec
}

// NewSigningMetrics registers the signing metrics on the provided registerer.
func NewSigningMetrics(reg prometheus.Registerer) *SigningMetrics {
	if reg == nil {
		return &SigningMetrics{}
	}
	envelopesSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signing_envelopes_sent_total",
		Help: "Envelopes submitted to the e-signature provider.",
	}, []string{"result"})
	callbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signing_callbacks_total",
		Help: "Provider status callbacks processed, by resulting envelope status.",
	}, []string{"status"})
	callbacksIgnored := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signing_callbacks_ignored_total",
		Help: "Callbacks referencing no known envelope or a terminal devis.",
	})
	devisSigned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "devis_signed_total",
		Help: "Devis moved to the signed state via callback.",
	})
	providerLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "signing_provider_request_seconds",
		Help:    "Duration of e-signature provider HTTP calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	notifyForwardings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signing_notify_forwardings_total",
		Help: "Best-effort forwardings to requester callback URLs.",
	}, []string{"result"})
	reg.MustRegister(envelopesSent, callbacks, callbacksIgnored, devisSigned, providerLatency, notifyForwardings)
	return &SigningMetrics{
		envelopesSent:     envelopesSent,
		callbacks:         callbacks,
		callbacksIgnored:  callbacksIgnored,
		devisSigned:       devisSigned,
		providerLatency:   providerLatency,
		notifyForwardings: notifyForwardings,
	}
}

// IncEnvelopeSent counts one envelope submission with the given result label.
func (m *SigningMetrics) IncEnvelopeSent(result string) {
	if m == nil || m.envelopesSent == nil {
		return
	}
	m.envelopesSent.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncCallback counts one processed callback by envelope status.
func (m *SigningMetrics) IncCallback(status string) {
	if m == nil || m.callbacks == nil {
		return
	}
	m.callbacks.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncCallbackIgnored counts one callback that produced no state change.
func (m *SigningMetrics) IncCallbackIgnored() {
	if m == nil || m.callbacksIgnored == nil {
		return
	}
	m.callbacksIgnored.Inc()
}

// IncDevisSigned counts one devis reaching the signed state.
func (m *SigningMetrics) IncDevisSigned() {
	if m == nil || m.devisSigned == nil {
		return
	}
	m.devisSigned.Inc()
}

// ObserveProviderLatency records the duration of one provider HTTP call.
func (m *SigningMetrics) ObserveProviderLatency(operation string, duration time.Duration) {
	if m == nil || m.providerLatency == nil {
		return
	}
	m.providerLatency.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncNotifyForwarding counts one callback-URL forwarding attempt.
func (m *SigningMetrics) IncNotifyForwarding(result string) {
	if m == nil || m.notifyForwardings == nil {
		return
	}
	m.notifyForwardings.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
