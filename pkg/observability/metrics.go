// Package observability exposes Prometheus metrics for the honeypot.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/baitline/baitline/pkg/extract"
)

const namespace = "baitline"

// Metrics bundles every collector the service updates.
type Metrics struct {
	MessagesProcessed  *prometheus.CounterVec
	TurnDuration       prometheus.Histogram
	JailbreakAttempts  prometheus.Counter
	ArtifactsExtracted *prometheus.CounterVec
	ScamSessions       prometheus.Counter
	LiveSessions       prometheus.GaugeFunc
	ExportsServed      prometheus.Counter
	ModelFailures      prometheus.Counter
	ForceExtracts      prometheus.Counter
	RenderRepairs      prometheus.Counter
	OSINTLookups       *prometheus.CounterVec
}

// New registers all collectors on reg. liveSessions is polled on scrape.
func New(reg prometheus.Registerer, liveSessions func() float64) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MessagesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_processed_total",
			Help:      "Inbound messages processed, by resulting state.",
		}, []string{"state"}),
		TurnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Time to process one inbound message.",
			Buckets:   prometheus.DefBuckets,
		}),
		JailbreakAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jailbreak_attempts_total",
			Help:      "Jailbreak probes deflected.",
		}),
		ArtifactsExtracted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_extracted_total",
			Help:      "Artifacts captured, by kind.",
		}, []string{"kind"}),
		ScamSessions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scam_sessions_total",
			Help:      "Sessions in which scam indicators were detected.",
		}),
		LiveSessions: factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_sessions",
			Help:      "Sessions currently held in memory.",
		}, liveSessions),
		ExportsServed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_served_total",
			Help:      "Intelligence exports served.",
		}),
		ModelFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_failures_total",
			Help:      "Completions that fell back to survival replies.",
		}),
		ForceExtracts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "force_extracts_total",
			Help:      "Turns short-circuited to extraction on a payment pattern.",
		}),
		RenderRepairs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_repairs_total",
			Help:      "Replies rewritten by the output contract repair step.",
		}),
		OSINTLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "osint_lookups_total",
			Help:      "Enrichment lookups, by provider and outcome.",
		}, []string{"provider", "outcome"}),
	}
}

// ObserveArtifacts bumps the per-kind extraction counters.
func (m *Metrics) ObserveArtifacts(a *extract.Artifacts) {
	if a == nil {
		return
	}
	m.ArtifactsExtracted.WithLabelValues("upi").Add(float64(len(a.UPIIDs)))
	m.ArtifactsExtracted.WithLabelValues("bank_account").Add(float64(len(a.BankAccounts)))
	m.ArtifactsExtracted.WithLabelValues("phishing_link").Add(float64(len(a.PhishingLinks)))
	m.ArtifactsExtracted.WithLabelValues("phone").Add(float64(len(a.PhoneNumbers)))
	m.ArtifactsExtracted.WithLabelValues("crypto_wallet").Add(float64(len(a.CryptoWallets)))
	m.ArtifactsExtracted.WithLabelValues("email").Add(float64(len(a.Emails)))
}
