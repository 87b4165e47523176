package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CertificatesGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "certificates_generated_total",
			Help: "Total certificates generated",
		},
	)

	CertificateFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "certificate_failures_total",
			Help: "Total failed certificate generations",
		},
	)

	EmailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Total emails sent",
		},
	)

	EmailFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "email_failures_total",
			Help: "Total failed email send attempts",
		},
	)
)

func Init() {
	prometheus.MustRegister(CertificatesGenerated)
	prometheus.MustRegister(CertificateFailures)
	prometheus.MustRegister(EmailsSent)
	prometheus.MustRegister(EmailFailures)
}
