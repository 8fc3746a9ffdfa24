// SPDX-License-Identifier: GPL-3.0-or-later

package dnswalk

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts what the [*Resolver] does.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	queries     *prometheus.CounterVec
	referrals   *prometheus.CounterVec
	resolutions *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dnswalk_queries_total",
				Help: "How many queries were sent to nameservers",
			},
			[]string{"qtype", "result"},
		),
		referrals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dnswalk_referrals_total",
				Help: "How many referrals were followed",
			},
			[]string{"kind"},
		),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dnswalk_resolutions_total",
				Help: "How many top-level resolutions completed",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.queries, m.referrals, m.resolutions)
	return m
}

func (m *Metrics) query(qtype RecordType, result string) {
	if m != nil {
		m.queries.With(prometheus.Labels{"qtype": qtype.String(), "result": result}).Inc()
	}
}

func (m *Metrics) referral(kind string) {
	if m != nil {
		m.referrals.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) resolution(err error) {
	if m == nil {
		return
	}
	outcome := "resolved"
	if err != nil {
		outcome = "failed"
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}
