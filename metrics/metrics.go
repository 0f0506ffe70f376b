package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TopupsConfirmed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riparo_topups_confirmed_total",
		Help: "Confirmed credit topups by entity type",
	}, []string{"entity_type"})

	CommissionsCharged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riparo_loyalty_commissions_charged_total",
		Help: "Platform commissions charged on loyalty card activations",
	})

	CardsActivated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riparo_loyalty_cards_activated_total",
		Help: "Loyalty cards activated after a confirmed payment",
	})

	ForfeitureWarnings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riparo_forfeiture_warnings_total",
		Help: "Forfeiture warnings recorded by the sweeper",
	})

	RepairsForfeited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riparo_repairs_forfeited_total",
		Help: "Repairs transitioned to forfeited by the sweeper",
	})
)
