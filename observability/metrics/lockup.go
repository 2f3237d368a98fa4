package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type LockupMetrics struct {
	locks               prometheus.Counter
	unlocks             prometheus.Counter
	interestWithdrawals prometheus.Counter
	interestPaid        prometheus.Counter
	holderWithdrawals   prometheus.Counter
	holderPaid          prometheus.Counter
	totalStaked         prometheus.Gauge
	roundingDust        *prometheus.GaugeVec
}

var (
	lockupOnce     sync.Once
	lockupRegistry *LockupMetrics
)

func Lockup() *LockupMetrics {
	lockupOnce.Do(func() {
		lockupRegistry = &LockupMetrics{
			locks: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "lockup_locks_total",
				Help: "Count of successful stake lock operations.",
			}),
			unlocks: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "lockup_unlocks_total",
				Help: "Count of successful stake unlock operations.",
			}),
			interestWithdrawals: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "lockup_interest_withdrawals_total",
				Help: "Count of successful interest withdrawals.",
			}),
			interestPaid: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "lockup_interest_paid_units_total",
				Help: "Total interest reward units minted.",
			}),
			holderWithdrawals: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "lockup_holder_withdrawals_total",
				Help: "Count of successful holder reward withdrawals.",
			}),
			holderPaid: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "lockup_holder_paid_units_total",
				Help: "Total holder reward units minted.",
			}),
			totalStaked: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "lockup_total_staked",
				Help: "Current total staked amount across all properties.",
			}),
			roundingDust: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "lockup_rounding_dust",
				Help: "Truncated basis remainder observed at the last withdrawal per stream.",
			}, []string{"stream"}),
		}
		prometheus.MustRegister(
			lockupRegistry.locks,
			lockupRegistry.unlocks,
			lockupRegistry.interestWithdrawals,
			lockupRegistry.interestPaid,
			lockupRegistry.holderWithdrawals,
			lockupRegistry.holderPaid,
			lockupRegistry.totalStaked,
			lockupRegistry.roundingDust,
		)
	})
	return lockupRegistry
}

func asFloat(value *big.Int) float64 {
	if value == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(value).Float64()
	return f
}

func (m *LockupMetrics) RecordLock() {
	if m == nil {
		return
	}
	m.locks.Inc()
}

func (m *LockupMetrics) RecordUnlock() {
	if m == nil {
		return
	}
	m.unlocks.Inc()
}

func (m *LockupMetrics) ObserveRoundingDust(stream string, dust *big.Int) {
	if m == nil {
		return
	}
	m.roundingDust.WithLabelValues(stream).Set(asFloat(dust))
}

func (m *LockupMetrics) RecordInterestWithdrawal(amount *big.Int) {
	if m == nil {
		return
	}
	m.interestWithdrawals.Inc()
	m.interestPaid.Add(asFloat(amount))
}

func (m *LockupMetrics) RecordHolderWithdrawal(amount *big.Int) {
	if m == nil {
		return
	}
	m.holderWithdrawals.Inc()
	m.holderPaid.Add(asFloat(amount))
}

func (m *LockupMetrics) SetTotalStaked(total *big.Int) {
	if m == nil {
		return
	}
	m.totalStaked.Set(asFloat(total))
}
