// Package trust — metrics.go регистрирует Prometheus-метрики движка.
package trust

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics — счётчики движка доверия.
// Сервис принимает nil-метрики (в тестах), все инкременты nil-безопасны.
type Metrics struct {
	ActionsApplied    *prometheus.CounterVec
	ActionsReversed   *prometheus.CounterVec
	ManualAdjustments prometheus.Counter
	RateLimitDenials  *prometheus.CounterVec
	BonusCredited     prometheus.Counter
	BonusSkipped      prometheus.Counter
	BonusErrors       prometheus.Counter
}

// NewMetrics создаёт и регистрирует метрики в дефолтном регистре.
func NewMetrics() *Metrics {
	return &Metrics{
		ActionsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trust_actions_applied_total",
			Help: "Применённые trust-действия по видам",
		}, []string{"action"}),
		ActionsReversed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trust_actions_reversed_total",
			Help: "Отменённые trust-действия по видам",
		}, []string{"action"}),
		ManualAdjustments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trust_manual_adjustments_total",
			Help: "Ручные корректировки счёта администраторами",
		}),
		RateLimitDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trust_ratelimit_denials_total",
			Help: "Отказы лимитера по причинам (daily, vote_window)",
		}, []string{"reason"}),
		BonusCredited: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trust_monthly_bonus_credited_total",
			Help: "Начисленные месячные бонусы",
		}),
		BonusSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trust_monthly_bonus_skipped_total",
			Help: "Пропуски бонуса (уже начислен в этом месяце)",
		}),
		BonusErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trust_monthly_bonus_errors_total",
			Help: "Ошибки начисления бонуса по отдельным пользователям",
		}),
	}
}

func (m *Metrics) incApplied(action Action) {
	if m != nil {
		m.ActionsApplied.WithLabelValues(string(action)).Inc()
	}
}

func (m *Metrics) incReversed(action Action) {
	if m != nil {
		m.ActionsReversed.WithLabelValues(string(action)).Inc()
	}
}

func (m *Metrics) incManual() {
	if m != nil {
		m.ManualAdjustments.Inc()
	}
}

func (m *Metrics) incDenial(reason string) {
	if m != nil {
		m.RateLimitDenials.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) incBonusCredited() {
	if m != nil {
		m.BonusCredited.Inc()
	}
}

func (m *Metrics) incBonusSkipped() {
	if m != nil {
		m.BonusSkipped.Inc()
	}
}

func (m *Metrics) incBonusError() {
	if m != nil {
		m.BonusErrors.Inc()
	}
}
