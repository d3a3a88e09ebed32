package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	swipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skillswipe",
			Subsystem: "swipe",
			Name:      "recorded_total",
			Help:      "已记录的 swipe 数量。",
		},
		[]string{"swipe_type"},
	)

	swipeRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skillswipe",
			Subsystem: "swipe",
			Name:      "rejected_total",
			Help:      "被拒绝的 swipe 数量，按错误类别统计。",
		},
		[]string{"reason"},
	)

	matchesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skillswipe",
			Subsystem: "match",
			Name:      "created_total",
			Help:      "新建匹配数量，按判定规则统计。",
		},
		[]string{"rule"},
	)
)

// ObserveSwipe 记录一次成功写入的 swipe。
func ObserveSwipe(swipeType string) {
	swipesTotal.WithLabelValues(swipeType).Inc()
}

// ObserveSwipeRejected 记录一次被拒绝的 swipe。
func ObserveSwipeRejected(reason string) {
	swipeRejectedTotal.WithLabelValues(reason).Inc()
}

// ObserveMatchCreated 记录一次新建的匹配。
func ObserveMatchCreated(rule string) {
	matchesCreatedTotal.WithLabelValues(rule).Inc()
}
