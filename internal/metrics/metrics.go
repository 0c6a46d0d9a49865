package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WeatherAPICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecastbot_weather_api_calls_total",
			Help: "Total Weather Underground API calls",
		},
		[]string{"status"},
	)

	WeatherAPILatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecastbot_weather_api_latency_seconds",
			Help:    "Weather Underground API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RedditAPICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecastbot_reddit_api_calls_total",
			Help: "Total Reddit API calls",
		},
		[]string{"endpoint", "status"},
	)

	CommentsSeenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forecastbot_comments_seen_total",
			Help: "Total comments inspected by the polling engine",
		},
	)

	RepliesPostedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forecastbot_replies_posted_total",
			Help: "Total replies successfully posted",
		},
	)

	CommentsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecastbot_comments_skipped_total",
			Help: "Comments skipped before the reply pipeline ran",
		},
		[]string{"reason"}, // "no_call" or "already_replied"
	)

	PipelineErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecastbot_pipeline_errors_total",
			Help: "Per-comment pipeline failures by stage",
		},
		[]string{"stage"}, // "ledger_check", "fetch", "reply", "ledger_record"
	)
)
