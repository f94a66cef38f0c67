package observe

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	connectionState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "feedwatch_connection_state",
		Help: "Current supervisor state (0 connecting, 1 handshaking, 2 live, 3 closed)",
	})

	connectionAttempts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedwatch_connection_attempts_total",
		Help: "Total connection attempts, including reconnects",
	})

	connectionClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedwatch_connection_closed_total",
			Help: "Total transport closes by close code",
		},
		[]string{"code"},
	)

	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedwatch_frames_total",
			Help: "Total inbound frames by type tag",
		},
		[]string{"type"},
	)

	framesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedwatch_frames_dropped_total",
			Help: "Total inbound frames dropped by reason",
		},
		[]string{"reason"}, // empty|malformed
	)

	subscriptionsActive = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedwatch_subscriptions_active_total",
		Help: "Total handshakes that reached the live state",
	})

	playerJoins = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedwatch_player_joins_total",
		Help: "Total player join notifications reported",
	})

	unknownResources = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedwatch_unknown_resource_total",
		Help: "Total activity frames naming a server absent from the current snapshot",
	})

	upstreamErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedwatch_upstream_errors_total",
		Help: "Total error frames received from the feed",
	})

	eligibleResources = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "feedwatch_eligible_resources",
		Help: "Number of eligible servers in the latest directory snapshot",
	})

	directoryFetchSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "feedwatch_directory_fetch_seconds",
		Help:    "Directory fetch latency",
		Buckets: prometheus.DefBuckets,
	})

	directoryFetchErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedwatch_directory_fetch_errors_total",
		Help: "Total failed directory fetches",
	})

	sinkErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedwatch_sink_errors_total",
			Help: "Total notification sink failures by sink and reason",
		},
		[]string{"sink", "reason"},
	)
)

func init() {
	prometheus.MustRegister(
		connectionState,
		connectionAttempts,
		connectionClosed,
		framesTotal,
		framesDropped,
		subscriptionsActive,
		playerJoins,
		unknownResources,
		upstreamErrors,
		eligibleResources,
		directoryFetchSeconds,
		directoryFetchErrors,
		sinkErrors,
	)
}

func SetState(state int)       { connectionState.Set(float64(state)) }
func IncAttempt()              { connectionAttempts.Inc() }
func IncClosed(code int)       { connectionClosed.WithLabelValues(strconv.Itoa(code)).Inc() }
func IncFrame(msgType string)  { framesTotal.WithLabelValues(msgType).Inc() }
func IncDropped(reason string) { framesDropped.WithLabelValues(reason).Inc() }
func IncSubscriptionActive()   { subscriptionsActive.Inc() }
func IncPlayerJoin()           { playerJoins.Inc() }
func IncUnknownResource()      { unknownResources.Inc() }
func IncUpstreamError()        { upstreamErrors.Inc() }
func SetEligible(n int)        { eligibleResources.Set(float64(n)) }
func IncSinkError(sink, reason string) {
	sinkErrors.WithLabelValues(sink, reason).Inc()
}

// ObserveDirectoryFetch records the latency of one directory fetch and whether it failed.
func ObserveDirectoryFetch(d time.Duration, err error) {
	directoryFetchSeconds.Observe(d.Seconds())
	if err != nil {
		directoryFetchErrors.Inc()
	}
}
