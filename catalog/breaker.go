package catalog

import (
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"realestate-insights/metrics"
	"realestate-insights/utils"
)

const breakerName = "catalog-api"

// pageResult is what one page GET produced before status classification.
type pageResult struct {
	status int
	body   []byte
}

// newPageBreaker guards page requests. Transport errors and 5xx responses
// count as failures; 4xx responses, including 401, pass through untouched.
func newPageBreaker(logger *utils.Logger) *gobreaker.CircuitBreaker[*pageResult] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[*pageResult](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("[catalog] Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
