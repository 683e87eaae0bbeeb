package services

import (
	"fmt"
	"time"
)

// AlertThresholds defines when a completed run is reported as degraded
type AlertThresholds struct {
	MinParsedRate         float64 // Alert if fewer listings than this parse cleanly
	MaxUnknownAgeRate     float64 // Alert if more parsed listings than this have no usable age
	MaxDetailFailureRate  float64 // Alert if more detail fetches than this fail
	MaxTimeoutBudgetShare float64 // Alert if the run used more of its timeout than this
	MinListings           int     // Rates are only checked once this many listings were seen
}

// DefaultAlertThresholds returns the thresholds used by the scheduled run
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		MinParsedRate:         0.8,
		MaxUnknownAgeRate:     0.5,
		MaxDetailFailureRate:  0.5,
		MaxTimeoutBudgetShare: 0.8,
		MinListings:           5,
	}
}

// ExtractionAlert represents a degraded but successful run. Alerts never
// fail an invocation; they are logged so partial markup drift is noticed
// before the page stops parsing altogether.
type ExtractionAlert struct {
	Type      string  `json:"type"`     // parse_rate|unknown_age|detail_failures|slow_run
	Severity  string  `json:"severity"` // warning|error
	Message   string  `json:"message"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// ExtractionMetrics collects the per-stage counters of one invocation
type ExtractionMetrics struct {
	Parse   ParseStats
	Enrich  EnrichStats
	Elapsed time.Duration
	Timeout time.Duration
}

// CheckAlerts compares the metrics against thresholds
func (em ExtractionMetrics) CheckAlerts(thresholds AlertThresholds) []ExtractionAlert {
	var alerts []ExtractionAlert

	if em.Parse.Listings >= thresholds.MinListings {
		parsedRate := ratio(em.Parse.Parsed, em.Parse.Listings)
		if parsedRate < thresholds.MinParsedRate {
			severity := "warning"
			if parsedRate < thresholds.MinParsedRate/2 {
				severity = "error"
			}
			alerts = append(alerts, ExtractionAlert{
				Type:      "parse_rate",
				Severity:  severity,
				Message:   fmt.Sprintf("Only %d of %d listings parsed (%.1f%%)", em.Parse.Parsed, em.Parse.Listings, parsedRate*100),
				Value:     parsedRate,
				Threshold: thresholds.MinParsedRate,
			})
		}
	}

	if em.Parse.Parsed >= thresholds.MinListings {
		unknownRate := ratio(em.Parse.UnknownAge, em.Parse.Parsed)
		if unknownRate > thresholds.MaxUnknownAgeRate {
			alerts = append(alerts, ExtractionAlert{
				Type:      "unknown_age",
				Severity:  "warning",
				Message:   fmt.Sprintf("%d of %d listings have no recognizable age (%.1f%%)", em.Parse.UnknownAge, em.Parse.Parsed, unknownRate*100),
				Value:     unknownRate,
				Threshold: thresholds.MaxUnknownAgeRate,
			})
		}
	}

	if em.Enrich.Attempted > 0 {
		failureRate := ratio(em.Enrich.Failed, em.Enrich.Attempted)
		if failureRate > thresholds.MaxDetailFailureRate {
			alerts = append(alerts, ExtractionAlert{
				Type:      "detail_failures",
				Severity:  "warning",
				Message:   fmt.Sprintf("%d of %d detail pages failed (%.1f%%)", em.Enrich.Failed, em.Enrich.Attempted, failureRate*100),
				Value:     failureRate,
				Threshold: thresholds.MaxDetailFailureRate,
			})
		}
	}

	if em.Timeout > 0 {
		share := float64(em.Elapsed) / float64(em.Timeout)
		if share > thresholds.MaxTimeoutBudgetShare {
			alerts = append(alerts, ExtractionAlert{
				Type:      "slow_run",
				Severity:  "warning",
				Message:   fmt.Sprintf("Run took %dms of a %dms budget", em.Elapsed.Milliseconds(), em.Timeout.Milliseconds()),
				Value:     share,
				Threshold: thresholds.MaxTimeoutBudgetShare,
			})
		}
	}

	return alerts
}

func ratio(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}
