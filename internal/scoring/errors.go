package scoring

import "fmt"

// ConfigurationError reports a non-numeric metric weight, an empty metric
// list at scoring time, a non-positive threshold weight, or a duplicate
// threshold registration.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return "scoring: " + e.Reason }

// NoMetricsConfiguredError reports that a ScoringScheme was asked to
// score with an empty metric list.
type NoMetricsConfiguredError struct{}

func (e *NoMetricsConfiguredError) Error() string {
	return "scoring: no metrics configured - values cannot be scored and aggregated"
}

// LookupError reports a reference to an unknown threshold or metric in a
// Scores or MetricResults accessor.
type LookupError struct {
	Reason string
}

func (e *LookupError) Error() string { return "scoring: " + e.Reason }

func newLookupError(format string, args ...any) error {
	return &LookupError{Reason: fmt.Sprintf(format, args...)}
}
