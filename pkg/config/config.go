// Package config holds environment-driven knobs for the evaluation core,
// which has no configuration file of its own: everything ambient comes
// from the process environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// DefaultEpsilon is the tolerance used to decide whether a score's raw
// value matches a metric's fails_on sentinel.
const DefaultEpsilon = 1e-4

// DefaultQueueTimeout is a per-attempt queue wait of 5 seconds. No code in
// this module reads it: pkg/comm queue writes never block, since a full
// queue evicts its oldest entry.
const DefaultQueueTimeout = 5 * time.Second

// MaxQueueAttempts is a queue-write attempt bound of 10. No code in this
// module reads it: pkg/comm queue writes always succeed on the first
// attempt and are never retried.
const MaxQueueAttempts = 10

// Epsilon returns the failure-detection tolerance, honoring METRIC_EPSILON.
func Epsilon() float64 {
	if raw := os.Getenv("METRIC_EPSILON"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v >= 0 {
			return v
		}
	}
	return DefaultEpsilon
}

// UDPLogPort returns the port configured by UDP_LOG_PORT and whether a
// datagram log handler should be enabled at all.
func UDPLogPort() (port int, enabled bool) {
	raw := os.Getenv("UDP_LOG_PORT")
	if raw == "" {
		return 0, false
	}
	p, err := strconv.Atoi(raw)
	if err != nil || p <= 0 {
		return 0, false
	}
	return p, true
}
