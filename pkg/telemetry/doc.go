// Package telemetry provides the observability layer for toolforge runs:
// structured logging over zerolog, the ordered run event log with its
// fan-out sinks, and Prometheus counters gathered into the final report.
package telemetry
