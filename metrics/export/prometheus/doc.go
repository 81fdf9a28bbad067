// Package prometheus renders credflow engine metrics in the Prometheus text
// exposition format.
//
// [NewExporter] reads [credflow.Engine.MetricsSnapshot] on every scrape and
// serves it through [Exporter.Handler]. Counter names are credflow_*_total;
// the single histogram is credflow_validate_latency_seconds. Notification
// pool activity is exported alongside.
//
// Callers mount the handler themselves; nothing is registered globally.
package prometheus
