/*
Package observability exports viewhost lifecycle events as Prometheus metrics.

Metrics are fed by domain.LifecycleHooks, so any host can wire them alongside
its own hooks with Combine.
*/
package observability
