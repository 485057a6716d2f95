// Package notifications delivers job events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when no topic is set. Callers depend
// only on the Service interface and pass event details as a Payload map.
package notifications
