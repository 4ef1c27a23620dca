// Package monitor watches an in-progress print on behalf of chat
// conversations and tells each conversation when its print stops printing.
//
//   - registry.go: Registry, one Watch per conversation, timer ownership,
//     start/stop/replace semantics.
//   - scheduler.go: the per-tick policy (fetch, interpret, notify, finish).
//   - service.go: Service, the facade used by the HTTP layer.
//   - config.go: Config and package defaults.
//   - events.go: EventPublisher and the in-memory publisher used in tests.
//   - metrics.go: Prometheus collectors.
//
// A watch lives only while the printer keeps reporting "printing". The first
// tick runs after a short initial delay, later ticks one interval after the
// previous tick returned. Any other phase, or a failed fetch, produces one
// notification and removes the watch. Watches are kept in memory only; a
// restart forgets them.
package monitor
