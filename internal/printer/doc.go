// Package printer is the HTTP client for the Moonraker API in front of a
// Klipper printer.
//
// Client.Fetch issues
//
//	GET /printer/objects/query?webhooks&virtual_sdcard&print_stats
//
// and, when asked for an estimate while a job is printing or paused,
//
//	GET /server/files/metadata?filename=<name>
//
// Every error is a *Failure carrying a human readable Cause. Connection
// errors, timeouts, non-2xx answers, the tunnel's 530 "origin offline" answer
// and undecodable bodies all end up there, so callers only ever branch on
// "got a Snapshot" versus "got a Failure". The client does not retry; the
// monitor decides what a failure means.
package printer
