// Package types holds the JSON request and response bodies of the klipperwatch
// HTTP API.
package types

import "time"

// MonitorResponse is returned by POST and DELETE /monitors/{conversationID}.
type MonitorResponse struct {
	// Outcome of the request: started, already_active, stopped or not_active.
	// example: started
	Result string `json:"result" example:"started"`
	// ID of the watch, present when a watch exists after the request.
	WatchID string `json:"watch_id,omitempty"`
}

// Monitor outcomes reported in MonitorResponse.Result.
const (
	ResultStarted       = "started"
	ResultAlreadyActive = "already_active"
	ResultStopped       = "stopped"
	ResultNotActive     = "not_active"
)

// Monitor summarizes one active watch for GET /monitors.
type Monitor struct {
	// Watch ID (UUID).
	ID string `json:"id"`
	// Conversation the watch reports to.
	// example: 123456789
	ConversationID string `json:"conversation_id" example:"123456789"`
	// Time the watch was created.
	CreatedAt time.Time `json:"created_at"`
	// Number of ticks run so far.
	// example: 3
	Ticks int `json:"ticks" example:"3"`
}

// MonitorsResponse wraps the list returned by GET /monitors.
type MonitorsResponse struct {
	Monitors []Monitor `json:"monitors"`
}

// StatusReportResponse is returned by GET /printer/status.
type StatusReportResponse struct {
	// Human readable report.
	// example: Printing: benchy.gcode\nProgress: 42%\nTime remaining: 00:31:10
	Report string `json:"report"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: printer is powered off or offline (status 530)
	Error string `json:"error" example:"printer is powered off or offline (status 530)"`
	// HTTP status code.
	// example: 502
	Code int `json:"code" example:"502"`
}
