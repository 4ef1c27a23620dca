package printstate

import "klipperwatch/internal/printer"

const (
	msgNotReady     = "Printer not ready: "
	msgNoDetails    = "no details"
	msgIdle         = "Printer is idle"
	msgPrintError   = "Print error"
	msgComplete     = "Print complete"
	msgPaused       = "Print paused"
	msgUnrecognized = "Unrecognized print state: "
)

// Interpret maps a snapshot to exactly one State. It never fails: labels it
// does not recognise become PhaseUnknown.
func Interpret(s printer.Snapshot) State {
	label := s.PrintState
	if !s.PrinterReady {
		detail := s.ReadyMessage
		if detail == "" {
			detail = msgNoDetails
		}
		return State{Phase: PhaseNotReady, Label: label, Message: msgNotReady + detail}
	}
	switch label {
	case "standby":
		return State{Phase: PhaseStandby, Label: label, Message: msgIdle}
	case "error":
		msg := msgPrintError
		if s.ErrorMessage != "" {
			msg += ": " + s.ErrorMessage
		}
		return State{Phase: PhaseError, Label: label, Message: msg}
	case "complete":
		return State{Phase: PhaseComplete, Label: label, Message: withFile(msgComplete, s.FileName)}
	case "paused":
		return State{Phase: PhasePaused, Label: label, Message: withFile(msgPaused, s.FileName)}
	case "printing":
		return State{Phase: PhasePrinting, Label: label}
	default:
		return State{Phase: PhaseUnknown, Label: label, Message: msgUnrecognized + quoteEmpty(label)}
	}
}

func withFile(prefix, file string) string {
	if file == "" {
		return prefix
	}
	return prefix + ": " + file
}

func quoteEmpty(label string) string {
	if label == "" {
		return `""`
	}
	return label
}
