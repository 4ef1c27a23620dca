package printstate

import (
	"fmt"
	"math"
	"strings"

	"klipperwatch/internal/printer"
)

const unknownETA = "unknown"

// Report renders the one-shot status answer. Printing and paused jobs get
// progress and remaining time; every other phase gets its Interpret message.
func Report(s printer.Snapshot) string {
	st := Interpret(s)
	var title string
	switch st.Phase {
	case PhasePrinting:
		title = "Printing"
	case PhasePaused:
		title = "Paused"
	default:
		return st.Message
	}

	var b strings.Builder
	b.WriteString(title)
	if s.FileName != "" {
		b.WriteString(": ")
		b.WriteString(s.FileName)
	}
	fmt.Fprintf(&b, "\nProgress: %d%%", ProgressPercent(s.Progress))
	fmt.Fprintf(&b, "\nTime remaining: %s", Remaining(s))
	return b.String()
}

// ProgressPercent is round(fraction*100).
func ProgressPercent(fraction float64) int {
	return int(math.Round(fraction * 100))
}

// Remaining formats estimate*(1-progress) as hh:mm:ss, or "unknown" when the
// snapshot has no usable estimate.
func Remaining(s printer.Snapshot) string {
	if s.EstimatedSeconds == nil {
		return unknownETA
	}
	est := *s.EstimatedSeconds
	if est <= 0 || math.IsNaN(est) || math.IsInf(est, 0) {
		return unknownETA
	}
	return FormatDuration(est * (1 - s.Progress))
}

// FormatDuration truncates seconds to whole seconds and renders hh:mm:ss.
// Hours keep counting past 24.
func FormatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}
