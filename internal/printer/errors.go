package printer

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a printer request failed.
type FailureKind string

const (
	// FailureTransport covers connection errors and timeouts.
	FailureTransport FailureKind = "transport"
	// FailureStatus is a non-2xx answer from the printer API.
	FailureStatus FailureKind = "http_status"
	// FailurePrinterOffline is the 530 answer the access tunnel gives when
	// the printer host is powered off or disconnected.
	FailurePrinterOffline FailureKind = "printer_offline"
	// FailureDecode is a response body that could not be read as expected.
	FailureDecode FailureKind = "decode"
)

// StatusPrinterOffline is returned by the tunnel in front of the printer when
// the origin is unreachable.
const StatusPrinterOffline = 530

// Failure is the only error type Client returns. Cause is meant for humans.
type Failure struct {
	Kind       FailureKind
	StatusCode int
	Cause      string
	Err        error
}

func (f *Failure) Error() string { return f.Cause }

func (f *Failure) Unwrap() error { return f.Err }

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsPrinterOffline reports whether err is a 530 printer-offline failure.
func IsPrinterOffline(err error) bool {
	f, ok := AsFailure(err)
	return ok && f.Kind == FailurePrinterOffline
}

func transportFailure(err error) *Failure {
	return &Failure{Kind: FailureTransport, Cause: fmt.Sprintf("printer unreachable: %v", err), Err: err}
}

func statusFailure(code int, reason string) *Failure {
	if code == StatusPrinterOffline {
		return &Failure{
			Kind:       FailurePrinterOffline,
			StatusCode: code,
			Cause:      "printer is powered off or offline (status 530)",
		}
	}
	return &Failure{
		Kind:       FailureStatus,
		StatusCode: code,
		Cause:      fmt.Sprintf("printer API returned status %d: %s", code, reason),
	}
}

func decodeFailure(err error) *Failure {
	return &Failure{Kind: FailureDecode, Cause: fmt.Sprintf("unreadable printer response: %v", err), Err: err}
}
