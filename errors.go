package soflow

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// FaultKind tags a failure so that callers can branch on what went wrong
// instead of matching error strings.
type FaultKind string

const (
	// SchemaViolation - a record failed required-field or type checks.
	// Routed to the dead-letter channel, never retried automatically.
	SchemaViolation FaultKind = "schema_violation"
	// MalformedPayload - a byte stream could not be decoded against the
	// schema. Surfaced so the transport redelivers.
	MalformedPayload FaultKind = "malformed_payload"
	// TransportRejected - a publish was rejected by the transport.
	TransportRejected FaultKind = "transport_rejected"
	// StorageFailure - an object store read or write failed.
	StorageFailure FaultKind = "storage_failure"
	// LoadJobFailure - a warehouse load job failed; the loader run aborts
	// without committing its checkpoint.
	LoadJobFailure FaultKind = "load_job_failure"
	// ProvisionFailure - dataset creation failed for a reason other than
	// already-exists.
	ProvisionFailure FaultKind = "provision_failure"
)

// Fault is an error carrying a FaultKind.
type Fault struct {
	Kind FaultKind
	Err  error
}

func (f *Fault) Error() string {
	return string(f.Kind) + ": " + f.Err.Error()
}

func (f *Fault) Unwrap() error { return f.Err }

// Cause supports github.com/pkg/errors style unwrapping.
func (f *Fault) Cause() error { return f.Err }

// Faultf makes a Fault from a format string.
func Faultf(kind FaultKind, format string, args ...interface{}) *Fault {
	return &Fault{Kind: kind, Err: errors.Errorf(format, args...)}
}

// FaultWrap makes a Fault wrapping an underlying error.
func FaultWrap(kind FaultKind, err error, msg string) *Fault {
	return &Fault{Kind: kind, Err: errors.Wrap(err, msg)}
}

// KindOf returns the FaultKind of err, or "" if err carries none.
func KindOf(err error) FaultKind {
	var f *Fault
	if stderrors.As(err, &f) {
		return f.Kind
	}
	return ""
}
