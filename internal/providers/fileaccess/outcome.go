package fileaccess

// Outcome is the result of one remote document-service operation. The
// service reports success through two independent signals: the HTTP status
// and an IsOperationComplete flag embedded in the response body. A 200
// response with IsOperationComplete=false means the call ran but the target
// is no longer available (checked out elsewhere, expired, or deleted).
//
// The outcome is classified exactly once, here at the client boundary.
// Callers switch on it; raw status codes never travel further.
type Outcome int

const (
	// OutcomeSuccess: transport succeeded and the service reported the
	// operation complete.
	OutcomeSuccess Outcome = iota
	// OutcomeIncomplete: transport succeeded but the service reported
	// IsOperationComplete=false. Not retryable without restarting the
	// surrounding workflow.
	OutcomeIncomplete
	// OutcomeTransportFailure: the call never ran to completion (network
	// error, timeout, or non-2xx status). Safe to retry.
	OutcomeTransportFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeIncomplete:
		return "incomplete"
	case OutcomeTransportFailure:
		return "transport_failure"
	default:
		return "unknown"
	}
}
