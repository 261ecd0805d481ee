package enrich

// Status is the state of one enrichment sub-lookup.
type Status string

const (
	// StatusOK means Value holds the looked-up data.
	StatusOK Status = "ok"

	// StatusAbsent means the lookup ran, or could not apply, and found nothing.
	StatusAbsent Status = "absent"

	// StatusUnavailable means a cosmetic lookup failed; the failure was absorbed.
	StatusUnavailable Status = "unavailable"

	// StatusFailed means a required lookup failed; Reason carries the cause.
	StatusFailed Status = "failed"
)

// Outcome is the structured result of a sub-lookup: a value, or the reason there is none.
type Outcome[T any] struct {
	Status Status `json:"status"`
	Value  *T     `json:"value"`
	Reason string `json:"reason,omitempty"`
}

// OK wraps a value.
func OK[T any](v T) Outcome[T] {
	return Outcome[T]{Status: StatusOK, Value: &v}
}

// Absent records that nothing was found.
func Absent[T any](reason string) Outcome[T] {
	return Outcome[T]{Status: StatusAbsent, Reason: reason}
}

// Unavailable records an absorbed failure.
func Unavailable[T any](reason string) Outcome[T] {
	return Outcome[T]{Status: StatusUnavailable, Reason: reason}
}

// Failed records a failure the caller must see.
func Failed[T any](reason string) Outcome[T] {
	return Outcome[T]{Status: StatusFailed, Reason: reason}
}
