package resolver

import "fmt"

// Reason classifies a resolution failure.
type Reason string

const (
	ReasonUnknown  Reason = "unknown-reference"
	ReasonFetch    Reason = "fetch-failed"
	ReasonCompile  Reason = "compile-failed"
	ReasonCycle    Reason = "cycle"
	ReasonDepth    Reason = "depth-exceeded"
	ReasonStale    Reason = "stale-compile"
	ReasonRender   Reason = "render-failed"
	ReasonCanceled Reason = "canceled"
)

// ResolutionError describes why a reference could not be turned into a
// working renderer. It never leaves the resolver as a returned error; it is
// carried by the error renderer that replaces the failed one.
type ResolutionError struct {
	Ref    string
	Reason Reason
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("resolve %s: %s", e.Ref, e.Reason)
	}
	return fmt.Sprintf("resolve %s: %s: %v", e.Ref, e.Reason, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

func failure(ref string, reason Reason, err error) *ErrorRenderer {
	return &ErrorRenderer{Err: &ResolutionError{Ref: ref, Reason: reason, Err: err}}
}
