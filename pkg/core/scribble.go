package core

import "fmt"

// Status describes how much of a scribble has been synced from storage.
type Status string

const (
	StatusCore         Status = "core"
	StatusMetadataOnly Status = "metadata-only"
	StatusBodyPending  Status = "body-pending"
	StatusSynced       Status = "synced"
	StatusFailed       Status = "failed"
)

// HasBody reports whether a scribble in this status carries its body.
func (s Status) HasBody() bool {
	return s == StatusCore || s == StatusSynced
}

// Scribble is the central entity of the domain: a content unit whose body is
// interpreted according to its content-type attribute.
type Scribble struct {
	ID         string             `json:"id"`
	Body       *string            `json:"body,omitempty"`
	Attributes Attributes         `json:"attributes"`
	Computed   ComputedAttributes `json:"computedAttributes"`
	Status     Status             `json:"status"`
	Error      string             `json:"error,omitempty"`
}

// NewSynced builds a fully synced scribble.
func NewSynced(id, body string, attrs Attributes) Scribble {
	return newScribble(id, &body, attrs, StatusSynced)
}

// NewCore builds a scribble that ships with the application.
func NewCore(id, body string, attrs Attributes) Scribble {
	return newScribble(id, &body, attrs, StatusCore)
}

// NewMetadataOnly builds a scribble whose body has not been pulled yet.
func NewMetadataOnly(id string, attrs Attributes) Scribble {
	return newScribble(id, nil, attrs, StatusMetadataOnly)
}

func newScribble(id string, body *string, attrs Attributes, status Status) Scribble {
	s := Scribble{
		ID:         id,
		Body:       body,
		Attributes: attrs.Clone(),
		Status:     status,
	}
	return s.recompute()
}

// IsSynced reports whether the body is available.
func (s Scribble) IsSynced() bool {
	return s.Status.HasBody() && s.Body != nil
}

// Text returns the body, or an empty string when it was not synced.
func (s Scribble) Text() string {
	if s.Body == nil {
		return ""
	}
	return *s.Body
}

func (s Scribble) Title() string       { return s.Attributes[AttrTitle] }
func (s Scribble) ContentType() string { return s.Attributes[AttrContentType] }
func (s Scribble) Element() string     { return s.Attributes[AttrElement] }

// DraftOf returns the origin id of a draft. The second value is false when
// the scribble is not a draft; an empty origin with true means the draft has
// no origin yet.
func (s Scribble) DraftOf() (string, bool) {
	origin, ok := s.Attributes[AttrDraftOf]
	return origin, ok
}

// IsDraft reports whether the scribble carries the draft marker.
func (s Scribble) IsDraft() bool {
	_, ok := s.DraftOf()
	return ok
}

// WithBody returns a copy holding body in the given status.
// Passing a status without body semantics is an invariant violation.
func (s Scribble) WithBody(body string, status Status) Scribble {
	if !status.HasBody() {
		panic(Invariant("Scribble.WithBody", "status %q cannot carry a body", status))
	}
	c := s.Clone()
	c.Body = &body
	c.Status = status
	c.Error = ""
	return c
}

// WithStatus returns a copy in a body-less status, dropping the body.
func (s Scribble) WithStatus(status Status, errMsg string) Scribble {
	c := s.Clone()
	if !status.HasBody() {
		c.Body = nil
	}
	c.Status = status
	c.Error = errMsg
	return c
}

// Clone returns a structural copy that shares no mutable state with s.
func (s Scribble) Clone() Scribble {
	c := s
	if s.Body != nil {
		body := *s.Body
		c.Body = &body
	}
	c.Attributes = s.Attributes.Clone()
	c.Computed = s.Computed.clone()
	return c
}

// Validate checks the body/status invariant.
func (s Scribble) Validate() error {
	if s.ID == "" {
		return ErrEmptyID
	}
	if s.Status.HasBody() != (s.Body != nil) {
		return fmt.Errorf("scribble %s: %w", s.ID,
			Invariant("Scribble.Validate", "status %q with body present=%t", s.Status, s.Body != nil))
	}
	return nil
}
