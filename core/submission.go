package core

// HoneypotField is the hidden form field. Humans never see it; anything
// that fills it is treated as an automated submitter.
const HoneypotField = "website"

// Submission is an inbound contact-form request body. The business
// fields live under Data; the verification token and the honeypot field
// may appear at the top level or nested inside Data, depending on how
// the widget injected them.
type Submission struct {
	Data  map[string]any
	Extra map[string]any // top-level keys other than "data"
}

// Field returns the named top-level-or-nested value as a string.
// Top level wins when both are present, matching the original widgets.
func (s *Submission) Field(name string) string {
	if v, ok := s.Extra[name].(string); ok && v != "" {
		return v
	}
	if v, ok := s.Data[name].(string); ok {
		return v
	}
	return ""
}

// Strip removes the named field from both levels. Used to sanitize the
// payload before it is forwarded: the content schema does not recognize
// verification artifacts.
func (s *Submission) Strip(name string) {
	delete(s.Extra, name)
	delete(s.Data, name)
}

// CreatedMessage is the content collaborator's representation of a
// stored contact message.
type CreatedMessage struct {
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes"`
}
