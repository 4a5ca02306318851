package catalog

import "fmt"

// MalformedError reports a template definition the engine cannot honor:
// unknown operation, ill-typed skeleton, missing text-pattern slot. It is
// raised once at load time and aborts the run before any search begins.
type MalformedError struct {
	TemplateID string
	Reason     string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("template %q malformed: %s", e.TemplateID, e.Reason)
}
