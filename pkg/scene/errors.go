package scene

import "fmt"

// IncompleteError reports a scene graph that is structurally inconsistent or
// uses vocabulary the catalog does not recognize. It is fatal for the scene
// (the orchestrator skips it) but never for the run.
type IncompleteError struct {
	SceneID string
	Reason  string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("scene %q incomplete: %s", e.SceneID, e.Reason)
}
