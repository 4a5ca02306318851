package clear

import _ "embed"

// Version is the generator release, embedded from the VERSION file so the
// CLI and library always agree.
//
//go:embed VERSION
var Version string
