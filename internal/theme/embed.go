package theme

import "embed"

// defaultFS carries the built-in theme so a site renders out of the box
// without a themes directory on disk.
//
//go:embed default
var defaultFS embed.FS

// DefaultName identifies the embedded theme.
const DefaultName = "default"
