// Package diagfmt renders diagnostics and token dumps for terminal and
// machine consumers.
package diagfmt

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeFull prints the path as stored in the file set.
	PathModeFull PathMode = iota
	// PathModeBasename prints only the final path element.
	PathModeBasename
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	PathMode  PathMode
	// Context is the number of source lines shown above the primary line.
	Context   int
	ShowNotes bool
	ShowFixes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	// IncludePositions adds line/col pairs next to the byte offsets.
	IncludePositions bool
	PathMode         PathMode
	// Max truncates the output, not the bag itself. 0 means no limit.
	Max          int
	IncludeNotes bool
	IncludeFixes bool
}
