package localfs

// ListOptions configures the behavior of ListDirectory.
type ListOptions struct {
	// IncludeHidden includes entries with the hidden/system attribute set.
	// Default is false (hidden entries excluded).
	IncludeHidden bool

	// IncludeParent prepends the ".." pseudo-entry when the listed path
	// has a parent. Default is false.
	IncludeParent bool
}

// WalkOptions configures the behavior of Walk.
type WalkOptions struct {
	// IncludeHidden includes hidden files and directories in the walk.
	// Default is false (hidden items excluded).
	IncludeHidden bool

	// SkipHiddenDirs skips descending into hidden directories entirely.
	// Only meaningful when IncludeHidden is false.
	SkipHiddenDirs bool
}
