package patterns

import "fmt"

// FileNotFoundError represents a missing pattern file.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("pattern file not found: %s", e.Path)
}

// InvalidPatternError represents a pattern file that parsed but cannot be
// compiled: a bad regex, an empty required list, and so on.
type InvalidPatternError struct {
	Path    string // empty for the embedded defaults
	List    string // yaml key of the offending list
	Pattern string // offending entry, if a single entry is at fault
	Message string
}

func (e *InvalidPatternError) Error() string {
	msg := "invalid pattern"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.List != "" {
		msg += fmt.Sprintf(" (list %q)", e.List)
	}
	if e.Pattern != "" {
		msg += fmt.Sprintf(": %q", e.Pattern)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}
