package parsers

import (
	"fmt"
	"strings"
)

// UnsupportedFormatError reports a file no registered parser claims.
type UnsupportedFormatError struct {
	Path      string
	Supported []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("no parser recognizes %s (supported formats: %s)",
		e.Path, strings.Join(e.Supported, ", "))
}

// InvalidExportError reports a file that matched a parser's format
// check but whose contents could not be decoded at all.
type InvalidExportError struct {
	Path   string
	Source string
	Reason string
}

func (e *InvalidExportError) Error() string {
	return fmt.Sprintf("invalid %s export %s: %s", e.Source, e.Path, e.Reason)
}
