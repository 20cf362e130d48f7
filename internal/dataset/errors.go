package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDataUnavailable is matched by every loader failure
var ErrDataUnavailable = errors.New("admissions data unavailable")

// DataUnavailableError describes why one source could not be turned into rows
type DataUnavailableError struct {
	Path   string
	Year   int
	Line   int // 1-based; zero when the whole file is affected
	Reason string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	var b strings.Builder
	b.WriteString(ErrDataUnavailable.Error())
	fmt.Fprintf(&b, ": year %d (%s)", e.Year, e.Path)
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the sentinel and the underlying cause
func (e *DataUnavailableError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDataUnavailable}
	}
	return []error{ErrDataUnavailable, e.Err}
}
