// Package xmlformat reads and writes GnuCash XML documents, optionally
// wrapped in a gzip container. The reader is a single forward-only pass over
// the token stream; the writer materializes the inverse element tree.
package xmlformat

import (
	"fmt"
	"time"
)

// MalformedElementError indicates an element missing a required field, such
// as a split without a value or a commodity without an id. The load aborts;
// no partial document is returned.
type MalformedElementError struct {
	Element string
	Reason  string
}

func (e MalformedElementError) Error() string {
	return fmt.Sprintf("malformed %s element: %s", e.Element, e.Reason)
}

const (
	timestampLayout = "2006-01-02 15:04:05 -0700"
	gdateLayout     = "2006-01-02"
)

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

func formatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

func parseGDate(s string) (time.Time, error) {
	t, err := time.Parse(gdateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

func formatGDate(t time.Time) string {
	return t.Format(gdateLayout)
}
