package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// parseSince understands natural language ("yesterday", "last week", "3
// days ago") and plain dates
func parseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}

	formats := []string{
		"2006-01-02",
		"2006-01-02T15:04:05",
		time.RFC3339,
		"2006/01/02",
		"02/01/2006",
	}
	for _, format := range formats {
		if t, err := time.ParseInLocation(format, s, time.Local); err == nil {
			return t, nil
		}
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	result, err := w.Parse(s, now)
	if err == nil && result != nil {
		return result.Time, nil
	}
	return time.Time{}, fmt.Errorf("could not parse date %q", s)
}
