package navigation

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/trialmatch/workspace/gateway"
	"github.com/trialmatch/workspace/pointer"
)

const (
	NotAvailable = "not available"
	NoneParsed   = "none parsed"
)

// FormatList renders a profile list. A list absent from the response is "not available", a
// list the server returned empty is "none parsed".
func FormatList(values []string) string {
	if values == nil {
		return NotAvailable
	}
	if len(values) == 0 {
		return NoneParsed
	}
	return strings.Join(values, ", ")
}

func FormatText(value *string) string {
	if text := pointer.ToString(value); text != "" {
		return text
	}
	return NotAvailable
}

func FormatScore(score *float64) string {
	if score == nil {
		return NotAvailable
	}
	return strconv.FormatFloat(*score, 'f', 2, 64)
}

func FormatMode(mode gateway.Mode) string {
	if mode == "" {
		return NotAvailable
	}
	return cases.Title(language.English).String(string(mode))
}
