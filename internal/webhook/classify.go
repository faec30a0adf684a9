package webhook

import "strings"

const (
	SlugCalendarAgent = "calendar_agent"
	SlugRebeq         = "rebeq"
	SlugVera          = "vera"
	SlugUnknown       = "unknown"
)

// automationRules is checked in order; the first substring found wins.
var automationRules = []struct {
	contains string
	slug     string
}{
	{"calendar", SlugCalendarAgent},
	{"rebeq", SlugRebeq},
	{"vera", SlugVera},
}

// Classify maps a product title to the automation it activates.
func Classify(title string) string {
	lower := strings.ToLower(title)
	for _, r := range automationRules {
		if strings.Contains(lower, r.contains) {
			return r.slug
		}
	}
	return SlugUnknown
}
