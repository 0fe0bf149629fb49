package onboarding

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// sanitizeText strips all markup from free-text answers
func sanitizeText(s string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}
