package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	bodyPolicy = bluemonday.UGCPolicy()
	textPolicy = bluemonday.StrictPolicy()
)

// SanitizeBody keeps the safe HTML subset used in post and comment bodies.
func SanitizeBody(input string) string {
	return bodyPolicy.Sanitize(input)
}

// SanitizeText strips all markup, for single-line fields like titles.
func SanitizeText(input string) string {
	return strings.TrimSpace(textPolicy.Sanitize(input))
}
