package validation

import (
	"html"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	inputPolicyOnce sync.Once
	inputPolicy     *bluemonday.Policy
)

// Sanitize strips any markup from a submitted value. Entities escaped by the
// policy are decoded again so apostrophes and ampersands survive as typed.
func Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return html.UnescapeString(inputSanitizer().Sanitize(raw))
}

func inputSanitizer() *bluemonday.Policy {
	inputPolicyOnce.Do(func() {
		inputPolicy = bluemonday.StrictPolicy()
	})
	return inputPolicy
}
