package html

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var (
	classPattern = regexp.MustCompile(`^[a-z0-9 _-]+$`)
	widthPattern = regexp.MustCompile(`^\d{1,3}(\.\d+)?%$`)
)

// Sanitizer strips anything outside the markup the components emit
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds the output policy on top of bluemonday's UGC policy
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.AllowElements("main", "section", "header", "footer", "aside", "figure", "figcaption", "blockquote", "cite")
	p.AllowAttrs("class").Matching(classPattern).Globally()
	p.AllowDataAttributes()
	p.AllowStyles("width").Matching(widthPattern).OnElements("span")
	return &Sanitizer{policy: p}
}

// Sanitize returns fragment with disallowed markup removed
func (s *Sanitizer) Sanitize(fragment string) string {
	return s.policy.Sanitize(fragment)
}
