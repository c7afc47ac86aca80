package content

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy

	formPolicyOnce sync.Once
	formPolicy     *bluemonday.Policy
)

// StrictHTMLPolicy returns a singleton bluemonday policy that strips every
// HTML element and attribute, leaving plain text with script/style injections
// removed.
func StrictHTMLPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// FormHTMLPolicy returns a singleton policy that keeps the structural and
// form markup a model needs to identify fields (inputs, selects, labels and
// their names) while removing scripts, styles, event handlers and unsafe
// URLs. The policy is cached to avoid repeated allocations when processing
// many pages.
func FormHTMLPolicy() *bluemonday.Policy {
	formPolicyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements(
			"form", "fieldset", "legend", "label",
			"input", "select", "option", "optgroup", "textarea", "button", "datalist",
			"p", "div", "span", "section", "article", "main",
			"h1", "h2", "h3", "h4", "h5", "h6",
			"ul", "ol", "li", "dl", "dt", "dd",
			"table", "thead", "tbody", "tr", "td", "th",
			"strong", "em", "b", "i", "small", "br", "hr",
		)
		p.AllowAttrs("name", "type", "value", "placeholder", "required",
			"maxlength", "minlength", "min", "max", "step", "pattern",
			"checked", "selected", "multiple", "rows", "cols", "accept").
			OnElements("form", "input", "select", "option", "textarea", "button")
		p.AllowAttrs("for").OnElements("label")
		p.AllowAttrs("id").Globally()
		formPolicy = p
	})
	return formPolicy
}

// SanitizeHTMLStrict removes every HTML tag from s while stripping leading
// and trailing whitespace.
func SanitizeHTMLStrict(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(StrictHTMLPolicy().Sanitize(s))
}

// SanitizeFormHTML cleans s using FormHTMLPolicy, preserving form fields and
// structure while dropping everything executable.
func SanitizeFormHTML(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(FormHTMLPolicy().Sanitize(s))
}
