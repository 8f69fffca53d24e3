package writer

import "github.com/microcosm-cc/bluemonday"

// policy whitelists the HTML the prompts allow the model to emit, plus the
// figure elements used for embedded images. Anything else in a completion is
// stripped before publish.
var policy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("figure", "figcaption")
	p.AllowAttrs("class").OnElements("figure")
	return p
}()

// Sanitize strips disallowed markup from model-produced HTML.
func Sanitize(content string) string {
	return policy.Sanitize(content)
}
