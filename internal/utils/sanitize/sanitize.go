// Package sanitize strips markup from user supplied text before it is stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every tag and attribute. A built policy is safe for
// concurrent use as long as nothing mutates it afterwards.
var strict = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

// Sanitize strips all HTML from s, leaving a space where a tag was.
//
//	"<p>Hello <b>world</b></p>" -> " Hello  world  "
func Sanitize(s string) string {
	return strict.Sanitize(s)
}

// Clean is what messages, profile fields and usernames go through: tags are
// stripped, entities unescaped, non-breaking spaces turned into spaces and
// runs of blanks collapsed within each line. Line breaks are kept.
//
//	"<b>a</b> <b>b</b>"     -> "a b"
//	"hi<br>there\nsecond"   -> "hi there\nsecond"
func Clean(s string) string {
	out := strings.TrimSpace(strict.Sanitize(s))
	out = html.UnescapeString(out)
	out = strings.ReplaceAll(out, "\u00a0", " ")

	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
