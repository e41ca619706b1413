package html

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	codeRe   = regexp.MustCompile("`([^`]+)`")
	boldRe   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe = regexp.MustCompile(`\*([^*]+)\*`)
)

// applyInlineMarkup runs the message-content markup subset on already
// HTML-escaped text, in the fixed order the spec requires: code span
// (placeholder-guarded so bold/italic never re-enter its content), bold,
// italic, then newline-to-<br> last (spec §4.5.2).
func applyInlineMarkup(escaped string) string {
	var codeSpans []string
	withPlaceholders := codeRe.ReplaceAllStringFunc(escaped, func(m string) string {
		inner := codeRe.FindStringSubmatch(m)[1]
		idx := len(codeSpans)
		codeSpans = append(codeSpans, inner)
		return fmt.Sprintf("\x00CODE%d\x00", idx)
	})

	withPlaceholders = boldRe.ReplaceAllStringFunc(withPlaceholders, func(m string) string {
		inner := boldRe.FindStringSubmatch(m)[1]
		return "<strong>" + inner + "</strong>"
	})
	withPlaceholders = italicRe.ReplaceAllStringFunc(withPlaceholders, func(m string) string {
		inner := italicRe.FindStringSubmatch(m)[1]
		return "<em>" + inner + "</em>"
	})

	for i, span := range codeSpans {
		withPlaceholders = strings.ReplaceAll(withPlaceholders, fmt.Sprintf("\x00CODE%d\x00", i), "<code>"+span+"</code>")
	}

	return applyNewlines(withPlaceholders)
}

// applyNewlines converts \n to <br>, applied after every other markup
// transform (spec §4.5.2).
func applyNewlines(s string) string {
	return strings.ReplaceAll(s, "\n", "<br>")
}
