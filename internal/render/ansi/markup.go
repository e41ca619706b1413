package ansi

import (
	"regexp"
	"strings"

	"github.com/fatih/color"
)

var (
	fenceRe  = regexp.MustCompile("(?s)```(.*?)```")
	codeRe   = regexp.MustCompile("`([^`]+)`")
	boldRe   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe = regexp.MustCompile(`\*([^*]+)\*`)
)

// applyInlineTransforms applies the message-content-only markup subset in
// the order the spec fixes: fenced blocks, inline code, bold, italic (spec
// §4.5.1). Fenced-block content is excluded from the later transforms so it
// renders verbatim but dim.
func applyInlineTransforms(text string, r *Renderer) string {
	dim := r.colored(color.Faint)
	codeColor := r.colored(color.FgCyan)
	boldColor := r.colored(color.Bold)
	italicColor := r.colored(color.Italic)

	var sb strings.Builder
	last := 0
	for _, loc := range fenceRe.FindAllStringSubmatchIndex(text, -1) {
		sb.WriteString(applyNonFenceTransforms(text[last:loc[0]], codeColor, boldColor, italicColor))
		body := text[loc[2]:loc[3]]
		for i, line := range strings.Split(body, "\n") {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(dim.Sprint(line))
		}
		last = loc[1]
	}
	sb.WriteString(applyNonFenceTransforms(text[last:], codeColor, boldColor, italicColor))
	return sb.String()
}

func applyNonFenceTransforms(text string, codeColor, boldColor, italicColor *color.Color) string {
	text = codeRe.ReplaceAllStringFunc(text, func(m string) string {
		inner := codeRe.FindStringSubmatch(m)[1]
		return codeColor.Sprint(inner)
	})
	text = boldRe.ReplaceAllStringFunc(text, func(m string) string {
		inner := boldRe.FindStringSubmatch(m)[1]
		return boldColor.Sprint(inner)
	})
	text = italicRe.ReplaceAllStringFunc(text, func(m string) string {
		inner := italicRe.FindStringSubmatch(m)[1]
		return italicColor.Sprint(inner)
	})
	return text
}
