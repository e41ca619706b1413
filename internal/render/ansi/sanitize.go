package ansi

import "strings"

// sanitizeESC defends against ANSI injection: a raw ESC byte in untrusted
// text is rewritten to the literal four-character sequence "\x1b" so a
// terminal never interprets attacker-controlled escape sequences (spec
// §4.5.1).
func sanitizeESC(s string) string {
	if !strings.ContainsRune(s, '\x1b') {
		return s
	}
	return strings.ReplaceAll(s, "\x1b", `\x1b`)
}
