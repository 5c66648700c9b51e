package privacy

import (
	"regexp"
	"strings"
)

// privateTagRegex matches <private>...</private> blocks (non-greedy, dotall).
var privateTagRegex = regexp.MustCompile(`(?s)<private>.*?</private>`)

// Lab notes often carry the temporary credentials a lab hands out.
var (
	googleAPIKeyRegex = regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`)
	labAccountRegex   = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@qwiklabs\.net\b`)
	passwordLineRegex = regexp.MustCompile(`(?im)^(\s*password\s*[:=]\s*)\S+`)
)

const redacted = "[redacted]"

// StripPrivateTags removes all <private>...</private> blocks from content.
func StripPrivateTags(content string) string {
	return strings.TrimSpace(privateTagRegex.ReplaceAllString(content, ""))
}

// RedactNotes prepares free-text lab notes for sending to an external model:
// private blocks are dropped and lab credentials are masked.
func RedactNotes(notes string) string {
	out := StripPrivateTags(notes)
	out = googleAPIKeyRegex.ReplaceAllString(out, redacted)
	out = labAccountRegex.ReplaceAllString(out, redacted)
	out = passwordLineRegex.ReplaceAllString(out, "${1}"+redacted)
	return out
}

// HasOnlyPrivateContent reports whether nothing remains after stripping.
func HasOnlyPrivateContent(content string) bool {
	return StripPrivateTags(content) == ""
}
