package ocr

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reSpaceRun   = regexp.MustCompile(` {2,}`)
	breakToSpace = strings.NewReplacer(
		"\r\n", " ",
		"\r", " ",
		"\n", " ",
		"\f", " ",
		"\v", " ",
		"\t", " ",
		"\u00a0", " ",
	)
)

// Normalize flattens raw page text into a single line for pattern matching:
// line breaks, tabs and non-breaking spaces become spaces, runs of spaces
// collapse to one and the ends are trimmed. Accents are composed (NFC) so
// "Município" matches whether the text layer stored "í" or "i" plus a
// combining acute. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = norm.NFC.String(s)
	s = breakToSpace.Replace(s)
	s = reSpaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
