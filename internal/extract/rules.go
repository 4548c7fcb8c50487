package extract

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/nfse-extractor/constants"
)

// Shared sub-expressions. moneyExpr never ends on a separator, so a sentence
// period after an amount is not captured.
const (
	moneyExpr    = `(\d(?:[\d.,]*\d)?)`
	currencyExpr = `\s*:?\s*(?:R\$\s*)?`
	rateExpr     = `(\d+(?:[.,]\d+)?\s*%)`
	dateExpr     = `(\d{2}/\d{2}/\d{4})`
	seriesExpr   = `S[ée]rie\s*:\s*([0-9A-Z]{1,5})\b`
)

func compile(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}

type patternRule struct {
	field constants.Field
	re    *regexp.Regexp
}

// Pattern returns a rule taking the first capture group of the first
// case-insensitive match of expr. A literal prefix before the group acts as
// the anchor a lookbehind would give.
func Pattern(field constants.Field, expr string) Rule {
	return patternRule{field: field, re: compile(expr)}
}

func (r patternRule) Field() constants.Field { return r.field }

func (r patternRule) Extract(text string) (string, bool) {
	m := r.re.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	v := strings.TrimSpace(m[1])
	return v, v != ""
}

type betweenRule struct {
	field      constants.Field
	start, end *regexp.Regexp
}

// Between returns a rule taking the text after the first match of start and
// before the next match of end, for layouts that print a value without a label
// of its own.
func Between(field constants.Field, start, end string) Rule {
	return betweenRule{field: field, start: compile(start), end: compile(end)}
}

func (r betweenRule) Field() constants.Field { return r.field }

func (r betweenRule) Extract(text string) (string, bool) {
	loc := r.start.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := text[loc[1]:]
	end := r.end.FindStringIndex(rest)
	if end == nil {
		return "", false
	}
	v := strings.TrimSpace(rest[:end[0]])
	return v, v != ""
}

type firstOfRule struct {
	field constants.Field
	rules []Rule
}

// FirstOf tries rules in order and keeps the first value found.
func FirstOf(field constants.Field, rules ...Rule) Rule {
	return firstOfRule{field: field, rules: rules}
}

func (r firstOfRule) Field() constants.Field { return r.field }

func (r firstOfRule) Extract(text string) (string, bool) {
	for _, rule := range r.rules {
		if v, ok := rule.Extract(text); ok {
			return v, true
		}
	}
	return "", false
}

// Money is a Pattern for an amount printed after label, with optional colon and "R$".
func Money(field constants.Field, label string) Rule {
	return Pattern(field, label+currencyExpr+moneyExpr)
}
