package command

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// span is one token and its byte range in the string it was cut from.
type span struct {
	text       string
	start, end int
}

// line is a command line prepared for dispatch.
//
// raw is the NFC form of the input with its case preserved; lower is raw
// lower-cased. Tokens are cut from lower, so offsets into lower are exact.
// Offsets into raw are recovered by cutting raw with the same delimiters.
type line struct {
	raw    string
	lower  string
	tokens []span
}

func newLowerCaser() cases.Caser {
	return cases.Lower(language.Und)
}

// parseLine prepares input for dispatch. The caser is stateful, so each
// Dispatcher owns one and calls this with its lock held.
func parseLine(caser cases.Caser, input string) line {
	raw := norm.NFC.String(strings.TrimRight(input, "\r\n"))
	lower := caser.String(raw)
	return line{
		raw:    raw,
		lower:  lower,
		tokens: split(lower, isCommandDelim),
	}
}

// name returns the lower-cased command token, or "" for an empty line.
func (l line) name() string {
	if len(l.tokens) == 0 {
		return ""
	}
	return l.tokens[0].text
}

// args returns every token after the command name.
func (l line) args() []string {
	if len(l.tokens) < 2 {
		return nil
	}
	out := make([]string, 0, len(l.tokens)-1)
	for _, t := range l.tokens[1:] {
		out = append(out, t.text)
	}
	return out
}

// rawTail returns the original-case text after the first n tokens, with
// surrounding whitespace trimmed. Used for free text such as titles and
// speech.
func (l line) rawTail(n int) string {
	if n <= 0 {
		return strings.TrimSpace(l.raw)
	}
	rawTokens := split(l.raw, isCommandDelim)
	if n > len(rawTokens) {
		return ""
	}
	return strings.TrimSpace(l.raw[rawTokens[n-1].end:])
}

// rawFrom returns the original-case text starting at token n.
func (l line) rawFrom(n int) string {
	rawTokens := split(l.raw, isCommandDelim)
	if n >= len(rawTokens) {
		return ""
	}
	return strings.TrimSpace(l.raw[rawTokens[n].start:])
}

// isCommandDelim splits a command line: whitespace and '='.
func isCommandDelim(r rune) bool {
	return r == '=' || unicode.IsSpace(r)
}

// isMoveDelim splits moveto arguments so that "(10, 20)" yields two numbers.
func isMoveDelim(r rune) bool {
	switch r {
	case ',', '(', ')', '"', '\'':
		return true
	}
	return unicode.IsSpace(r)
}

// split cuts s on delim, dropping empty tokens.
func split(s string, delim func(rune) bool) []span {
	var out []span
	start := -1
	for i, r := range s {
		if delim(r) {
			if start >= 0 {
				out = append(out, span{text: s[start:i], start: start, end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, span{text: s[start:], start: start, end: len(s)})
	}
	return out
}

// skipRune drops the first rune of s.
func skipRune(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeRuneInString(s)
	return s[size:]
}
