package version

import (
	"strconv"
	"strings"
)

type tokenKind int

const (
	kindNumber tokenKind = iota
	kindText
)

type token struct {
	kind tokenKind
	num  uint64
	text string
}

var zeroToken = token{kind: kindNumber}

// Compare orders two version strings. It returns -1 if a < b, 0 if they are
// equivalent, and 1 if a > b. The shorter token sequence is padded with
// numeric zeros, so "1.2" == "1.2.0" and "2.0" > "2.0-beta".
func Compare(a, b string) int {
	at := tokenize(a)
	bt := tokenize(b)

	n := len(at)
	if len(bt) > n {
		n = len(bt)
	}

	for i := 0; i < n; i++ {
		ta := zeroToken
		if i < len(at) {
			ta = at[i]
		}
		tb := zeroToken
		if i < len(bt) {
			tb = bt[i]
		}

		if c := compareTokens(ta, tb); c != 0 {
			return c
		}
	}
	return 0
}

func compareTokens(a, b token) int {
	if a.kind != b.kind {
		// Numbers sort before text of any value.
		if a.kind == kindNumber {
			return -1
		}
		return 1
	}
	if a.kind == kindNumber {
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	}
	return strings.Compare(a.text, b.text)
}

func tokenize(s string) []token {
	var tokens []token
	var number, text strings.Builder

	flushNumber := func() {
		if number.Len() == 0 {
			return
		}
		if n, err := strconv.ParseUint(number.String(), 10, 64); err == nil {
			tokens = append(tokens, token{kind: kindNumber, num: n})
		}
		number.Reset()
	}
	flushText := func() {
		if text.Len() == 0 {
			return
		}
		tokens = append(tokens, token{kind: kindText, text: strings.ToLower(text.String())})
		text.Reset()
	}

	for _, ch := range s {
		switch {
		case ch >= '0' && ch <= '9':
			flushText()
			number.WriteRune(ch)
		case (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z'):
			flushNumber()
			text.WriteRune(ch)
		default:
			flushNumber()
			flushText()
		}
	}
	flushNumber()
	flushText()

	return tokens
}
