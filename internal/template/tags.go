package template

import "strings"

// matchBraceKeyword recognizes the five brace-tag prefixes (§4.1) at s[i],
// where s[i] == '{'. It returns the keyword and the number of bytes from i
// to the first byte of the tag's content (so s[i+kwLen:] is the inner text).
func matchBraceKeyword(s string, i int) (kw string, kwLen int, ok bool) {
	rest := s[i+1:]
	switch {
	case strings.HasPrefix(rest, "var:"):
		return "var", 5, true
	case strings.HasPrefix(rest, "raw:"):
		return "raw", 5, true
	case strings.HasPrefix(rest, "math:"):
		return "math", 6, true
	case strings.HasPrefix(rest, "svar:"):
		return "svar", 6, true
	case strings.HasPrefix(rest, "if "):
		return "if", 4, true
	}
	return "", 0, false
}

// matchAngleKeyword recognizes "<loop" / "<if" at s[i] followed by a tag
// boundary (space or '>'), where s[i] == '<'.
func matchAngleKeyword(s string, i int) (name string, ok bool) {
	for _, kw := range []string{"loop", "if"} {
		if hasTokenAt(s, i+1, kw) {
			return kw, true
		}
	}
	return "", false
}

// hasTokenAt reports whether s[i:] starts with token immediately followed by
// a non-identifier byte (or end of string) — so "<if" matches but "<iffoo"
// does not.
func hasTokenAt(s string, i int, token string) bool {
	if i+len(token) > len(s) || s[i:i+len(token)] != token {
		return false
	}
	end := i + len(token)
	if end >= len(s) {
		return true
	}
	c := s[end]
	if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
		return false
	}
	return true
}

// findMatchingBrace finds the '}' that closes the '{' just before from,
// counting every '{' and '}' from from onward regardless of context (§4.2:
// "the nesting counter increases on every `{` and decreases on every `}`").
// It returns -1 if depth never returns to 0 before the string ends.
func findMatchingBrace(s string, from int) int {
	depth := 1
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// findTagEnd finds the '>' closing an angle-bracket tag starting at from,
// treating a quoted attribute value's '>' as ordinary text. The quote
// character that opens an attribute value is the only one that can close
// it (§4.7 open-question resolution on unbalanced quotes).
func findTagEnd(s string, from int) int {
	var inQuote byte
	for i := from; i < len(s); i++ {
		c := s[i]
		if inQuote != 0 {
			if c == inQuote {
				inQuote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			inQuote = c
		case '>':
			return i
		}
	}
	return -1
}

// findMatchingTag finds the closeToken that closes the openToken just
// before from, respecting same-type nesting (e.g. <loop> inside <loop>).
func findMatchingTag(s string, from int, openToken, closeToken string) int {
	depth := 1
	i := from
	for i < len(s) {
		if strings.HasPrefix(s[i:], closeToken) {
			depth--
			if depth == 0 {
				return i
			}
			i += len(closeToken)
			continue
		}
		if hasTokenAt(s, i, openToken) {
			depth++
			i += len(openToken)
			continue
		}
		i++
	}
	return -1
}

// parseAttrs parses a run of key="value" / key='value' pairs. A quote
// character only closes the attribute it opened; an unquoted value runs to
// the next whitespace.
func parseAttrs(s string) map[string]string {
	attrs := map[string]string{}
	i := 0
	isSpace := func(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
	for i < len(s) {
		for i < len(s) && (isSpace(s[i]) || s[i] == '/') {
			i++
		}
		if i >= len(s) {
			break
		}
		keyStart := i
		for i < len(s) && s[i] != '=' && !isSpace(s[i]) && s[i] != '/' {
			i++
		}
		key := s[keyStart:i]
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) || s[i] != '=' {
			continue
		}
		i++ // '='
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			break
		}
		quote := s[i]
		if quote != '"' && quote != '\'' {
			vs := i
			for i < len(s) && !isSpace(s[i]) {
				i++
			}
			if key != "" {
				attrs[key] = s[vs:i]
			}
			continue
		}
		i++ // opening quote
		vs := i
		for i < len(s) && s[i] != quote {
			i++
		}
		if key != "" {
			attrs[key] = s[vs:i]
		}
		if i < len(s) {
			i++ // closing quote
		}
	}
	return attrs
}

// splitTopLevelCommas splits s on ',' that fall outside any nested
// brace-tag, for {svar:PATH, A1, A2, …}'s argument list.
func splitTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
