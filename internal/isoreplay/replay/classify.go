package replay

import (
	"strings"
)

// QueryClassifier reports whether a statement returns rows to record
type QueryClassifier func(sql string) bool

// NaiveClassifier treats any statement containing SELECT, in any case and
// anywhere in the text, as a query. "INSERT ... SELECT" and literals such as
// 'selected' are therefore classified as queries too.
func NaiveClassifier(sql string) bool {
	return strings.Contains(strings.ToUpper(sql), "SELECT")
}

var queryKeywords = map[string]bool{
	"SELECT":  true,
	"WITH":    true,
	"SHOW":    true,
	"VALUES":  true,
	"EXPLAIN": true,
	"TABLE":   true,
}

// LeadingKeywordClassifier looks only at the first keyword of the statement,
// after comments and opening parentheses are skipped.
func LeadingKeywordClassifier(sql string) bool {
	return queryKeywords[leadingKeyword(sql)]
}

// ClassifierByName resolves "naive" (or "") and "keyword"
func ClassifierByName(name string) (QueryClassifier, bool) {
	switch strings.ToLower(name) {
	case "", "naive":
		return NaiveClassifier, true
	case "keyword":
		return LeadingKeywordClassifier, true
	}
	return nil, false
}

func leadingKeyword(sql string) string {
	s := sql
	for {
		s = strings.TrimLeft(s, " \t\r\n(")
		switch {
		case strings.HasPrefix(s, "--"):
			end := strings.IndexByte(s, '\n')
			if end < 0 {
				return ""
			}
			s = s[end+1:]
		case strings.HasPrefix(s, "/*"):
			end := strings.Index(s, "*/")
			if end < 0 {
				return ""
			}
			s = s[end+2:]
		default:
			end := strings.IndexFunc(s, func(r rune) bool {
				return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
			})
			if end < 0 {
				end = len(s)
			}
			return strings.ToUpper(s[:end])
		}
	}
}
