package editor

import (
	"strings"
)

// tableContextWords are the keywords after which a table name is expected.
var tableContextWords = map[string]bool{
	"FROM": true, "JOIN": true, "INTO": true, "UPDATE": true, "TABLE": true, "APPLY": true,
}

// completionCandidates returns the table names matching the identifier at
// the end of text, provided the word before it introduces a table. Brackets
// typed by the user are ignored when matching.
func completionCandidates(text string, tables []string) (partial string, matches []string) {
	partial = lastWord(text)
	if partial == "" {
		return "", nil
	}

	before := strings.TrimRight(strings.TrimSuffix(strings.TrimRight(text, " \t\r\n"), partial), " \t\r\n")
	if !tableContextWords[strings.ToUpper(lastWord(before))] {
		return "", nil
	}

	needle := strings.ToLower(strings.NewReplacer("[", "", "]", "").Replace(partial))
	for _, name := range tables {
		if strings.HasPrefix(strings.ToLower(name), needle) {
			matches = append(matches, name)
		}
	}
	return partial, matches
}

// lastWord returns the trailing identifier of s, including dots and brackets.
func lastWord(s string) string {
	s = strings.TrimRight(s, " \t\n\r")
	i := len(s)
	for i > 0 && isIdentByte(s[i-1]) {
		i--
	}
	return s[i:]
}

func isIdentByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') || c == '_' || c == '.' || c == '[' || c == ']' || c == '#'
}
