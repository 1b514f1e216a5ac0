package editor

import (
	"strings"
	"unicode"
)

// T-SQL keywords uppercased by FormatKeywords.
var sqlKeywords = map[string]bool{
	"select": true, "from": true, "where": true, "and": true, "or": true,
	"insert": true, "into": true, "update": true, "delete": true, "merge": true,
	"create": true, "drop": true, "alter": true, "table": true, "view": true,
	"index": true, "join": true, "inner": true, "outer": true, "full": true,
	"left": true, "right": true, "cross": true, "apply": true, "on": true,
	"not": true, "in": true, "is": true, "null": true, "like": true,
	"order": true, "by": true, "group": true, "having": true,
	"top": true, "percent": true, "offset": true, "fetch": true, "next": true,
	"rows": true, "only": true, "as": true, "distinct": true,
	"count": true, "count_big": true, "sum": true, "avg": true, "min": true, "max": true,
	"between": true, "exists": true, "case": true, "when": true,
	"then": true, "else": true, "end": true, "values": true, "output": true,
	"set": true, "begin": true, "commit": true, "rollback": true, "tran": true, "transaction": true,
	"union": true, "all": true, "except": true, "intersect": true, "asc": true, "desc": true,
	"primary": true, "key": true, "foreign": true, "references": true, "constraint": true,
	"unique": true, "check": true, "identity": true, "clustered": true, "nonclustered": true,
	"cascade": true, "default": true, "with": true, "nolock": true,
	"declare": true, "exec": true, "execute": true, "procedure": true, "proc": true,
	"if": true, "while": true, "return": true, "go": true, "truncate": true,
	"cast": true, "convert": true, "isnull": true, "coalesce": true, "over": true, "partition": true,
	"int": true, "bigint": true, "smallint": true, "tinyint": true, "bit": true,
	"decimal": true, "numeric": true, "money": true, "float": true, "real": true,
	"char": true, "varchar": true, "nchar": true, "nvarchar": true, "text": true,
	"date": true, "datetime": true, "datetime2": true, "datetimeoffset": true, "time": true,
	"uniqueidentifier": true, "varbinary": true,
}

// FormatKeywords uppercases T-SQL keywords outside string literals,
// bracketed identifiers, double-quoted identifiers and comments.
func FormatKeywords(sql string) string {
	var (
		out  strings.Builder
		word strings.Builder
	)
	flush := func() {
		if word.Len() == 0 {
			return
		}
		w := word.String()
		if sqlKeywords[strings.ToLower(w)] {
			w = strings.ToUpper(w)
		}
		out.WriteString(w)
		word.Reset()
	}

	runes := []rune(sql)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		var closer rune
		switch {
		case ch == '\'', ch == '"':
			closer = ch
		case ch == '[':
			closer = ']'
		case ch == '-' && i+1 < len(runes) && runes[i+1] == '-':
			closer = '\n'
		}
		if closer != 0 {
			if ch == '\'' && isNPrefix(word.String()) {
				out.WriteString(word.String())
				word.Reset()
			} else {
				flush()
			}
			end := skipLiteral(runes, i, closer)
			out.WriteString(string(runes[i:end]))
			i = end - 1
			continue
		}

		if isWordChar(ch) {
			word.WriteRune(ch)
			continue
		}
		flush()
		out.WriteRune(ch)
	}
	flush()
	return out.String()
}

// isNPrefix reports whether w is the N of an N'...' literal.
func isNPrefix(w string) bool {
	return w == "N" || w == "n"
}

// skipLiteral returns the index just past the literal or comment starting
// at i. A line comment stops before its newline.
func skipLiteral(runes []rune, i int, closer rune) int {
	if closer == '\n' {
		for j := i + 2; j < len(runes); j++ {
			if runes[j] == '\n' {
				return j
			}
		}
		return len(runes)
	}
	for j := i + 1; j < len(runes); j++ {
		if runes[j] == closer {
			return j + 1
		}
	}
	return len(runes)
}

// isWordChar covers identifiers, @variables, #temp tables and dotted names.
func isWordChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) ||
		ch == '_' || ch == '@' || ch == '#' || ch == '.'
}
