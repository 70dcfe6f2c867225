package convention

import (
	"strings"
	"unicode"
)

// Table returns the storage table name of a model: the snake cased plural of
// its name, so "Publication" becomes "publications" and "ArticleType"
// becomes "article_types".
func Table(model string) string {
	return snake(Pluralize(model))
}

// ServiceName returns the conventional service name of a model.
func ServiceName(model string) string {
	return Pluralize(model)
}

// Pluralize returns the English plural of a word, keeping the case of its
// first letter.
func Pluralize(word string) string {
	if word == "" {
		return ""
	}

	lower := strings.ToLower(word)
	if plural, ok := irregular[lower]; ok {
		if unicode.IsUpper(rune(word[0])) {
			return strings.ToUpper(plural[:1]) + plural[1:]
		}
		return plural
	}

	for _, r := range suffixRules {
		if strings.HasSuffix(lower, r.suffix) && (r.guard == nil || r.guard(lower)) {
			return word[:len(word)-r.trim] + r.add
		}
	}
	return word + "s"
}

type suffixRule struct {
	suffix string
	trim   int
	add    string
	guard  func(lower string) bool
}

var suffixRules = []suffixRule{
	{suffix: "s", add: "es"},
	{suffix: "x", add: "es"},
	{suffix: "z", add: "es"},
	{suffix: "ch", add: "es"},
	{suffix: "sh", add: "es"},
	{suffix: "y", trim: 1, add: "ies", guard: consonantBeforeLast},
	{suffix: "fe", trim: 2, add: "ves"},
	{suffix: "f", trim: 1, add: "ves"},
}

func consonantBeforeLast(lower string) bool {
	if len(lower) < 2 {
		return false
	}
	return !strings.ContainsRune("aeiou", rune(lower[len(lower)-2]))
}

var irregular = map[string]string{
	"person": "people",
	"child":  "children",
	"index":  "indices",
	"datum":  "data",
	"medium": "media",
	"schema": "schemas",
	"status": "statuses",
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
