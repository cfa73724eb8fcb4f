package where

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ydb-platform/docbridge/internal/util/must"
)

// likeCacheSize bounds the number of compiled LIKE patterns kept in memory.
const likeCacheSize = 256

// likeCache maps LIKE patterns to compiled regular expressions.
var likeCache = must.NotFail(lru.New[string, *regexp.Regexp](likeCacheSize))

// likePattern converts an SQL LIKE pattern to an anchored case-insensitive regular expression.
//
// `%` matches any sequence of characters, `_` matches exactly one character.
// Compiled expressions are cached.
func likePattern(pattern string) *regexp.Regexp {
	if re, ok := likeCache.Get(pattern); ok {
		return re
	}

	var sb strings.Builder

	sb.WriteString(`(?is)^`)

	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(`.*`)
		case '_':
			sb.WriteString(`.`)
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}

	sb.WriteString(`$`)

	re := regexp.MustCompile(sb.String())
	likeCache.Add(pattern, re)

	return re
}

// like matches strings, or any string element of a list, against the pattern.
func like(v any, found bool, pattern any) bool {
	p, ok := pattern.(string)
	if !found || !ok {
		return false
	}

	re := likePattern(p)

	for _, e := range items(v) {
		if s, ok := e.(string); ok && re.MatchString(s) {
			return true
		}
	}

	return false
}
