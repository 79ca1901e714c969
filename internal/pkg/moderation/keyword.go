package moderation

import "strings"

// DefaultBlocklist 内置关键词
var DefaultBlocklist = []string{
	"kill",
	"murder",
	"terrorist",
	"racist",
	"nazi",
	"rapist",
}

// KeywordFilter 子串匹配，大小写不敏感
type KeywordFilter struct {
	terms []string
}

// NewKeywordFilter 在内置列表基础上追加 extra
func NewKeywordFilter(extra []string) *KeywordFilter {
	seen := make(map[string]struct{})
	terms := make([]string, 0, len(DefaultBlocklist)+len(extra))
	for _, t := range append(append([]string{}, DefaultBlocklist...), extra...) {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	return &KeywordFilter{terms: terms}
}

// Match 返回第一个命中的关键词
func (f *KeywordFilter) Match(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, t := range f.terms {
		if strings.Contains(lower, t) {
			return t, true
		}
	}
	return "", false
}
