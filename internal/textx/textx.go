// Package textx 提供所有匹配决策共用的文本归一化与相似度。
//
// 纯字符级处理，不做语言相关分词。
package textx

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonWordRE = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)
	spaceRE   = regexp.MustCompile(`\s+`)
)

// Normalize：小写、HTML 反转义、NFKD 去重音、标点替换为空格、折叠空白。
func Normalize(s string) string {
	s = html.UnescapeString(strings.ToLower(strings.TrimSpace(s)))
	s = stripAccents(s)
	s = nonWordRE.ReplaceAllString(s, " ")
	s = spaceRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Similarity 返回 [0,1] 的 Levenshtein 比例：1 - dist/max(len)。
// 任一侧归一化后为空则返回 0。
func Similarity(a, b string) float64 {
	return ratio(Normalize(a), Normalize(b))
}

func ratio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	d := fuzzy.LevenshteinDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

// Match 判断两段标题在归一化（并去掉空格）后是否相同。
func Match(a, b string) bool {
	return compact(a) == compact(b)
}

// Contains 判断 needle 归一化后是否是 haystack 归一化后的子串（needle 为空时 false）。
func Contains(haystack, needle string) bool {
	n := Normalize(needle)
	if n == "" {
		return false
	}
	return strings.Contains(Normalize(haystack), n)
}

func compact(s string) string {
	return strings.ReplaceAll(Normalize(s), " ", "")
}

// Quote 折叠空白；含空格时加双引号（用于搜索查询）。
func Quote(s string) string {
	s = spaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
	if strings.Contains(s, " ") {
		return `"` + s + `"`
	}
	return s
}
