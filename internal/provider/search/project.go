package search

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
)

// Item 是 Custom Search JSON API 返回的 items[] 中的一条（只取用到的字段）。
type Item struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Pagemap struct {
		Metatags []map[string]any `json:"metatags"`
	} `json:"pagemap"`
}

var (
	appleTVSuffixRE = regexp.MustCompile(`\s*-\s*Apple\s*TV\s*$`)
	punctRE         = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)
	spacesRE        = regexp.MustCompile(`\s+`)
	yearRE          = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	langRE          = regexp.MustCompile(`[?&]l=([a-z]{2})(?:&|$)`)
)

// Project 把一条原始结果投影为 Candidate。
//
// 规则：
// - url：去掉 query 与 fragment
// - title：优先 apple:title；否则用页面 title（去掉 " - Apple TV" 后清洗）
// - director：og:video:director
// - year：og:video:release_date 的年份（ISO 优先，否则取首个 19xx/20xx）
// - language：原始 link 中的 l=xx
func Project(it Item) domain.Candidate {
	var tags map[string]any
	if len(it.Pagemap.Metatags) > 0 {
		tags = it.Pagemap.Metatags[0]
	}
	tag := func(k string) string { return strings.TrimSpace(cast.ToString(tags[k])) }

	title := tag("apple:title")
	if title == "" && it.Title != "" {
		title = CleanTitle(it.Title)
	}

	return domain.Candidate{
		URL:      NormalizeURL(it.Link),
		Title:    title,
		Director: tag("og:video:director"),
		Year:     ParseYear(tag("og:video:release_date")),
		Language: ParseLanguage(it.Link),
	}
}

// NormalizeURL 去掉 fragment 与 query。
func NormalizeURL(u string) string {
	if i := strings.IndexByte(u, '#'); i >= 0 {
		u = u[:i]
	}
	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = u[:i]
	}
	return u
}

func CleanTitle(s string) string {
	s = appleTVSuffixRE.ReplaceAllString(s, "")
	s = html.UnescapeString(strings.TrimSpace(s))
	s = punctRE.ReplaceAllString(s, " ")
	s = spacesRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ParseYear 接受完整 ISO 时间、日期，或任意含年份的文本；未知返回 0。
func ParseYear(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year()
		}
	}
	m := yearRE.FindString(s)
	if m == "" {
		return 0
	}
	y, _ := strconv.Atoi(m)
	return y
}

func ParseLanguage(rawURL string) string {
	m := langRE.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}
