// Package match 对搜索候选与匹配目标打分。
//
// 约束：
// - 任何一步“硬拒绝”都让整个候选被拒，不能与 0 分混淆（Score.Rejected）
// - 宁可漏配也不误配：分数低于 RequiredScore 的最佳候选不会被返回
package match

import (
	"regexp"
	"strings"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/textx"
)

const (
	// StrongScore ≈ 标题 2.0 + 导演 1.0 + 年份 1.0：达到即停止后续查询。
	StrongScore = 4.0
	// RequiredScore ≈ 单独的标题命中，或导演 + 年份同时命中。
	RequiredScore = 1.9

	// DefaultTitleThreshold 是标题进入计分的默认阈值。
	DefaultTitleThreshold = 0.75

	titleRejectBelow    = 0.5
	directorStrongAbove = 0.9
	directorRejectBelow = 0.5
)

const unknownDirector = "Unknown"

var (
	deniedPathRE = regexp.MustCompile(strings.Join([]string{
		`/search\?`,
		`^/api\b`,
		`^/uts/`,
		`ctx_shelf=edt\.shelf\.PersonShelf1`,
		`^/includes/commerce/`,
		`/sporting-event/`,
		`/collection/(trailers|related|bonus-content|clubs|spotlight|other-games)/`,
	}, "|"))

	canonicalPathRE = regexp.MustCompile(`^/([a-z]{2,3})/(show|movie)/.+/umc\.cm[cp]\.[\w.]+/?$`)

	urlPathRE = regexp.MustCompile(`^https?://[^/]+(/.*)$`)
)

// Score 是带“硬拒绝”标记的分数。
type Score struct {
	Value    float64
	Rejected bool
}

func reject() Score { return Score{Rejected: true} }

// Accepted 判断分数是否达到 min（被拒绝的永远不达标）。
func (s Score) Accepted(min float64) bool {
	return !s.Rejected && s.Value >= min
}

// Scorer 计算候选与目标的分数。零值不可用，请使用 NewScorer。
type Scorer struct {
	TitleThreshold float64
}

func NewScorer(titleThreshold float64) Scorer {
	if titleThreshold <= 0 {
		titleThreshold = DefaultTitleThreshold
	}
	return Scorer{TitleThreshold: titleThreshold}
}

// Score 按“URL 形状 → 标题 → 年份 → 导演”打分，任一步拒绝即整体拒绝。
func (s Scorer) Score(c domain.Candidate, t domain.Target) Score {
	path := ExtractPath(c.URL)
	if deniedPathRE.MatchString(path) || !canonicalPathRE.MatchString(path) {
		return reject()
	}
	if !strings.Contains(path, "/"+string(t.Entity)+"/") || !strings.Contains(path, "/"+t.Country+"/") {
		return reject()
	}

	total := 0.0
	if c.Title != "" {
		v, ok := TitleScore(t.Title, c.Title, s.TitleThreshold)
		if !ok {
			return reject()
		}
		total += v
	}
	if c.Year != 0 {
		v, ok := YearScore(t.Year, c.Year)
		if !ok {
			return reject()
		}
		total += v
	}
	if c.Director != "" {
		v, ok := DirectorScore(t.Directors, c.Director)
		if !ok {
			return reject()
		}
		total += v
	}
	return Score{Value: total}
}

// TitleScore：< 0.5 拒绝；< threshold 记 0；否则 2 × 相似度。
func TitleScore(target, title string, threshold float64) (float64, bool) {
	sim := textx.Similarity(target, title)
	if sim < titleRejectBelow {
		return 0, false
	}
	if sim < threshold {
		return 0, true
	}
	return 2 * sim, true
}

// YearScore：Y..Y+1 记 +1；偏差超过 2 年拒绝；其它记 0。
func YearScore(target, year int) (float64, bool) {
	if year >= target && year <= target+1 {
		return 1, true
	}
	if year < target-2 || year > target+2 {
		return 0, false
	}
	return 0, true
}

// DirectorScore 处理候选导演字段可能是“A, B & C”多人拼接的情况：
// 任一目标导演相似度 ≥ 0.9 或是其归一化子串即强命中；
// 否则把所有目标拼接后比较，< 0.5 视为不同的人。
func DirectorScore(targets []string, director string) (float64, bool) {
	if len(targets) == 0 || director == "" || director == unknownDirector {
		return 0, true
	}
	cand := textx.Normalize(director)
	if cand == "" {
		return 0, true
	}

	var combined strings.Builder
	for _, t := range targets {
		tn := textx.Normalize(t)
		if tn == "" {
			continue
		}
		if textx.Similarity(tn, cand) >= directorStrongAbove || strings.Contains(cand, tn) {
			return 1, true
		}
		combined.WriteString(tn)
	}
	if combined.Len() == 0 {
		return 0, true
	}

	if textx.Similarity(combined.String(), cand) < directorRejectBelow {
		return 0, false
	}
	return 0, true
}

// ExtractPath 返回 URL 的 path（含 query）；无法解析时返回 "/"。
func ExtractPath(u string) string {
	m := urlPathRE.FindStringSubmatch(u)
	if m == nil {
		return "/"
	}
	return m[1]
}

// IsDenied 判断 path 是否命中非详情页黑名单。
func IsDenied(path string) bool {
	return deniedPathRE.MatchString(path)
}
