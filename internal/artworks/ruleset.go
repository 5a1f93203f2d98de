// Package artworks 决定每部电影最终使用哪一组图片：
// 按国家优先级检索、逐槽位决定接受/替换、上传并归类结果。
package artworks

import (
	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/textx"
)

// Ruleset 是逐槽位的替换策略。
//
// 规则（按顺序）：
// 1) 新图为 nil：永不接受
// 2) 槽位已有图：只有来源不同才允许替换（同源更新视为不更好，避免轮询间抖动）
// 3) 槽位为空：background 无条件接受；poster/logo 在标题匹配开启时要求
//    检索所用的本地化标题与电影标题归一化后一致
type Ruleset struct {
	MatchTitle bool
}

// CanAcceptLocalizedTitle 在花费一次 provider 调用之前判断该国家是否值得检索。
func (r Ruleset) CanAcceptLocalizedTitle(localized, movieTitle string) bool {
	return !r.MatchTitle || textx.Match(localized, movieTitle)
}

func (r Ruleset) CanReplace(kind domain.ArtworkKind, next, current *domain.Image, movieTitle string) bool {
	if next == nil {
		return false
	}
	if current != nil {
		return current.Source != next.Source
	}
	switch kind {
	case domain.Background:
		return true
	case domain.Poster, domain.Logo:
		return !r.MatchTitle || textx.Match(next.Title, movieTitle)
	}
	return false
}

// IsLogoMatchingPoster：poster 来自电影的元数据国家时，logo 标题必须与 poster 标题一致。
// 任一为空，或 poster 来自其它国家时视为匹配。
func (r Ruleset) IsLogoMatchingPoster(a domain.Artworks, m domain.Movie) bool {
	if a.Logo == nil || a.Poster == nil {
		return true
	}
	if a.Poster.Country != m.MetadataCountry {
		return true
	}
	return textx.Match(a.Logo.Title, a.Poster.Title)
}
