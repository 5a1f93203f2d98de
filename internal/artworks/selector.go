package artworks

import (
	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/textx"
)

// Retrieved 是检索结果：三个槽位 + 次要来源的备选 logo。
type Retrieved struct {
	domain.Artworks
	FallbackLogo *domain.Image
}

type SelectorConfig struct {
	MatchMovieTitle bool
	MatchLogoPoster bool
	TargetSource    string
}

// Selector 从检索结果中选出最终上传的一组图片，并判断是否“完美”。
type Selector struct {
	cfg SelectorConfig
}

func NewSelector(cfg SelectorConfig) Selector {
	if cfg.TargetSource == "" {
		cfg.TargetSource = "apple"
	}
	return Selector{cfg: cfg}
}

func (s Selector) Select(r Retrieved, m domain.Movie) domain.Artworks {
	out := domain.Artworks{
		Poster:      s.selectPoster(r.Poster, m),
		Background:  r.Background,
		ReleaseDate: r.ReleaseDate,
	}
	out.Logo = s.selectLogo(r.Logo, r.FallbackLogo, out.Poster, m)
	return out.Clone()
}

func (s Selector) selectPoster(p *domain.Image, m domain.Movie) *domain.Image {
	if p == nil || !s.matchesMovieTitle(p, m) {
		return nil
	}
	return p
}

func (s Selector) matchesMovieTitle(img *domain.Image, m domain.Movie) bool {
	return !s.cfg.MatchMovieTitle || textx.Match(img.Title, m.Title)
}

func (s Selector) matchesPosterTitle(logo, poster *domain.Image) bool {
	return poster == nil || !s.cfg.MatchLogoPoster || textx.Match(logo.Title, poster.Title)
}

func (s Selector) passesTitleChecks(logo, poster *domain.Image, m domain.Movie) bool {
	return logo != nil && s.matchesMovieTitle(logo, m) && s.matchesPosterTitle(logo, poster)
}

// selectLogo 在主 logo 与备选 logo 之间选择：
// 两者都有时优先与 poster 同国家的那个（都同国家则优先主 logo），
// 且必须通过标题检查。
func (s Selector) selectLogo(logo, fallback, poster *domain.Image, m domain.Movie) *domain.Image {
	order := []*domain.Image{logo, fallback}
	if logo != nil && fallback != nil && poster != nil {
		if fallback.Country == poster.Country && logo.Country != poster.Country {
			order = []*domain.Image{fallback, logo}
		}
	}
	for _, c := range order {
		if s.passesTitleChecks(c, poster, m) {
			return c
		}
	}
	return nil
}

// IsPerfect ⇔ 三个槽位都有图，且每张图都来自 target_source 并且国家等于电影的元数据国家。
func (s Selector) IsPerfect(a domain.Artworks, m domain.Movie) bool {
	for _, k := range domain.ArtworkKinds {
		img := a.Get(k)
		if img == nil {
			return false
		}
		if img.Source != s.cfg.TargetSource || img.Country != m.MetadataCountry {
			return false
		}
	}
	return true
}
