package artworks

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/logx"
	"github.com/matthieumontaigu/plex-poster-manager/internal/provider"
)

// Localizer 是检索器需要的本地化能力。
type Localizer interface {
	LocalizedTitle(ctx context.Context, m domain.Movie, country string) (string, error)
	Language(country string) (string, error)
}

type RetrieverConfig struct {
	// Countries 是严格的优先级顺序：第一个让结果“完整”的国家结束检索。
	Countries []string
	// Interval 是国家之间的固定等待。
	Interval time.Duration
	Ruleset  Ruleset
}

// Retriever 按国家优先级向 provider 检索图片，并按 Ruleset 逐槽位接受。
type Retriever struct {
	cfg       RetrieverConfig
	provider  provider.ArtworkProvider
	localizer Localizer
	fallback  provider.LogoProvider
	log       *slog.Logger

	Sleep SleepFunc
}

// NewRetriever：fallback 可为 nil（不做备选 logo）。
func NewRetriever(cfg RetrieverConfig, p provider.ArtworkProvider, loc Localizer, fallback provider.LogoProvider, log *slog.Logger) (*Retriever, error) {
	if len(cfg.Countries) == 0 {
		return nil, errors.New("至少需要一个国家")
	}
	if p == nil || loc == nil {
		return nil, errors.New("provider 与 localizer 不能为空")
	}
	return &Retriever{
		cfg:       cfg,
		provider:  p,
		localizer: loc,
		fallback:  fallback,
		log:       logx.OrNull(log),
		Sleep:     Sleep,
	}, nil
}

func (r *Retriever) Retrieve(ctx context.Context, m domain.Movie) Retrieved {
	var out Retrieved
	called := false

	for _, country := range r.cfg.Countries {
		if ctx.Err() != nil {
			break
		}
		lang, err := r.localizer.Language(country)
		if err != nil {
			r.log.Warn("country skipped", "movie", m.Title, "country", country, "err", err)
			continue
		}
		title, ok := r.localizedTitle(ctx, m, country)
		if !ok {
			continue
		}
		if !r.cfg.Ruleset.CanAcceptLocalizedTitle(title, m.Title) {
			r.log.Info("localized title rejected", "movie", m.Title, "country", country, "localized_title", title)
			continue
		}

		if called {
			if err := r.Sleep(ctx, r.cfg.Interval); err != nil {
				break
			}
		}
		called = true

		r.log.Info("fetching artworks", "movie", m.Title, "country", strings.ToUpper(country))
		base := domain.Image{Country: country, Language: lang, Title: title, Source: r.provider.Name()}
		r.accept(&out, m, base, r.fetch(ctx, m, country, title))
		if out.IsComplete() {
			break
		}
	}

	out.FallbackLogo = r.fallbackLogo(ctx, m, out.Artworks)
	return out
}

func (r *Retriever) localizedTitle(ctx context.Context, m domain.Movie, country string) (string, bool) {
	title, err := r.localizer.LocalizedTitle(ctx, m, country)
	if err != nil {
		r.log.Warn("localized title unavailable", "movie", m.Title, "country", country, "err", err)
		return "", false
	}
	if title == "" {
		r.log.Info("no localized title", "movie", m.Title, "country", country)
		return "", false
	}
	return title, true
}

func (r *Retriever) fetch(ctx context.Context, m domain.Movie, country, title string) provider.Found {
	f, err := r.provider.Artworks(ctx, m.Target(title, country))
	if err != nil {
		r.log.Warn("provider failed", "provider", r.provider.Name(), "movie", m.Title, "country", country, "err", err)
		return provider.Found{}
	}
	return f
}

// accept 按 Ruleset 把 f 中的图片（以 base 打标签）逐槽位并入 out。
func (r *Retriever) accept(out *Retrieved, m domain.Movie, base domain.Image, f provider.Found) {
	country := base.Country

	urls := map[domain.ArtworkKind]string{
		domain.Poster:     f.PosterURL,
		domain.Background: f.BackgroundURL,
		domain.Logo:       f.LogoURL,
	}
	for _, k := range domain.ArtworkKinds {
		next := domain.NewImage(urls[k], base)
		if next == nil {
			r.log.Info("artwork not found", "movie", m.Title, "kind", k, "country", country)
			continue
		}
		if !r.cfg.Ruleset.CanReplace(k, next, out.Get(k), m.Title) {
			continue
		}
		out.Set(k, next)
		r.log.Info("artwork found", "movie", m.Title, "kind", k, "source", next.Source, "country", country, "title", next.Title)
	}

	if out.ReleaseDate == nil {
		out.ReleaseDate = domain.NewMetadata(f.ReleaseDate, country)
	}
}

// fallbackLogo 只在已有 poster、且当前 logo 缺失或与 poster 不匹配时才向次要来源查询。
func (r *Retriever) fallbackLogo(ctx context.Context, m domain.Movie, a domain.Artworks) *domain.Image {
	if r.fallback == nil || a.Poster == nil || m.TMDBID == 0 || ctx.Err() != nil {
		return nil
	}
	if a.Logo != nil && a.Logo.Country == a.Poster.Country && r.cfg.Ruleset.IsLogoMatchingPoster(a, m) {
		return nil
	}

	country := a.Poster.Country
	u, err := r.fallback.Logo(ctx, m.TMDBID, country)
	if err != nil {
		r.log.Warn("fallback logo failed", "provider", r.fallback.Name(), "movie", m.Title, "country", country, "err", err)
		return nil
	}
	lang, err := r.localizer.Language(country)
	if err != nil {
		r.log.Warn("fallback logo skipped", "movie", m.Title, "country", country, "err", err)
		return nil
	}
	img := domain.NewImage(u, domain.Image{Country: country, Language: lang, Title: a.Poster.Title, Source: r.fallback.Name()})
	if img != nil {
		r.log.Info("fallback logo found", "movie", m.Title, "source", img.Source, "country", country)
	}
	return img
}
