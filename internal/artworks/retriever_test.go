package artworks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/provider"
)

func newTestRetriever(t *testing.T, cfg RetrieverConfig, p provider.ArtworkProvider, loc Localizer, fb provider.LogoProvider) (*Retriever, *sleepRecorder) {
	t.Helper()
	r, err := NewRetriever(cfg, p, loc, fb, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	rec := &sleepRecorder{}
	r.Sleep = rec.Sleep
	return r, rec
}

func TestNewRetriever_RequiresCountries(t *testing.T) {
	if _, err := NewRetriever(RetrieverConfig{}, &stubProvider{}, stubLocalizer{}, nil, nil); err == nil {
		t.Fatalf("期望错误（countries 为空）")
	}
}

func TestRetriever_FillsGapsInCountryOrder(t *testing.T) {
	m := domain.Movie{Title: "Là-haut", MetadataCountry: "fr", TMDBID: 14160}
	p := &stubProvider{name: "apple", found: map[string]provider.Found{
		"fr": {PosterURL: "fr-p", LogoURL: "fr-l", ReleaseDate: "2009-07-29"},
		"us": {PosterURL: "us-p", BackgroundURL: "us-b", LogoURL: "us-l", ReleaseDate: "2009-05-29"},
		"gb": {PosterURL: "gb-p"},
	}}
	loc := stubLocalizer{titles: map[string]string{"us": "Up", "gb": "Up"}}
	cfg := RetrieverConfig{Countries: []string{"fr", "us", "gb"}, Interval: 2 * time.Second}
	r, rec := newTestRetriever(t, cfg, p, loc, nil)

	got := r.Retrieve(context.Background(), m)

	if len(p.calls) != 2 {
		t.Fatalf("完整后应停止检索，期望 2 次调用，实际 %d", len(p.calls))
	}
	if p.calls[1].Title != "Up" || p.calls[1].Country != "us" {
		t.Fatalf("第二次调用应使用本地化标题，实际 %+v", p.calls[1])
	}
	if got.Poster.URL != "fr-p" || got.Logo.URL != "fr-l" {
		t.Fatalf("同源不应覆盖已有槽位：%+v %+v", got.Poster, got.Logo)
	}
	if got.Background.URL != "us-b" || got.Background.Country != "us" || got.Background.Language != "en" {
		t.Fatalf("background 应来自 us：%+v", got.Background)
	}
	if got.Poster.Source != "apple" || got.Poster.Title != "Là-haut" {
		t.Fatalf("图片标签不正确：%+v", got.Poster)
	}
	if got.ReleaseDate == nil || got.ReleaseDate.Value != "2009-07-29" || got.ReleaseDate.Country != "fr" {
		t.Fatalf("上映日期应取第一个找到的：%+v", got.ReleaseDate)
	}
	if len(rec.calls) != 1 || rec.calls[0] != 2*time.Second {
		t.Fatalf("国家之间应等待一次，实际 %v", rec.calls)
	}
}

func TestRetriever_SkipsRejectedTitlesAndErrors(t *testing.T) {
	m := domain.Movie{Title: "Là-haut", MetadataCountry: "fr", TMDBID: 14160}
	p := &stubProvider{
		name:  "apple",
		found: map[string]provider.Found{"us": {PosterURL: "us-p"}},
		err:   map[string]error{"fr": errors.New("boom")},
	}
	loc := stubLocalizer{titles: map[string]string{"us": "Up"}}
	cfg := RetrieverConfig{Countries: []string{"de", "fr", "us"}, Ruleset: Ruleset{MatchTitle: true}}
	r, _ := newTestRetriever(t, cfg, p, loc, nil)

	got := r.Retrieve(context.Background(), m)

	if len(p.calls) != 1 || p.calls[0].Country != "fr" {
		t.Fatalf("de 无标题、us 标题不匹配，只应调用 fr，实际 %+v", p.calls)
	}
	if !got.IsEmpty() {
		t.Fatalf("provider 错误应按没找到处理，实际 %+v", got.Artworks)
	}
}

func TestRetriever_FallbackLogo(t *testing.T) {
	m := domain.Movie{Title: "Là-haut", MetadataCountry: "fr", TMDBID: 14160}
	p := &stubProvider{name: "apple", found: map[string]provider.Found{
		"fr": {PosterURL: "fr-p", BackgroundURL: "fr-b"},
		"us": {LogoURL: "us-l"},
	}}
	loc := stubLocalizer{titles: map[string]string{"us": "Up"}}
	fb := &stubLogo{urls: map[string]string{"fr": "tmdb-fr-l"}}
	r, _ := newTestRetriever(t, RetrieverConfig{Countries: []string{"fr", "us"}}, p, loc, fb)

	got := r.Retrieve(context.Background(), m)

	if len(fb.calls) != 1 || fb.calls[0] != "fr" {
		t.Fatalf("应在 poster 国家请求备选 logo，实际 %v", fb.calls)
	}
	want := domain.Image{URL: "tmdb-fr-l", Country: "fr", Language: "fr", Title: "Là-haut", Source: "tmdb"}
	if got.FallbackLogo == nil || *got.FallbackLogo != want {
		t.Fatalf("期望 %+v，实际 %+v", want, got.FallbackLogo)
	}
}

func TestRetriever_NoFallbackWhenLogoMatchesPoster(t *testing.T) {
	m := domain.Movie{Title: "Up", MetadataCountry: "us", TMDBID: 14160}
	p := &stubProvider{name: "apple", found: map[string]provider.Found{
		"us": {PosterURL: "p", BackgroundURL: "b", LogoURL: "l"},
	}}
	fb := &stubLogo{}
	r, _ := newTestRetriever(t, RetrieverConfig{Countries: []string{"us"}}, p, stubLocalizer{}, fb)

	got := r.Retrieve(context.Background(), m)
	if len(fb.calls) != 0 || got.FallbackLogo != nil {
		t.Fatalf("不应请求备选 logo，实际 calls=%v", fb.calls)
	}
}

func TestRetriever_StopsOnCancel(t *testing.T) {
	m := domain.Movie{Title: "Up", MetadataCountry: "us"}
	p := &stubProvider{name: "apple"}
	r, _ := newTestRetriever(t, RetrieverConfig{Countries: []string{"us"}}, p, stubLocalizer{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Retrieve(ctx, m)
	if len(p.calls) != 0 {
		t.Fatalf("取消后不应调用 provider，实际 %d 次", len(p.calls))
	}
}

func TestRetriever_SkipsCountryWithoutLanguage(t *testing.T) {
	m := domain.Movie{Title: "Up", MetadataCountry: "us", TMDBID: 14160}
	p := &stubProvider{name: "apple", found: map[string]provider.Found{
		"jp": {PosterURL: "jp-p"},
		"us": {PosterURL: "us-p"},
	}}
	loc := stubLocalizer{titles: map[string]string{"jp": "Up"}}
	r, _ := newTestRetriever(t, RetrieverConfig{Countries: []string{"jp", "us"}}, p, loc, nil)

	got := r.Retrieve(context.Background(), m)

	if len(p.calls) != 1 || p.calls[0].Country != "us" {
		t.Fatalf("没有语言的国家不应调用 provider，实际 %+v", p.calls)
	}
	if got.Poster == nil || got.Poster.Language != "en" {
		t.Fatalf("图片应带语言标签：%+v", got.Poster)
	}
}
