// Package appletv 从 Apple TV 商店详情页提取海报、背景、logo 与上映日期。
//
// 约束：
// - 详情页 URL 由搜索引擎解析；没解析到就是“没有”，不是错误
// - 页面属性必须重新通过打分校验，否则三张图全部丢弃
package appletv

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/logx"
	"github.com/matthieumontaigu/plex-poster-manager/internal/match"
	"github.com/matthieumontaigu/plex-poster-manager/internal/provider"
)

const (
	Name = "apple"

	defaultBaseURL = "https://tv.apple.com"
)

// Searcher 把目标解析为详情页 URL。
type Searcher interface {
	Query(ctx context.Context, t domain.Target) (string, bool)
}

type Provider struct {
	search Searcher
	http   *http.Client
	scorer match.Scorer
	log    *slog.Logger

	// BaseURL 只影响抓取地址（打分仍用规范 URL）；为空时直连 tv.apple.com。
	BaseURL string

	// Detail 抓取的页面，只供紧随其后的一次 Artworks 复用（二次校验与提取通常是同一个 URL）。
	detailURL  string
	detailPage *Page
}

func New(s Searcher, c *http.Client, scorer match.Scorer, log *slog.Logger) *Provider {
	return &Provider{search: s, http: c, scorer: scorer, log: logx.OrNull(log)}
}

func (p *Provider) Name() string { return Name }

func (p *Provider) Artworks(ctx context.Context, t domain.Target) (provider.Found, error) {
	if p.search == nil {
		return provider.Found{}, &provider.Error{Provider: Name, Stage: provider.StageSearch, Err: errors.New("search engine 未配置")}
	}
	u, ok := p.search.Query(ctx, t)
	memo := p.takeDetail(u)
	if !ok {
		return provider.Found{}, nil
	}

	page := memo
	if page == nil {
		var err error
		if page, err = p.page(ctx, u); err != nil {
			return provider.Found{}, err
		}
	}

	attrs, ok := page.Attributes()
	if !ok {
		p.log.Warn("detail page has no attributes", "url", u)
		return provider.Found{}, nil
	}
	if s := p.scorer.Score(attrs.Candidate(u), t); !s.Accepted(match.RequiredScore) {
		p.log.Info("detail page rejected by validation", "url", u, "title", t.Title, "country", t.Country, "page_title", attrs.Name)
		return provider.Found{}, nil
	}

	return provider.Found{
		PosterURL:     attrs.Image,
		BackgroundURL: page.BackgroundURL(),
		LogoURL:       page.LogoURL(),
		ReleaseDate:   attrs.ReleaseDate(),
	}, nil
}

// Detail 实现 search.DetailSource。
func (p *Provider) Detail(ctx context.Context, pageURL string) (domain.Candidate, bool, error) {
	page, err := p.page(ctx, pageURL)
	if err != nil {
		return domain.Candidate{}, false, err
	}
	p.detailURL, p.detailPage = pageURL, page
	attrs, ok := page.Attributes()
	if !ok {
		return domain.Candidate{}, false, nil
	}
	return attrs.Candidate(pageURL), true, nil
}

// takeDetail 取出并清空 Detail 留下的页面；URL 不同则返回 nil。
func (p *Provider) takeDetail(u string) *Page {
	page := p.detailPage
	if p.detailURL != u {
		page = nil
	}
	p.detailURL, p.detailPage = "", nil
	return page
}

func (p *Provider) page(ctx context.Context, u string) (*Page, error) {
	b, err := provider.Get(ctx, p.http, p.fetchURL(u), nil)
	if err != nil {
		return nil, &provider.Error{Provider: Name, Stage: provider.StageFetch, Err: err}
	}
	page, err := ParsePage(b)
	if err != nil {
		return nil, &provider.Error{Provider: Name, Stage: provider.StageParse, Err: err}
	}
	return page, nil
}

func (p *Provider) fetchURL(u string) string {
	if p.BaseURL == "" || !strings.HasPrefix(u, defaultBaseURL) {
		return u
	}
	return strings.TrimRight(p.BaseURL, "/") + strings.TrimPrefix(u, defaultBaseURL)
}
