// Package search 通过 Google Programmable Search 把匹配目标解析为商店详情页 URL。
//
// 约束：
// - 宁可漏配也不误配：最佳候选低于 match.RequiredScore 时不返回
// - 调用之间至少间隔 MinInterval（配额保护）
// - 429/5xx 由 httpx.Transport 退避重试；其它错误视为该查询“没有结果”
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/logx"
	"github.com/matthieumontaigu/plex-poster-manager/internal/match"
	"github.com/matthieumontaigu/plex-poster-manager/internal/provider"
	"github.com/matthieumontaigu/plex-poster-manager/internal/textx"
)

const (
	DefaultEndpoint = "https://www.googleapis.com/customsearch/v1"
	DefaultNum      = 10

	siteHost      = "tv.apple.com"
	candidateBase = "https://" + siteHost + "/"
)

// DetailSource 读取详情页上的结构化属性，用于二次校验。
// ok=false 表示页面上没有可用属性。
type DetailSource interface {
	Detail(ctx context.Context, pageURL string) (c domain.Candidate, ok bool, err error)
}

// LanguageResolver 返回国家的期望语言（由 localizer 提供）。
type LanguageResolver interface {
	Language(country string) (string, error)
}

type Config struct {
	Endpoint    string
	APIKey      string
	CX          string
	Num         int
	MinInterval time.Duration
}

type Engine struct {
	cfg     Config
	http    *http.Client
	scorer  match.Scorer
	limiter *rate.Limiter
	log     *slog.Logger

	// 可选：二次校验。
	Languages LanguageResolver
	Details   DetailSource
}

func NewEngine(cfg Config, c *http.Client, scorer match.Scorer, log *slog.Logger) *Engine {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Num <= 0 || cfg.Num > 10 {
		cfg.Num = DefaultNum
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if cfg.MinInterval > 0 {
		lim = rate.NewLimiter(rate.Every(cfg.MinInterval), 1)
	}
	return &Engine{cfg: cfg, http: c, scorer: scorer, limiter: lim, log: logx.OrNull(log)}
}

func (e *Engine) Scorer() match.Scorer { return e.scorer }

// BuildQueries 返回从最具体到最宽泛的查询列表。
func BuildQueries(t domain.Target) []string {
	base := fmt.Sprintf("site:%s/%s/%s %s", siteHost, t.Country, t.Entity, textx.Quote(t.Title))
	var qs []string
	for _, d := range t.Directors {
		if strings.TrimSpace(d) == "" {
			continue
		}
		qs = append(qs, base+" "+textx.Quote(d))
		break
	}
	return append(qs, base)
}

// Query 返回与 t 最匹配的详情页 URL。
func (e *Engine) Query(ctx context.Context, t domain.Target) (string, bool) {
	var (
		best      domain.Candidate
		bestScore float64
		found     bool
		seen      = map[string]bool{}
	)

search:
	for _, q := range BuildQueries(t) {
		items, err := e.Search(ctx, q)
		if err != nil {
			e.log.Warn("search query failed", "query", q, "err", err)
			continue
		}
		for _, it := range items {
			c := Project(it)
			if !strings.HasPrefix(c.URL, candidateBase) || seen[c.URL] {
				continue
			}
			seen[c.URL] = true

			s := e.scorer.Score(c, t)
			if s.Rejected {
				continue
			}
			if !found || s.Value > bestScore {
				best, bestScore, found = c, s.Value, true
				if bestScore >= match.StrongScore {
					break search
				}
			}
		}
	}

	if !found || bestScore < match.RequiredScore {
		e.log.Debug("no search match", "title", t.Title, "country", t.Country)
		return "", false
	}
	if !e.validate(ctx, best, t) {
		return "", false
	}
	e.log.Debug("search match", "title", t.Title, "country", t.Country, "url", best.URL, "score", bestScore)
	return best.URL, true
}

// validate 处理“结构上命中但地域可疑”的候选：
// 语言与国家不符，或候选既无导演也无年份时，用详情页属性重新打分。
func (e *Engine) validate(ctx context.Context, c domain.Candidate, t domain.Target) bool {
	if e.Details == nil || !e.needsDetail(c, t) {
		return true
	}
	d, ok, err := e.Details.Detail(ctx, c.URL)
	if err != nil {
		e.log.Warn("detail validation failed", "url", c.URL, "err", err)
		return false
	}
	if !ok {
		return false
	}
	d.URL = c.URL
	s := e.scorer.Score(d, t)
	if !s.Accepted(match.RequiredScore) {
		e.log.Info("candidate rejected by detail validation", "url", c.URL, "title", t.Title, "country", t.Country)
		return false
	}
	return true
}

func (e *Engine) needsDetail(c domain.Candidate, t domain.Target) bool {
	if c.Director == "" && c.Year == 0 {
		return true
	}
	if c.Language == "" || e.Languages == nil {
		return false
	}
	want, err := e.Languages.Language(t.Country)
	if err != nil {
		return false
	}
	return want != c.Language
}

type response struct {
	Items []Item `json:"items"`
}

// Search 发起一次查询（受最小间隔约束）。
func (e *Engine) Search(ctx context.Context, q string) ([]Item, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	v := url.Values{
		"key":  {e.cfg.APIKey},
		"cx":   {e.cfg.CX},
		"q":    {q},
		"num":  {strconv.Itoa(e.cfg.Num)},
		"safe": {"off"},
	}
	b, err := provider.Get(ctx, e.http, e.cfg.Endpoint+"?"+v.Encode(), http.Header{"Accept": {"application/json"}})
	if err != nil {
		return nil, &provider.Error{Provider: "google", Stage: provider.StageSearch, Err: err}
	}
	var out response
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, &provider.Error{Provider: "google", Stage: provider.StageParse, Err: err}
	}
	return out.Items, nil
}
