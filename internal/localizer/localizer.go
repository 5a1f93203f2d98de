// Package localizer 把电影标题与上映日期解析到指定国家。
package localizer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/logx"
)

// Catalog 是元数据目录（TMDB）中 Localizer 用到的部分。
//
// 约束：没找到返回 "" 与 nil，而不是错误。
type Catalog interface {
	Title(ctx context.Context, id int, language string) (string, error)
	ReleaseDate(ctx context.Context, id int, country string) (string, error)
}

type Localizer struct {
	catalog Catalog
	tables  Tables
	log     *slog.Logger
}

func New(catalog Catalog, tables Tables, log *slog.Logger) *Localizer {
	return &Localizer{catalog: catalog, tables: tables, log: logx.OrNull(log)}
}

func (l *Localizer) Language(country string) (string, error) {
	return l.tables.Language(country)
}

func (l *Localizer) Locale(country string) (string, error) {
	return l.tables.Locale(country)
}

// LocalizedTitle 返回电影在 country 下的标题。
//
// 规则：
// - country 是电影的元数据国家：直接返回 m.Title
// - 没有 TMDB id：返回 ""（没找到）
// - 否则按 country 的语言向目录查询
func (l *Localizer) LocalizedTitle(ctx context.Context, m domain.Movie, country string) (string, error) {
	lang, err := l.tables.Language(country)
	if err != nil {
		return "", err
	}
	if country == m.MetadataCountry {
		return m.Title, nil
	}
	if m.TMDBID == 0 {
		return "", nil
	}
	title, err := l.catalog.Title(ctx, m.TMDBID, lang)
	if err != nil {
		l.log.Warn("localized title lookup failed", "movie", m.Title, "tmdb_id", m.TMDBID, "country", country, "err", err)
		return "", nil
	}
	return strings.TrimSpace(title), nil
}

// ReleaseDate 返回 country 的首个院线上映日期（原始 ISO 字符串；没有则为 ""）。
func (l *Localizer) ReleaseDate(ctx context.Context, tmdbID int, country string) (string, error) {
	if _, err := l.tables.Language(country); err != nil {
		return "", err
	}
	if tmdbID == 0 {
		return "", nil
	}
	return l.catalog.ReleaseDate(ctx, tmdbID, country)
}
