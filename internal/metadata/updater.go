// Package metadata 把目录中的上映日期同步到媒体库。
package metadata

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/logx"
)

// DateSource 按国家返回院线上映日期（ISO 字符串；没有则为 ""）。
type DateSource interface {
	ReleaseDate(ctx context.Context, tmdbID int, country string) (string, error)
}

// Library 是媒体库中写入上映日期的部分。
type Library interface {
	UpdateReleaseDate(ctx context.Context, id int, date string) error
}

type Updater struct {
	dates DateSource
	lib   Library
	log   *slog.Logger
}

func NewUpdater(dates DateSource, lib Library, log *slog.Logger) *Updater {
	return &Updater{dates: dates, lib: lib, log: logx.OrNull(log)}
}

// UpdateReleaseDate 用电影元数据国家的上映日期覆盖媒体库中的值，返回是否写入成功。
func (u *Updater) UpdateReleaseDate(ctx context.Context, m domain.Movie) bool {
	if m.TMDBID == 0 {
		u.log.Warn("release date skipped: no tmdb id", "movie", m.Title, "plex_movie_id", m.ID)
		return false
	}

	raw, err := u.dates.ReleaseDate(ctx, m.TMDBID, m.MetadataCountry)
	if err != nil {
		u.log.Warn("release date lookup failed", "movie", m.Title, "tmdb_id", m.TMDBID, "country", m.MetadataCountry, "err", err)
		return false
	}
	date, ok := FormatDate(raw)
	if !ok {
		u.log.Warn("release date not found", "movie", m.Title, "tmdb_id", m.TMDBID, "country", m.MetadataCountry)
		return false
	}

	if err := u.lib.UpdateReleaseDate(ctx, m.ID, date); err != nil {
		u.log.Warn("release date update failed", "movie", m.Title, "plex_movie_id", m.ID, "date", date, "err", err)
		return false
	}
	u.log.Info("release date updated", "movie", m.Title, "plex_movie_id", m.ID, "date", date, "country", m.MetadataCountry)
	return true
}

// FormatDate 把 ISO 日期/时间格式化为 YYYY-MM-DD。
func FormatDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000Z", time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(time.DateOnly), true
		}
	}
	if len(raw) >= 10 {
		if t, err := time.Parse(time.DateOnly, raw[:10]); err == nil {
			return t.Format(time.DateOnly), true
		}
	}
	return "", false
}
