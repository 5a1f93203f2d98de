package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/matthieumontaigu/plex-poster-manager/internal/artworks"
	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/infra/cache"
)

// Existence 判断电影是否仍在媒体库中；只有明确的“不存在”返回 false,nil。
type Existence interface {
	Exists(ctx context.Context, id int) (bool, error)
}

// MissingArtworks 重试未完成缓存中的电影。
//
// 规则：
// - 媒体库中已不存在：移出缓存
// - success：移出缓存
// - imperfect/empty：用新快照覆盖
// - unchanged/upload_failed：保持不变
type MissingArtworks struct {
	lib      Existence
	artworks ArtworksUpdater
	missing  *cache.MoviesCache
	interval time.Duration
	log      *slog.Logger

	Sleep artworks.SleepFunc
}

func NewMissingArtworks(lib Existence, a ArtworksUpdater, missing *cache.MoviesCache, interval time.Duration, log *slog.Logger) *MissingArtworks {
	return &MissingArtworks{
		lib:      lib,
		artworks: a,
		missing:  missing,
		interval: interval,
		log:      log,
		Sleep:    artworks.Sleep,
	}
}

func (t *MissingArtworks) Name() string { return NameMissingArtworks }

func (t *MissingArtworks) Run(ctx context.Context) (domain.TaskReport, error) {
	r := startRun(t.Name(), t.log)

	if err := t.missing.Load(); err != nil {
		return r.finish(), err
	}
	items := t.missing.Items()
	r.log.Info("missing artworks loaded", "movies", len(items))

	var done []domain.Movie
	for i, m := range items {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			if err := t.Sleep(ctx, t.interval); err != nil {
				break
			}
		}

		exists, err := t.lib.Exists(ctx, m.ID)
		if err != nil {
			r.log.Warn("existence check failed", "movie", m.Title, "plex_movie_id", m.ID, "err", err)
			r.add(m, domain.StatusSkipped, "existence check failed")
			continue
		}
		if !exists {
			r.log.Info("movie no longer in library", "movie", m.Title, "plex_movie_id", m.ID)
			done = append(done, m)
			r.add(m, domain.StatusRemoved, "")
			continue
		}

		status, got := t.artworks.Update(ctx, m, m.Artworks)
		r.log.Info("movie processed", "movie", m.Title, "plex_movie_id", m.ID, "status", status)
		switch status {
		case domain.StatusSuccess:
			done = append(done, m)
		case domain.StatusImperfect, domain.StatusEmpty:
			m.Artworks = &got
			t.missing.Put(m)
		}
		r.add(m, status, "")
	}

	t.missing.RemoveAll(done)
	err := r.save(t.missing)
	return r.finish(), err
}
