package tasks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/matthieumontaigu/plex-poster-manager/internal/artworks"
	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/infra/cache"
)

// RecentLibrary 是媒体库中 RecentlyAdded 用到的部分。
type RecentLibrary interface {
	RecentlyAdded(ctx context.Context) ([]domain.Movie, error)
	TMDBID(ctx context.Context, id int) (int, error)
}

// RecentlyAdded 处理媒体库最近添加的电影。
//
// 规则：
// - 已在 recent 缓存中的电影不再处理
// - 上传失败的电影不进入 recent，以空快照记入 missing（两边都会重试）
// - 其余结果都记入 recent；非 success 同时以新快照记入 missing
// - 运行结束时以列表中最后（最旧）的一部为参照裁剪 recent，然后各落盘一次
type RecentlyAdded struct {
	lib      RecentLibrary
	artworks ArtworksUpdater
	dates    ReleaseDateUpdater
	recent   *cache.MoviesCache
	missing  *cache.MoviesCache
	interval time.Duration
	log      *slog.Logger

	Sleep artworks.SleepFunc
}

func NewRecentlyAdded(lib RecentLibrary, a ArtworksUpdater, d ReleaseDateUpdater, recent, missing *cache.MoviesCache, interval time.Duration, log *slog.Logger) *RecentlyAdded {
	return &RecentlyAdded{
		lib:      lib,
		artworks: a,
		dates:    d,
		recent:   recent,
		missing:  missing,
		interval: interval,
		log:      log,
		Sleep:    artworks.Sleep,
	}
}

func (t *RecentlyAdded) Name() string { return NameRecentlyAdded }

func (t *RecentlyAdded) Run(ctx context.Context) (domain.TaskReport, error) {
	r := startRun(t.Name(), t.log)

	if err := errors.Join(t.recent.Load(), t.missing.Load()); err != nil {
		return r.finish(), err
	}

	movies, err := t.lib.RecentlyAdded(ctx)
	if err != nil {
		return r.finish(), err
	}
	if len(movies) == 0 {
		r.log.Info("no recently added movies")
		return r.finish(), nil
	}

	processed := 0
	for _, m := range movies {
		if ctx.Err() != nil {
			break
		}
		if t.recent.Contains(m) {
			continue
		}
		if processed > 0 {
			if err := t.Sleep(ctx, t.interval); err != nil {
				break
			}
		}
		processed++
		t.process(ctx, r, m)
	}

	if n := t.recent.Clear(movies[len(movies)-1]); n > 0 {
		r.log.Info("recent cache pruned", "removed", n)
	}
	err = errors.Join(r.save(t.recent), r.save(t.missing))
	return r.finish(), err
}

func (t *RecentlyAdded) process(ctx context.Context, r *runState, m domain.Movie) {
	if m.TMDBID == 0 {
		id, err := t.lib.TMDBID(ctx, m.ID)
		if err != nil {
			r.log.Warn("tmdb id lookup failed", "movie", m.Title, "plex_movie_id", m.ID, "err", err)
			r.add(m, domain.StatusSkipped, "tmdb id lookup failed")
			return
		}
		m.TMDBID = id
	}
	if m.TMDBID == 0 {
		r.log.Warn("movie has no tmdb id", "movie", m.Title, "plex_movie_id", m.ID)
		r.add(m, domain.StatusSkipped, "no tmdb id")
		return
	}

	status, got := t.artworks.Update(ctx, m, nil)
	r.log.Info("movie processed", "movie", m.Title, "plex_movie_id", m.ID, "status", status)
	if status == domain.StatusUploadFailed {
		r.log.Warn("upload failed, movie will be retried", "movie", m.Title, "plex_movie_id", m.ID)
		m.Artworks = nil
		t.missing.Put(m)
		r.add(m, status, "")
		return
	}

	t.dates.UpdateReleaseDate(ctx, m)
	t.recent.Add(m)
	if status != domain.StatusSuccess {
		m.Artworks = &got
		t.missing.Put(m)
	}
	r.add(m, status, "")
}
