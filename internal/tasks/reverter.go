package tasks

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/matthieumontaigu/plex-poster-manager/internal/artworks"
	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/plex"
)

// DefaultRevertInterval 是电影之间的固定等待。
const DefaultRevertInterval = 100 * time.Millisecond

// ImageLibrary 是媒体库中恢复图片用到的部分。
type ImageLibrary interface {
	AllMovies(ctx context.Context) ([]domain.Movie, error)
	Images(ctx context.Context, id int, kind domain.ArtworkKind) ([]plex.Image, error)
	ImageFile(ctx context.Context, key string) (string, error)
	UploadImageFile(ctx context.Context, id int, kind domain.ArtworkKind, path string) error
}

// Reverter 把被 agent 刷新覆盖的槽位恢复为我们最后一次上传的图片。
type Reverter struct {
	lib      ImageLibrary
	kinds    []domain.ArtworkKind
	interval time.Duration
	log      *slog.Logger

	Sleep artworks.SleepFunc
}

func NewReverter(lib ImageLibrary, kinds []domain.ArtworkKind, log *slog.Logger) *Reverter {
	return &Reverter{
		lib:      lib,
		kinds:    append([]domain.ArtworkKind(nil), kinds...),
		interval: DefaultRevertInterval,
		log:      log,
		Sleep:    artworks.Sleep,
	}
}

func (t *Reverter) Name() string { return NameArtworksReverter }

func (t *Reverter) Run(ctx context.Context) (domain.TaskReport, error) {
	r := startRun(t.Name(), t.log)

	movies, err := t.lib.AllMovies(ctx)
	if err != nil {
		return r.finish(), err
	}
	sort.SliceStable(movies, func(i, j int) bool { return movies[i].AddedAt > movies[j].AddedAt })

	for _, kind := range t.kinds {
		for _, m := range movies {
			if ctx.Err() != nil {
				return r.finish(), nil
			}
			t.revert(ctx, r, m, kind)
			if err := t.Sleep(ctx, t.interval); err != nil {
				return r.finish(), nil
			}
		}
	}
	return r.finish(), nil
}

func (t *Reverter) revert(ctx context.Context, r *runState, m domain.Movie, kind domain.ArtworkKind) {
	images, err := t.lib.Images(ctx, m.ID, kind)
	if err != nil {
		r.log.Warn("list images failed", "movie", m.Title, "plex_movie_id", m.ID, "kind", kind, "err", err)
		return
	}
	img, ok := plex.LastUploadIfAgentSelected(images)
	if !ok {
		return
	}

	path, err := t.lib.ImageFile(ctx, img.Key)
	if err == nil {
		err = t.lib.UploadImageFile(ctx, m.ID, kind, path)
	}
	if err != nil {
		r.log.Warn("artwork revert failed", "movie", m.Title, "plex_movie_id", m.ID, "kind", kind, "key", img.Key, "err", err)
		r.add(m, domain.StatusFailed, string(kind))
		return
	}
	r.log.Info("artwork reverted", "movie", m.Title, "plex_movie_id", m.ID, "kind", kind)
	r.add(m, domain.StatusReverted, string(kind))
}
