package artworks

import (
	"context"
	"log/slog"
	"time"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/logx"
)

// ImageUploader 是媒体库的上传接口；nil error 表示成功。
type ImageUploader interface {
	UploadImage(ctx context.Context, id int, kind domain.ArtworkKind, url string) error
}

// Uploader 按 poster → background → logo 的顺序上传。
type Uploader struct {
	lib      ImageUploader
	interval time.Duration
	log      *slog.Logger

	Sleep SleepFunc
}

func NewUploader(lib ImageUploader, interval time.Duration, log *slog.Logger) *Uploader {
	return &Uploader{lib: lib, interval: interval, log: logx.OrNull(log), Sleep: Sleep}
}

// Upload 返回是否全部成功；空槽位视为成功。失败不重试（下一轮通过缓存重试）。
func (u *Uploader) Upload(ctx context.Context, m domain.Movie, a domain.Artworks) bool {
	ok := true
	for _, k := range domain.ArtworkKinds {
		img := a.Get(k)
		if img == nil {
			continue
		}
		if err := u.lib.UploadImage(ctx, m.ID, k, img.URL); err != nil {
			ok = false
			u.log.Warn("artwork upload failed", "movie", m.Title, "plex_movie_id", m.ID, "kind", k, "url", img.URL, "err", err)
		} else {
			u.log.Info("artwork uploaded", "movie", m.Title, "plex_movie_id", m.ID, "kind", k, "source", img.Source, "country", img.Country)
		}
		if err := u.Sleep(ctx, u.interval); err != nil {
			return false
		}
	}
	return ok
}
