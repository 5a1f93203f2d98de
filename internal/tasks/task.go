// Package tasks 是调度器运行的三个任务：处理最近添加、重试未完成、恢复被 agent 覆盖的图片。
package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/infra/cache"
	"github.com/matthieumontaigu/plex-poster-manager/internal/logx"
)

const (
	NameRecentlyAdded    = "recently_added"
	NameMissingArtworks  = "missing_artworks"
	NameArtworksReverter = "artworks_reverter"
)

// Names 是全部任务名（配置 schedules 与 CLI once 子命令共用）。
var Names = []string{NameRecentlyAdded, NameMissingArtworks, NameArtworksReverter}

// Task 是一次可调度的运行。
//
// 约束：
// - 单部电影的失败只体现在报告条目中，不返回 error
// - error 只表示整次运行无法继续（缓存读写失败、媒体库不可达）
type Task interface {
	Name() string
	Run(ctx context.Context) (domain.TaskReport, error)
}

type ArtworksUpdater interface {
	Update(ctx context.Context, m domain.Movie, current *domain.Artworks) (domain.UpdateStatus, domain.Artworks)
}

type ReleaseDateUpdater interface {
	UpdateReleaseDate(ctx context.Context, m domain.Movie) bool
}

// runState 持有一次运行的报告与带 run_id 的 logger。
type runState struct {
	report domain.TaskReport
	log    *slog.Logger
}

func startRun(name string, log *slog.Logger) *runState {
	id := uuid.NewString()
	l := logx.OrNull(log).With("task", name, "run_id", id)
	l.Info("task started")
	return &runState{
		report: domain.TaskReport{RunID: id, Task: name, StartedAt: time.Now()},
		log:    l,
	}
}

func (r *runState) add(m domain.Movie, status domain.UpdateStatus, detail string) {
	r.report.Add(m, status, detail)
}

func (r *runState) finish() domain.TaskReport {
	r.report.FinishedAt = time.Now()
	r.report.Finalize()

	args := []any{"items", len(r.report.Items), "duration", r.report.FinishedAt.Sub(r.report.StartedAt).Round(time.Millisecond)}
	for status, n := range r.report.Summary {
		args = append(args, string(status), n)
	}
	r.log.Info("task finished", args...)
	return r.report
}

// save 只在缓存有修改时落盘，并记录一行。
func (r *runState) save(c *cache.MoviesCache) error {
	if !c.Dirty() {
		return nil
	}
	if err := c.Save(); err != nil {
		r.log.Error("cache save failed", "path", c.Path(), "err", err)
		return err
	}
	r.log.Info("cache saved", "path", c.Path(), "movies", c.Len())
	return nil
}
