package scheduler

import (
	"log/slog"
	"time"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/logx"
)

// Observer 把“任务何时开始/结束”从调度循环中解耦出来。
//
// 约束：
// - 调度器只负责发事件，不做任何输出
// - 事件都来自调度 goroutine，实现无需加锁
type Observer interface {
	// OnScheduled 在任务得到下一次运行时间时调用。
	OnScheduled(name string, next time.Time)
	OnStart(name string)
	// OnFinish 在任务结束时调用；panic 已转为 err。
	OnFinish(name string, rep domain.TaskReport, err error, dur time.Duration)
}

// LogObserver 把事件写为结构化日志。
type LogObserver struct {
	Log *slog.Logger
}

func (o LogObserver) OnScheduled(name string, next time.Time) {
	logx.OrNull(o.Log).Info("task scheduled", "task", name, "next_run", next.Format(time.RFC3339))
}

func (o LogObserver) OnStart(name string) {
	logx.OrNull(o.Log).Debug("task starting", "task", name)
}

func (o LogObserver) OnFinish(name string, rep domain.TaskReport, err error, dur time.Duration) {
	l := logx.OrNull(o.Log)
	if err != nil {
		l.Error("task failed", "task", name, "run_id", rep.RunID, "duration", dur.Round(time.Millisecond), "err", err)
		return
	}
	l.Info("task done", "task", name, "run_id", rep.RunID, "items", len(rep.Items), "duration", dur.Round(time.Millisecond))
}
