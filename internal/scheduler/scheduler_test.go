package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
)

type funcTask struct {
	name string
	run  func(ctx context.Context) (domain.TaskReport, error)
}

func (t funcTask) Name() string { return t.name }

func (t funcTask) Run(ctx context.Context) (domain.TaskReport, error) { return t.run(ctx) }

type shortSchedule struct {
	delay time.Duration
}

func (s shortSchedule) First(now time.Time) time.Time { return now }
func (s shortSchedule) Next(now time.Time) time.Time  { return now.Add(s.delay) }

type recordObserver struct {
	scheduled []string
	started   []string
	errs      []error
}

func (o *recordObserver) OnScheduled(name string, _ time.Time) {
	o.scheduled = append(o.scheduled, name)
}

func (o *recordObserver) OnStart(name string) { o.started = append(o.started, name) }

func (o *recordObserver) OnFinish(_ string, _ domain.TaskReport, err error, _ time.Duration) {
	o.errs = append(o.errs, err)
}

func TestScheduler_RunRecoversPanicsAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := 0
	counter := funcTask{name: "counter", run: func(ctx context.Context) (domain.TaskReport, error) {
		if ctx.Err() != nil {
			t.Errorf("运行中的任务不应看到取消")
		}
		runs++
		if runs == 3 {
			cancel()
		}
		return domain.TaskReport{}, nil
	}}
	boom := funcTask{name: "boom", run: func(context.Context) (domain.TaskReport, error) {
		panic("boom")
	}}

	obs := &recordObserver{}
	s := New(obs)
	s.Add(counter, shortSchedule{delay: 5 * time.Millisecond})
	s.Add(boom, shortSchedule{delay: time.Hour})

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("不期望错误：%v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("调度器未在取消后退出")
	}

	if runs != 3 {
		t.Fatalf("期望 counter 运行 3 次，实际 %d", runs)
	}
	if len(obs.started) != 4 || obs.started[0] != "counter" || obs.started[1] != "boom" {
		t.Fatalf("运行顺序不正确：%v", obs.started)
	}
	if obs.errs[1] == nil || !strings.Contains(obs.errs[1].Error(), "panic") {
		t.Fatalf("panic 应转为 error，实际 %v", obs.errs[1])
	}
}

func TestScheduler_RunWithoutTasks(t *testing.T) {
	if err := New(nil).Run(context.Background()); !errors.Is(err, ErrNoTasks) {
		t.Fatalf("期望 ErrNoTasks，实际 %v", err)
	}
}

func TestExecute_ReturnsTaskError(t *testing.T) {
	want := errors.New("cache unreadable")
	task := funcTask{name: "x", run: func(context.Context) (domain.TaskReport, error) {
		return domain.TaskReport{RunID: "r1"}, want
	}}

	var buf bytes.Buffer
	obs := LogObserver{Log: slog.New(slog.NewTextHandler(&buf, nil))}
	rep, err := Execute(context.Background(), task, obs)
	if !errors.Is(err, want) || rep.RunID != "r1" {
		t.Fatalf("期望任务的 error 与报告，实际 %v %+v", err, rep)
	}
	out := buf.String()
	if !strings.Contains(out, "task failed") || !strings.Contains(out, "run_id=r1") {
		t.Fatalf("日志缺少失败记录：%s", out)
	}
}
