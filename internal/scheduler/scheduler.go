// Package scheduler 在单个 goroutine 中按时间顺序运行任务。
package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/tasks"
)

var ErrNoTasks = errors.New("scheduler: 没有可调度的任务")

type entry struct {
	task  tasks.Task
	sched Schedule
	next  time.Time
	seq   int
	index int
}

// queue 是以 next 为键的最小堆；next 相同时按加入顺序。
type queue []*entry

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].next.Equal(q[j].next) {
		return q[i].seq < q[j].seq
	}
	return q[i].next.Before(q[j].next)
}

func (q queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *queue) Push(x any) {
	e := x.(*entry)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// Scheduler 不是并发安全的：Add 必须在 Run 之前完成。
type Scheduler struct {
	q   queue
	obs Observer
	seq int

	// Now 可在测试中替换。
	Now func() time.Time
}

func New(obs Observer) *Scheduler {
	if obs == nil {
		obs = LogObserver{}
	}
	return &Scheduler{obs: obs, Now: time.Now}
}

func (s *Scheduler) Add(t tasks.Task, sch Schedule) {
	e := &entry{task: t, sched: sch, next: sch.First(s.Now()), seq: s.seq}
	s.seq++
	heap.Push(&s.q, e)
	s.obs.OnScheduled(t.Name(), e.next)
}

func (s *Scheduler) Len() int { return s.q.Len() }

// Run 阻塞直到 ctx 取消。
//
// 规则：
// - 只在任务之间检查 ctx：已开始的任务总是完整运行
// - 下一次运行时间从任务结束时刻计算
// - 单个任务的 error/panic 只记录，不终止循环
func (s *Scheduler) Run(ctx context.Context) error {
	if s.q.Len() == 0 {
		return ErrNoTasks
	}
	for {
		head := s.q[0]
		if err := s.wait(ctx, head.next); err != nil {
			return nil
		}

		Execute(context.WithoutCancel(ctx), head.task, s.obs)

		head.next = head.sched.Next(s.Now())
		heap.Fix(&s.q, head.index)
		s.obs.OnScheduled(head.task.Name(), head.next)
	}
}

func (s *Scheduler) wait(ctx context.Context, at time.Time) error {
	d := at.Sub(s.Now())
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return ctx.Err()
	}
}

// Execute 运行一次任务，把 panic 转为 error，并通知 obs。
func Execute(ctx context.Context, t tasks.Task, obs Observer) (rep domain.TaskReport, err error) {
	if obs == nil {
		obs = LogObserver{}
	}
	name := t.Name()
	started := time.Now()
	obs.OnStart(name)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panic: %v\n%s", name, r, debug.Stack())
		}
		obs.OnFinish(name, rep, err, time.Since(started))
	}()

	return t.Run(ctx)
}
