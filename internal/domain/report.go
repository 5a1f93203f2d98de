package domain

import (
	"sort"
	"time"
)

// TaskReport 汇总一次任务运行中每部电影的结果（用于结构化日志）。
type TaskReport struct {
	RunID string `json:"run_id"`
	Task  string `json:"task"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary map[UpdateStatus]int `json:"summary"`
	Items   []ItemResult         `json:"items"`
}

type ItemResult struct {
	MovieID int          `json:"plex_movie_id"`
	Title   string       `json:"title"`
	Status  UpdateStatus `json:"status"`
	Detail  string       `json:"detail,omitempty"`
}

// Add 追加一条结果。
func (r *TaskReport) Add(m Movie, status UpdateStatus, detail string) {
	r.Items = append(r.Items, ItemResult{MovieID: m.ID, Title: m.Title, Status: status, Detail: detail})
}

// Finalize 做三件事：
// 1) 时间统一为 UTC
// 2) items 按 movie id 稳定排序
// 3) summary 由 items 计算得出
func (r *TaskReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool { return r.Items[i].MovieID < r.Items[j].MovieID })

	s := make(map[UpdateStatus]int, 8)
	for _, it := range r.Items {
		s[it.Status]++
	}
	r.Summary = s
}

// Count 返回某个状态的条目数（Finalize 之后有效）。
func (r TaskReport) Count(status UpdateStatus) int {
	return r.Summary[status]
}
