package artworks

import (
	"context"
	"time"
)

// SleepFunc 是可替换的等待（测试中替换为记录调用的 stub）。
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep 等待 d，或在 ctx 取消时提前返回 ctx.Err()。
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
