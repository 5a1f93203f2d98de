package scheduler

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cast"
)

// DefaultTimezone 是 daily_at 的墙钟时区。
const DefaultTimezone = "Europe/Paris"

const (
	TypeEvery   = "every"
	TypeDailyAt = "daily_at"
)

// Schedule 决定任务的首次与后续运行时间。
type Schedule interface {
	// First 返回进程启动后的首次运行时间。
	First(now time.Time) time.Time
	// Next 返回在 now 完成一次运行之后的下一次运行时间。
	Next(now time.Time) time.Time
}

type every struct {
	delay      cron.ConstantDelaySchedule
	runAtStart bool
}

// Every 以固定间隔运行（不足 1 秒按 1 秒）；runAtStart 为 true 时启动即运行一次。
func Every(interval time.Duration, runAtStart bool) Schedule {
	return every{delay: cron.Every(interval), runAtStart: runAtStart}
}

func (e every) First(now time.Time) time.Time {
	if e.runAtStart {
		return now
	}
	return e.delay.Next(now)
}

func (e every) Next(now time.Time) time.Time { return e.delay.Next(now) }

type dailyAt struct {
	spec cron.Schedule
}

// DailyAt 在 tz 时区每天的 hour:minute 运行；总是严格晚于 now。
func DailyAt(hour, minute int, tz string) (Schedule, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("daily_at 时间无效：%02d:%02d", hour, minute)
	}
	if strings.TrimSpace(tz) == "" {
		tz = DefaultTimezone
	}
	spec, err := cron.ParseStandard(fmt.Sprintf("CRON_TZ=%s %d %d * * *", tz, minute, hour))
	if err != nil {
		return nil, fmt.Errorf("daily_at 无效：%w", err)
	}
	return dailyAt{spec: spec}, nil
}

func (d dailyAt) First(now time.Time) time.Time { return d.spec.Next(now) }
func (d dailyAt) Next(now time.Time) time.Time  { return d.spec.Next(now) }

// FromConfig 把配置中的 {type, params} 转为 Schedule。
//
// 规则：
// - every：1 个参数（秒，可为小数），启动即运行
// - daily_at：2 个参数（小时、分钟），时区固定为 DefaultTimezone
func FromConfig(typ string, params []any) (Schedule, error) {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case TypeEvery:
		if len(params) != 1 {
			return nil, fmt.Errorf("every 需要 1 个参数，实际 %d 个", len(params))
		}
		secs, err := cast.ToFloat64E(params[0])
		if err != nil {
			return nil, fmt.Errorf("every 参数无效：%w", err)
		}
		if secs <= 0 {
			return nil, fmt.Errorf("every 间隔必须大于 0，实际 %v", secs)
		}
		return Every(time.Duration(secs*float64(time.Second)), true), nil
	case TypeDailyAt:
		if len(params) != 2 {
			return nil, fmt.Errorf("daily_at 需要 2 个参数，实际 %d 个", len(params))
		}
		hour, err := cast.ToIntE(params[0])
		if err != nil {
			return nil, fmt.Errorf("daily_at 小时无效：%w", err)
		}
		minute, err := cast.ToIntE(params[1])
		if err != nil {
			return nil, fmt.Errorf("daily_at 分钟无效：%w", err)
		}
		return DailyAt(hour, minute, DefaultTimezone)
	default:
		return nil, fmt.Errorf("未知的 schedule 类型：%q（只能是 every/daily_at）", typ)
	}
}
