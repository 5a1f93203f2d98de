package logx

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config 对应配置文件的 log 段。
type Config struct {
	Path  string
	Level string
}

// Setup 构造 JSON 结构化 logger：Path 非空时追加写入文件，否则写 stderr。
// 返回的 io.Closer 用于进程退出时关闭日志文件（stderr 时为 no-op）。
func Setup(cfg Config) (*slog.Logger, io.Closer, error) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)

	if p := strings.TrimSpace(cfg.Path); p != "" {
		if strings.HasPrefix(p, "~") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, nil, fmt.Errorf("读取 home 目录失败：%w", err)
			}
			p = filepath.Join(home, p[1:])
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, nil, fmt.Errorf("创建日志目录失败：%w", err)
		}
		f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("打开日志文件失败：%w", err)
		}
		w, closer = f, f
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(cfg.Level)})
	return slog.New(h), closer, nil
}

// ParseLevel 大小写不敏感；未知值回退为 info。
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Null 丢弃所有输出。
func Null() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrNull 在 l 为 nil 时返回 Null()。
func OrNull(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Null()
	}
	return l
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
