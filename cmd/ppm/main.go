package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/matthieumontaigu/plex-poster-manager/internal/app"
	"github.com/matthieumontaigu/plex-poster-manager/internal/config"
	"github.com/matthieumontaigu/plex-poster-manager/internal/logx"
	"github.com/matthieumontaigu/plex-poster-manager/internal/tasks"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage(os.Stdout)
		return
	}

	var code int
	switch args[0] {
	case "run":
		code = runCmd(args[1:])
	case "once":
		code = onceCmd(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage(os.Stderr)
		code = 2
	}
	if code != 0 {
		os.Exit(code)
	}
}

type cliArgs struct {
	ConfigPath string
	Task       string
	Help       bool
}

// parseArgs 解析子命令参数；wantTask 为 true 时要求恰好一个位置参数（任务名）。
func parseArgs(name string, args []string, wantTask bool) (cliArgs, error) {
	var ca cliArgs
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVarP(&ca.ConfigPath, "config-path", "c", "", "配置文件路径（JSON）")
	fs.BoolVarP(&ca.Help, "help", "h", false, "显示帮助")
	if err := fs.Parse(args); err != nil {
		return cliArgs{}, err
	}
	if ca.Help {
		return ca, nil
	}

	rest := fs.Args()
	switch {
	case wantTask && len(rest) != 1:
		return cliArgs{}, fmt.Errorf("需要恰好一个任务名，实际 %d 个", len(rest))
	case wantTask:
		ca.Task = rest[0]
		if !knownTask(ca.Task) {
			return cliArgs{}, fmt.Errorf("未知任务 %q（可选：%v）", ca.Task, tasks.Names)
		}
	case len(rest) > 0:
		return cliArgs{}, fmt.Errorf("未知参数 %q", rest[0])
	}

	if ca.ConfigPath == "" {
		return cliArgs{}, errors.New("--config-path 不能为空")
	}
	return ca, nil
}

func knownTask(name string) bool {
	for _, n := range tasks.Names {
		if n == name {
			return true
		}
	}
	return false
}

func runCmd(args []string) int {
	ca, err := parseArgs("run", args, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printUsage(os.Stderr)
		return 2
	}
	if ca.Help {
		printUsage(os.Stdout)
		return 0
	}

	a, closeLog, code := setup(ca.ConfigPath)
	if a == nil {
		return code
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "调度失败：%v\n", err)
		return 1
	}
	return 0
}

func onceCmd(args []string) int {
	ca, err := parseArgs("once", args, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printUsage(os.Stderr)
		return 2
	}
	if ca.Help {
		printUsage(os.Stdout)
		return 0
	}

	a, closeLog, code := setup(ca.ConfigPath)
	if a == nil {
		return code
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := a.RunOnce(ctx, ca.Task)
	if err != nil {
		fmt.Fprintf(os.Stderr, "任务失败：%v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "完成：task=%s run_id=%s items=%d summary=%v\n", rep.Task, rep.RunID, len(rep.Items), rep.Summary)
	return 0
}

// setup 加载配置、初始化日志并组装 app；失败时 app 为 nil，code 是退出码。
func setup(path string) (*app.App, func(), int) {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置错误（%s）：%v\n", config.Code(err), err)
		return nil, nil, 1
	}

	log, closer, err := logx.Setup(logx.Config{Path: cfg.Log.Path, Level: cfg.Log.Level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败：%v\n", err)
		return nil, nil, 1
	}

	a, err := app.New(cfg, log)
	if err != nil {
		log.Error("app init failed", "err", err)
		_ = closer.Close()
		fmt.Fprintf(os.Stderr, "初始化失败：%v\n", err)
		return nil, nil, 1
	}
	return a, func() { _ = closer.Close() }, 0
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  ppm run --config-path FILE
  ppm once TASK --config-path FILE

命令：
  run    常驻运行，按 schedules 调度任务，直到收到 SIGINT/SIGTERM
  once   立即运行一次任务后退出（recently_added|missing_artworks|artworks_reverter）

参数：
  -c, --config-path  配置文件路径（JSON；环境变量 PPM_* 可覆盖其中的值）
  -h, --help         显示帮助
`)
}
