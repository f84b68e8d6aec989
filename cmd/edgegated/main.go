// edgegated 是边缘请求网关守护进程。
//
// 它位于所有非静态 HTTP 请求之前，按路由策略执行限流决策，
// 附加地理/语言环境元数据后将放行的请求转发到上游。
//
// 用法:
//
//	edgegated [选项]
//
// 选项:
//
//	-c, --config     配置文件路径 (yaml/json，可选)
//	-l, --listen     监听地址 (默认: :8080)
//	-u, --upstream   上游服务地址 (默认: http://127.0.0.1:3000)
//	    --log-level  日志级别 (debug/info/warn/error，默认: info)
//	    --log-format 日志格式 (text/json，默认: json)
//	    --log-file   日志文件路径（启用轮转，默认输出 stderr）
//
// 环境变量:
//
//	EDGEGATE_REDIS_ADDR      共享存储地址（缺失时进入纯本地限流模式）
//	EDGEGATE_REDIS_PASSWORD  共享存储密码（可选）
//
// 退出码:
//
//	0: 正常退出
//	1: 启动失败或运行时致命错误
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "edgegated",
		Usage:   "边缘请求网关守护进程",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径 (yaml/json)",
			},
			&cli.StringFlag{
				Name:    "listen",
				Aliases: []string{"l"},
				Usage:   "监听地址",
				Value:   ":8080",
			},
			&cli.StringFlag{
				Name:    "upstream",
				Aliases: []string{"u"},
				Usage:   "上游服务地址",
				Value:   "http://127.0.0.1:3000",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别 (debug/info/warn/error)",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "日志格式 (text/json)",
				Value: "json",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "日志文件路径（启用轮转）",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return serve(ctx, serverOptions{
				configPath: cmd.String("config"),
				listenAddr: cmd.String("listen"),
				upstream:   cmd.String("upstream"),
				logLevel:   cmd.String("log-level"),
				logFormat:  cmd.String("log-format"),
				logFile:    cmd.String("log-file"),
			})
		},
	}
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := createApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "edgegated:", err)
		return 1
	}
	return 0
}
