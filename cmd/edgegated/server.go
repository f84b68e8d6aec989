package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/edgegate/pkg/config/xconf"
	"github.com/omeyang/edgegate/pkg/gateway/xedge"
	"github.com/omeyang/edgegate/pkg/observability/xlog"
	"github.com/omeyang/edgegate/pkg/resilience/xlimit"
)

// 环境变量
const (
	envRedisAddr     = "EDGEGATE_REDIS_ADDR"
	envRedisPassword = "EDGEGATE_REDIS_PASSWORD"
)

// 服务端超时参数
const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second

	// 启动时共享存储连通性探测
	pingRetryAttempts = 5
	pingRetryDelay    = 500 * time.Millisecond
)

// limiterConfigPath 配置文件中限流段的路径
const limiterConfigPath = "limiter"

// serverOptions 服务启动参数（来自命令行标志）
type serverOptions struct {
	configPath string
	listenAddr string
	upstream   string
	logLevel   string
	logFormat  string
	logFile    string
}

// serve 构建并运行网关，阻塞直到 ctx 取消或监听失败。
func serve(ctx context.Context, opts serverOptions) error {
	logger, cleanup, err := buildLogger(opts)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = cleanup() }()

	limiter, err := buildLimiter(ctx, opts, logger)
	if err != nil {
		return fmt.Errorf("build limiter: %w", err)
	}
	defer func() { _ = limiter.Close(context.Background()) }()

	upstreamURL, err := url.Parse(opts.upstream)
	if err != nil {
		return fmt.Errorf("parse upstream address: %w", err)
	}

	dispatcher := xedge.NewDispatcher(limiter,
		httputil.NewSingleHostReverseProxy(upstreamURL),
		xedge.WithLogger(logger),
	)

	server := &http.Server{
		Addr:              opts.listenAddr,
		Handler:           dispatcher,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logger.Info(ctx, "edgegated starting",
		slog.String("listen", opts.listenAddr),
		slog.String("upstream", upstreamURL.String()),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "edgegated shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildLogger 按命令行参数构建日志记录器。
func buildLogger(opts serverOptions) (xlog.Logger, func() error, error) {
	builder := xlog.New().
		SetLevelString(opts.logLevel).
		SetFormat(opts.logFormat)
	if opts.logFile != "" {
		builder = builder.SetRotation(opts.logFile)
	}
	return builder.Build()
}

// buildLimiter 构建限流决策引擎。
//
// 共享存储地址来自环境变量 EDGEGATE_REDIS_ADDR：
//   - 已设置：启动时探测连通性（带重试），构建分布式限流器，
//     存储故障时自动回退本地计数
//   - 未设置：这不是错误，进入纯本地限流模式
func buildLimiter(ctx context.Context, opts serverOptions, logger xlog.Logger) (xlimit.Limiter, error) {
	limitOpts := []xlimit.Option{
		xlimit.WithLogger(logger),
	}

	if opts.configPath != "" {
		cfg, err := xconf.New(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", opts.configPath, err)
		}
		limitOpts = append(limitOpts,
			xlimit.WithConfigProvider(xlimit.NewXConfProvider(cfg, limiterConfigPath)))
	}

	addr := os.Getenv(envRedisAddr)
	if addr == "" {
		logger.Info(ctx, "shared store not configured, using local-only rate limiting")
		return xlimit.NewLocal(limitOpts...)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv(envRedisPassword),
	})

	// 启动探测失败不阻止启动：限流器自身具备本地回退能力
	if err := pingStore(ctx, rdb); err != nil {
		logger.Warn(ctx, "shared store unreachable at startup, fallback will cover",
			xlog.Err(err),
			slog.String("addr", addr),
		)
	}

	limitOpts = append(limitOpts, xlimit.WithBreaker(true))
	return xlimit.New(rdb, limitOpts...)
}

// pingStore 带重试探测共享存储连通性。
func pingStore(ctx context.Context, rdb redis.UniversalClient) error {
	return retry.New(
		retry.Context(ctx),
		retry.Attempts(pingRetryAttempts),
		retry.Delay(pingRetryDelay),
		retry.LastErrorOnly(true),
	).Do(func() error {
		return rdb.Ping(ctx).Err()
	})
}
