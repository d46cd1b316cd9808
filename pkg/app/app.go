// Package app 提供应用程序的初始化、依赖组装和优雅退出.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/relayvault/pkg/api"
	"github.com/yeisme/relayvault/pkg/configs"
	ctxPkg "github.com/yeisme/relayvault/pkg/context"
	"github.com/yeisme/relayvault/pkg/internal/ingest"
	"github.com/yeisme/relayvault/pkg/internal/jobs"
	"github.com/yeisme/relayvault/pkg/internal/relay"
	"github.com/yeisme/relayvault/pkg/internal/service"
	"github.com/yeisme/relayvault/pkg/internal/storage"
	"github.com/yeisme/relayvault/pkg/log"
	"github.com/yeisme/relayvault/pkg/metrics"
	"github.com/yeisme/relayvault/pkg/middleware"
	"github.com/yeisme/relayvault/pkg/scheduler"
	"github.com/yeisme/relayvault/pkg/tracing"
)

const shutdownTimeout = 30 * time.Second

// Options 启动参数，来自命令行.
type Options struct {
	ConfigPath string
	Debug      bool
}

// App 持有 HTTP 引擎以及需要在退出时释放的资源.
type App struct {
	Engine *gin.Engine

	config     *configs.AppConfig
	storage    *storage.Manager
	background *ingest.Background
	scheduler  *scheduler.Scheduler
}

// NewApp 按顺序初始化配置、日志、追踪、指标、存储、上传流程和定时任务.
func NewApp(opts Options) (*App, error) {
	if err := configs.InitConfig(opts.ConfigPath); err != nil {
		return nil, fmt.Errorf("init config: %w", err)
	}

	if opts.Debug {
		configs.OverrideDebug()
	}

	config := configs.GetConfig()

	log.Init()

	l := log.Logger()

	if err := tracing.InitTracer(config.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	ctx := context.Background()

	manager, err := storage.Init(ctx)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	ctx = ctxPkg.WithStorageManager(ctx, manager)

	rc := relay.New(config.Relay)
	bg := ingest.NewBackground(ingest.DefaultBackgroundLimit, ingest.DefaultBackgroundTimeout)
	orch := service.NewIngest(ctx, rc, config, bg)

	sched, err := scheduler.NewScheduler()
	if err != nil {
		_ = manager.Close()

		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	if err := jobs.RegisterCronJobs(ctx, sched, manager.GetKVClient(), orch, config.Jobs); err != nil {
		_ = manager.Close()

		return nil, fmt.Errorf("register cron jobs: %w", err)
	}

	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker),
		middleware.StorageMiddleware(manager),
		middleware.IngestMiddleware(orch, rc),
		middleware.SchedulerMiddleware(sched),
	)

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	api.RegisterGroup(engine, manager.GetKVClient())

	return &App{
		Engine:     engine,
		config:     config,
		storage:    manager,
		background: bg,
		scheduler:  sched,
	}, nil
}

// Run 启动 HTTP 服务，收到 SIGINT/SIGTERM 后优雅退出:
// 先停止接收请求，再等待后台任务与定时任务，最后关闭存储.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              net.JoinHostPort(a.config.Server.Host, strconv.Itoa(a.config.Server.Port)),
		Handler:           a.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.config.Server.GetTimeoutDuration(),
		WriteTimeout:      2 * a.config.Server.GetTimeoutDuration(),
	}

	a.scheduler.Start()

	errCh := make(chan error, 1)

	go func() {
		log.Logger().Info().Str("addr", srv.Addr).Str("version", configs.AppVersion).Msg("http server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			a.close(context.Background())

			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Logger().Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)

	return errors.Join(err, a.close(shutdownCtx))
}

func (a *App) close(ctx context.Context) error {
	l := log.Logger()

	var errs []error

	if err := a.scheduler.Shutdown(); err != nil {
		l.Warn().Err(err).Msg("scheduler shutdown")
		errs = append(errs, err)
	}

	if err := a.background.Shutdown(ctx); err != nil {
		l.Warn().Err(err).Msg("background tasks did not finish")
		errs = append(errs, err)
	}

	if err := tracing.ShutdownTracer(ctx); err != nil {
		errs = append(errs, err)
	}

	if err := a.storage.Close(); err != nil {
		errs = append(errs, err)
	}

	l.Info().Msg("relayvault stopped")

	return errors.Join(errs...)
}
