// Package scheduler 封装 gocron/v2，为后台定时任务提供命名、状态记录和查询.
package scheduler

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/yeisme/relayvault/pkg/log"
	"github.com/yeisme/relayvault/pkg/metrics"
)

// JobStatus 任务状态.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled"
	StatusRunning   JobStatus = "running"
	StatusError     JobStatus = "error"
)

// JobInfo 任务信息，供管理接口展示.
type JobInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CronExpr    string    `json:"cron_expr"`
	NextRun     time.Time `json:"next_run"`
	LastRun     time.Time `json:"last_run"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Job 任务函数，返回的错误记录在任务状态中.
type Job func(ctx context.Context) error

type entry struct {
	job  gocron.Job
	info JobInfo
}

// Scheduler 按名称管理 cron 任务. 同一任务不会重叠执行.
type Scheduler struct {
	scheduler gocron.Scheduler

	mu      sync.RWMutex
	entries map[string]*entry
	byID    map[uuid.UUID]string
}

// NewScheduler 创建调度器，需调用 Start 后任务才会执行.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		scheduler: s,
		entries:   make(map[string]*entry),
		byID:      make(map[uuid.UUID]string),
	}, nil
}

// AddCron 注册 cron 任务（5 段表达式），ctx 作为每次执行的基础 context.
func (s *Scheduler) AddCron(ctx context.Context, name, cronExpr string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job with name %s already exists", name)
	}

	j, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func(ctx context.Context) { s.run(ctx, name, job) }, ctx),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}

	now := time.Now()
	s.entries[name] = &entry{
		job: j,
		info: JobInfo{
			ID:        j.ID().String(),
			Name:      name,
			CronExpr:  cronExpr,
			Status:    StatusScheduled,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	s.byID[j.ID()] = name

	log.Logger().Info().Str("job", name).Str("cron", cronExpr).Msg("added cron job")

	return nil
}

// run 执行任务并记录结果，panic 视为失败.
func (s *Scheduler) run(ctx context.Context, name string, job Job) {
	l := log.Component("scheduler").With().Str("job", name).Logger()

	s.update(name, func(info *JobInfo) {
		info.Status = StatusRunning
		info.LastRun = time.Now()
	})

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in job: %v", r)
			}
		}()

		return job(ctx)
	}()

	if err != nil {
		l.Error().Err(err).Msg("job failed")
		metrics.BackgroundTasks.WithLabelValues("cron:"+name, "error").Inc()
		s.update(name, func(info *JobInfo) {
			info.Status = StatusError
			info.Error = err.Error()
		})

		return
	}

	metrics.BackgroundTasks.WithLabelValues("cron:"+name, "ok").Inc()
	s.update(name, func(info *JobInfo) {
		info.Status = StatusScheduled
		info.Error = ""
		info.LastSuccess = time.Now()
	})
}

func (s *Scheduler) update(name string, fn func(*JobInfo)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[name]; ok {
		fn(&e.info)
		e.info.UpdatedAt = time.Now()
	}
}

// RunNow 立即执行一次已注册的任务.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("job with name %s does not exist", name)
	}

	return e.job.RunNow()
}

// Start 启动调度器.
func (s *Scheduler) Start() {
	log.Logger().Info().Int("jobs", len(s.GetJobInfos())).Msg("starting scheduler")
	s.scheduler.Start()
}

// Shutdown 停止调度器并等待正在执行的任务结束.
func (s *Scheduler) Shutdown() error {
	return s.scheduler.Shutdown()
}

// StopJobs 停止所有任务的调度，不移除任务.
func (s *Scheduler) StopJobs() error {
	return s.scheduler.StopJobs()
}

// RemoveJob 按 ID 移除任务.
func (s *Scheduler) RemoveJob(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name, ok := s.byID[id]; ok {
		delete(s.entries, name)
		delete(s.byID, id)
	}

	return s.scheduler.RemoveJob(id)
}

// JobsWaitingInQueue 排队等待执行的任务数.
func (s *Scheduler) JobsWaitingInQueue() int {
	return s.scheduler.JobsWaitingInQueue()
}

// GetJobInfos 按名称排序返回所有任务，运行时间实时从 gocron 读取.
func (s *Scheduler) GetJobInfos() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.entries))

	for _, e := range s.entries {
		info := e.info
		if next, err := e.job.NextRun(); err == nil {
			info.NextRun = next
		}

		if last, err := e.job.LastRun(); err == nil && last.After(info.LastRun) {
			info.LastRun = last
		}

		infos = append(infos, info)
	}

	slices.SortFunc(infos, func(a, b JobInfo) int { return strings.Compare(a.Name, b.Name) })

	return infos
}
