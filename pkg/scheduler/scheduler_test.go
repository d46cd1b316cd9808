package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/relayvault/pkg/scheduler"
)

func newScheduler(t *testing.T) *scheduler.Scheduler {
	t.Helper()

	s, err := scheduler.NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })

	return s
}

func jobInfo(t *testing.T, s *scheduler.Scheduler, name string) scheduler.JobInfo {
	t.Helper()

	for _, info := range s.GetJobInfos() {
		if info.Name == name {
			return info
		}
	}

	t.Fatalf("job %s not found", name)

	return scheduler.JobInfo{}
}

func TestAddCronRejectsDuplicates(t *testing.T) {
	s := newScheduler(t)
	ctx := context.Background()
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.AddCron(ctx, "b", "0 * * * *", noop))
	require.NoError(t, s.AddCron(ctx, "a", "0 * * * *", noop))
	assert.Error(t, s.AddCron(ctx, "a", "0 * * * *", noop))
	assert.Error(t, s.AddCron(ctx, "bad", "not a cron", noop))

	infos := s.GetJobInfos()
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].Name)
	assert.Equal(t, "b", infos[1].Name)
}

func TestRunNowRecordsOutcome(t *testing.T) {
	s := newScheduler(t)
	ctx := context.Background()

	require.NoError(t, s.AddCron(ctx, "ok", "0 0 1 1 *", func(context.Context) error { return nil }))
	require.NoError(t, s.AddCron(ctx, "fail", "0 0 1 1 *", func(context.Context) error { return errors.New("boom") }))
	require.NoError(t, s.AddCron(ctx, "panic", "0 0 1 1 *", func(context.Context) error { panic("bad") }))
	s.Start()

	for _, name := range []string{"ok", "fail", "panic"} {
		require.NoError(t, s.RunNow(name))
	}

	assert.Eventually(t, func() bool {
		return !jobInfo(t, s, "ok").LastSuccess.IsZero()
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		info := jobInfo(t, s, "fail")

		return info.Status == scheduler.StatusError && info.Error == "boom"
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return jobInfo(t, s, "panic").Status == scheduler.StatusError
	}, 2*time.Second, 10*time.Millisecond)

	assert.Error(t, s.RunNow("missing"))
}

func TestRemoveJob(t *testing.T) {
	s := newScheduler(t)

	require.NoError(t, s.AddCron(context.Background(), "x", "0 * * * *", func(context.Context) error { return nil }))

	id, err := uuid.Parse(jobInfo(t, s, "x").ID)
	require.NoError(t, err)

	require.NoError(t, s.RemoveJob(id))
	assert.Empty(t, s.GetJobInfos())
}
