package jobs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/relayvault/pkg/configs"
	"github.com/yeisme/relayvault/pkg/internal/ingest"
	"github.com/yeisme/relayvault/pkg/internal/jobs"
	"github.com/yeisme/relayvault/pkg/internal/model"
	"github.com/yeisme/relayvault/pkg/internal/storage/kv"
	"github.com/yeisme/relayvault/pkg/scheduler"
)

type recordingRescorer struct {
	ids []string
	err func(id string) error
}

func (r *recordingRescorer) Rescore(_ context.Context, id string, _ *model.FileRecord) error {
	r.ids = append(r.ids, id)

	if r.err != nil {
		return r.err(id)
	}

	return nil
}

func seed(t *testing.T, store kv.KVStore, id string, rec model.FileRecord) {
	t.Helper()

	b, err := rec.Encode()
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), id, b, 0))
}

func newStore(t *testing.T) kv.KVStore {
	t.Helper()

	store, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	seed(t, store, "a_1.png", model.FileRecord{Label: model.LabelNone, UpstreamFileID: "f1"})
	seed(t, store, "b_2.png", model.FileRecord{Label: "adult", UpstreamFileID: "f2"})
	seed(t, store, "c_3.png", model.FileRecord{Label: model.LabelNone, UpstreamFileID: "f3"})
	seed(t, store, "d_4.png", model.FileRecord{Label: model.LabelNone})
	seed(t, store, "e_5.png", model.FileRecord{Label: model.LabelNone, UpstreamFileID: "f5"})
	require.NoError(t, store.Set(context.Background(), "manage@tg_media_group_request@r1", []byte(`{"success":true}`), 0))

	return store
}

func TestModerationBackfillPicksPendingRecords(t *testing.T) {
	r := &recordingRescorer{}

	err := jobs.ModerationBackfill(newStore(t), r, 0)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a_1.png", "c_3.png", "e_5.png"}, r.ids)
}

func TestModerationBackfillRespectsBatch(t *testing.T) {
	r := &recordingRescorer{}

	require.NoError(t, jobs.ModerationBackfill(newStore(t), r, 2)(context.Background()))
	assert.Equal(t, []string{"a_1.png", "c_3.png"}, r.ids)
}

func TestModerationBackfillStopsWhenDisabled(t *testing.T) {
	r := &recordingRescorer{err: func(string) error { return ingest.ErrModerationDisabled }}

	require.NoError(t, jobs.ModerationBackfill(newStore(t), r, 0)(context.Background()))
	assert.Equal(t, []string{"a_1.png"}, r.ids)
}

func TestModerationBackfillReportsFailures(t *testing.T) {
	boom := errors.New("moderation offline")
	r := &recordingRescorer{err: func(id string) error {
		if id == "c_3.png" {
			return boom
		}

		return nil
	}}

	err := jobs.ModerationBackfill(newStore(t), r, 0)(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Len(t, r.ids, 3)
}

func TestRegisterCronJobs(t *testing.T) {
	sched, err := scheduler.NewScheduler()
	require.NoError(t, err)

	t.Cleanup(func() { _ = sched.Shutdown() })

	cfg := configs.JobsConfig{ModerationBackfill: configs.CronJobConfig{Enabled: true, Cron: "*/15 * * * *", Batch: 10}}
	require.NoError(t, jobs.RegisterCronJobs(context.Background(), sched, newStore(t), &recordingRescorer{}, cfg))

	infos := sched.GetJobInfos()
	require.Len(t, infos, 1)
	assert.Equal(t, jobs.JobModerationBackfill, infos[0].Name)
	assert.Equal(t, "*/15 * * * *", infos[0].CronExpr)

	assert.Error(t, jobs.RegisterCronJobs(context.Background(), nil, nil, nil, cfg))
}
